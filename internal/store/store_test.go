package store_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clinic-booking-api/internal/database"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/store"
)

func setup(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := database.Migrate(dbURL, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	pool, err := database.Connect(ctx, dbURL, zap.NewNop())
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(pool.Close)
	return store.New(pool)
}

func newUser(t *testing.T, st *store.Store) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         "Store User",
		Email:        fmt.Sprintf("test-%s@clinic.test", uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         model.RolePatient,
		IsActive:     true,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// farDate picks a day nobody else books, so reruns do not collide.
func farDate() model.Date {
	return model.NewDate(time.Now().AddDate(5, 0, rand.IntN(3000)))
}

func newAppointment(t *testing.T, st *store.Store, patient string, date model.Date, at string, status model.Status) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		ID:              uuid.NewString(),
		PatientID:       patient,
		Service:         "General Checkup",
		AppointmentDate: date,
		AppointmentTime: at,
		Status:          status,
		DurationMinutes: model.DefaultDurationMinutes,
	}
	if err := st.CreateAppointment(context.Background(), a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	t.Cleanup(func() { _ = st.DeleteAppointment(context.Background(), a.ID) })
	return a
}

func TestUsers(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st)

	got, err := st.UserByEmail(ctx, u.Email)
	if err != nil || got.ID != u.ID {
		t.Fatalf("by email: %v %+v", err, got)
	}
	if _, err := st.UserByID(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user: %v", err)
	}

	dup := *u
	dup.ID = uuid.NewString()
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Errorf("duplicate email: %v", err)
	}

	name := "Renamed"
	dob := model.NewDate(time.Date(1991, 3, 4, 0, 0, 0, 0, time.UTC))
	upd, err := st.UpdateProfile(ctx, u.ID, model.ProfilePatch{Name: &name, DateOfBirth: &dob})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if upd.Name != name || upd.DateOfBirth == nil || upd.DateOfBirth.String() != "1991-03-04" || upd.Email != u.Email {
		t.Errorf("profile = %+v", upd)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st)
	date := farDate()

	late := newAppointment(t, st, u.ID, date, "14:00", model.StatusPending)
	early := newAppointment(t, st, u.ID, date, "09:30", model.StatusPending)

	list, err := st.ListAppointments(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != early.ID || list[1].ID != late.ID {
		t.Fatalf("order = %+v", list)
	}
	if list[0].Patient == nil || list[0].Patient.Email != u.Email {
		t.Error("patient not joined")
	}

	day, err := st.AppointmentsOn(ctx, date)
	if err != nil || len(day) != 2 {
		t.Fatalf("appointments on day: %v %d", err, len(day))
	}

	var p model.AppointmentPatch
	cost := decimal.RequireFromString("120.50")
	status := model.StatusConfirmed
	p.Status, p.EstimatedCost = &status, &cost
	got, err := st.UpdateAppointment(ctx, early.ID, p)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != model.StatusConfirmed || !got.EstimatedCost.Equal(cost) {
		t.Errorf("update = %+v", got)
	}

	times, err := st.ConfirmedTimes(ctx, date)
	if err != nil || len(times) != 1 || times[0] != "09:30" {
		t.Errorf("confirmed times = %v, %v", times, err)
	}

	if err := st.DeleteAppointment(ctx, late.ID); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteAppointment(ctx, late.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if _, err := st.GetAppointment(ctx, late.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get deleted: %v", err)
	}
}

func TestConcurrentConfirmedBooking(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	date := farDate()

	const n = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		taken int
		made  []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := &model.Appointment{
				ID:              uuid.NewString(),
				PatientID:       u.ID,
				Service:         "Emergency Care",
				AppointmentDate: date,
				AppointmentTime: "10:00",
				Status:          model.StatusConfirmed,
				DurationMinutes: 60,
			}
			err := st.CreateAppointment(context.Background(), a)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
				made = append(made, a.ID)
			case errors.Is(err, store.ErrSlotTaken):
				taken++
			default:
				t.Errorf("unexpected: %v", err)
			}
		}()
	}
	wg.Wait()
	for _, id := range made {
		t.Cleanup(func() { _ = st.DeleteAppointment(context.Background(), id) })
	}
	if ok != 1 || taken != n-1 {
		t.Fatalf("got %d inserted, %d rejected", ok, taken)
	}
}

func TestConcurrentConfirm(t *testing.T) {
	st := setup(t)
	u := newUser(t, st)
	date := farDate()

	const n = 6
	ids := make([]string, n)
	for i := range ids {
		ids[i] = newAppointment(t, st, u.ID, date, "15:30", model.StatusPending).ID
	}

	status := model.StatusConfirmed
	p := model.AppointmentPatch{Status: &status}
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := st.UpdateAppointment(context.Background(), id, p)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, store.ErrSlotTaken):
			t.Errorf("unexpected: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one confirmation, got %d", ok)
	}
}
