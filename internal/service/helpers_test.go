package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/policy"
	"clinic-booking-api/internal/service"
	"clinic-booking-api/internal/store/storetest"
	"clinic-booking-api/internal/xerrors"
)

type fixture struct {
	accounts *service.Accounts
	appts    *service.Appointments
	mem      *storetest.Memory
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mem := storetest.NewMemory()
	return &fixture{
		accounts: service.NewAccounts(mem, mem, auth.NewHasher(bcrypt.MinCost), auth.NewTokens("test-secret", time.Hour)),
		appts:    service.NewAppointments(mem),
		mem:      mem,
	}
}

func (f *fixture) register(t *testing.T, role model.Role) policy.Actor {
	t.Helper()
	s, err := f.accounts.Register(context.Background(), service.RegisterInput{
		Name:     "Test User",
		Email:    fmt.Sprintf("test-%s@clinic.test", uuid.NewString()[:8]),
		Password: "testpass123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return policy.Actor{UserID: s.User.ID, Role: s.User.Role}
}

func (f *fixture) book(t *testing.T, actor policy.Actor, date, at string) *model.Appointment {
	t.Helper()
	a, err := f.appts.Create(context.Background(), actor, service.CreateAppointmentInput{
		Service:         "General Checkup",
		AppointmentDate: date,
		AppointmentTime: at,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func (f *fixture) confirm(t *testing.T, staff policy.Actor, id string) {
	t.Helper()
	if _, err := f.appts.Update(context.Background(), staff, id, patch(t, `{"status":"confirmed"}`)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
}

func patch(t *testing.T, js string) model.AppointmentPatch {
	t.Helper()
	var p model.AppointmentPatch
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatalf("patch %s: %v", js, err)
	}
	return p
}

// day returns a date n days from today.
func day(n int) string {
	return time.Now().AddDate(0, 0, n).Format(model.DateLayout)
}

func wantKind(t *testing.T, err error, k xerrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", k)
	}
	if got := xerrors.KindOf(err); got != k {
		t.Fatalf("expected %v, got %v (%v)", k, got, err)
	}
}
