// Package storetest provides an in-memory store with the same contracts as
// the PostgreSQL store, for tests that should not need a database.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/store"
)

type Memory struct {
	mu    sync.Mutex
	users map[string]model.User
	appts map[string]model.Appointment
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]model.User),
		appts: make(map[string]model.Appointment),
		now:   time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UpdateProfile(_ context.Context, id string, p model.ProfilePatch) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Apply(&u)
	u.UpdatedAt = m.now()
	m.users[id] = u
	return &u, nil
}

// SetActive flips a user's active flag; there is no API path for it.
func (m *Memory) SetActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsActive = active
		m.users[id] = u
	}
}

func (m *Memory) slotConfirmed(a *model.Appointment) bool {
	for _, other := range m.appts {
		if other.ID != a.ID && other.Status == model.StatusConfirmed && other.SameSlot(a) {
			return true
		}
	}
	return false
}

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slotConfirmed(a) {
		return store.ErrSlotTaken
	}
	now := m.now()
	a.CreatedAt, a.UpdatedAt = now, now
	stored := *a
	stored.Patient = nil
	m.appts[a.ID] = stored
	return nil
}

func (m *Memory) withPatient(a model.Appointment) model.Appointment {
	if u, ok := m.users[a.PatientID]; ok {
		pub := u.Public()
		a.Patient = &pub
	}
	return a
}

func (m *Memory) ListAppointments(_ context.Context, patientID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(a model.Appointment) bool {
		return patientID == "" || a.PatientID == patientID
	}), nil
}

func (m *Memory) AppointmentsOn(_ context.Context, date model.Date) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(a model.Appointment) bool {
		return a.AppointmentDate.Equal(date.Time)
	}), nil
}

// collect returns matching appointments in date, time, creation order.
func (m *Memory) collect(match func(model.Appointment) bool) []model.Appointment {
	out := []model.Appointment{}
	for _, a := range m.appts {
		if match(a) {
			out = append(out, m.withPatient(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.AppointmentDate.Equal(b.AppointmentDate.Time) {
			return a.AppointmentDate.Before(b.AppointmentDate)
		}
		if a.AppointmentTime != b.AppointmentTime {
			return a.AppointmentTime < b.AppointmentTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	a = m.withPatient(a)
	return &a, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Apply(&a)
	if a.Status == model.StatusConfirmed && m.slotConfirmed(&a) {
		return nil, store.ErrSlotTaken
	}
	a.UpdatedAt = m.now()
	m.appts[id] = a
	a = m.withPatient(a)
	return &a, nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *Memory) ConfirmedTimes(_ context.Context, date model.Date) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.appts {
		if a.Status == model.StatusConfirmed && a.AppointmentDate.Equal(date.Time) {
			out = append(out, a.AppointmentTime)
		}
	}
	return out, nil
}
