package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/policy"
	"clinic-booking-api/internal/slots"
	"clinic-booking-api/internal/store"
	"clinic-booking-api/internal/validation"
	"clinic-booking-api/internal/xerrors"
)

type CreateAppointmentInput struct {
	PatientID       string        `json:"patientId"`
	Service         model.Service `json:"service"`
	AppointmentDate string        `json:"appointmentDate"`
	AppointmentTime string        `json:"appointmentTime"`
	Notes           *string       `json:"notes"`
	Symptoms        *string       `json:"symptoms"`
}

type AvailableSlots struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
}

var (
	errNotFound   = xerrors.NotFound("Appointment not found")
	errSlotBooked = xerrors.Conflict("This time slot is already booked")
)

// Appointments is the appointment repository: persistence plus the
// policy, validation and slot rules around it.
type Appointments struct {
	store Store
	now   func() time.Time
}

func NewAppointments(st Store) *Appointments {
	return &Appointments{store: st, now: time.Now}
}

func (s *Appointments) today() model.Date {
	return model.NewDate(s.now())
}

func (s *Appointments) Create(ctx context.Context, actor policy.Actor, in CreateAppointmentInput) (*model.Appointment, error) {
	if in.PatientID == "" {
		in.PatientID = actor.UserID
	}
	if d := policy.Decide(actor, policy.ActionCreate, &model.Appointment{PatientID: in.PatientID}); !d.Allowed {
		return nil, xerrors.Forbidden(d.Reason)
	}

	v := validation.Violations{}
	validation.Required("service", string(in.Service), v)
	validation.Check(in.Service == "" || in.Service.Valid(), "service", "unknown_service", v)
	validation.Required("appointmentDate", in.AppointmentDate, v)
	date, err := model.ParseDate(in.AppointmentDate)
	if in.AppointmentDate != "" {
		validation.Check(err == nil, "appointmentDate", "invalid_date", v)
		validation.Check(err != nil || !date.Before(s.today()), "appointmentDate", "in_the_past", v)
	}
	in.AppointmentTime = strings.TrimSpace(in.AppointmentTime)
	validation.Required("appointmentTime", in.AppointmentTime, v)
	validation.Check(in.AppointmentTime == "" || model.ValidTime(in.AppointmentTime), "appointmentTime", "invalid_time", v)
	if !v.Empty() {
		return nil, xerrors.Validation("Validation error", v)
	}

	if _, err := uuid.Parse(in.PatientID); err != nil {
		return nil, xerrors.NotFound("Patient not found")
	}
	if _, err := s.store.UserByID(ctx, in.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, xerrors.NotFound("Patient not found")
		}
		return nil, xerrors.Internal(err)
	}

	a := &model.Appointment{
		ID:              uuid.NewString(),
		PatientID:       in.PatientID,
		Service:         in.Service,
		AppointmentDate: date,
		AppointmentTime: in.AppointmentTime,
		Status:          model.StatusPending,
		Notes:           in.Notes,
		Symptoms:        in.Symptoms,
		DurationMinutes: model.DefaultDurationMinutes,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			return nil, errSlotBooked
		}
		return nil, xerrors.Internal(err)
	}
	return s.fetch(ctx, a.ID)
}

// List returns every appointment for staff and only their own for patients,
// ordered by date then time.
func (s *Appointments) List(ctx context.Context, actor policy.Actor) ([]model.Appointment, error) {
	d := policy.Decide(actor, policy.ActionList, nil)
	if !d.Allowed {
		return nil, xerrors.Forbidden(d.Reason)
	}
	patientID := ""
	if d.OwnOnly {
		patientID = actor.UserID
	}
	out, err := s.store.ListAppointments(ctx, patientID)
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return out, nil
}

// Schedule lists every appointment on one day for staff, ordered by time.
func (s *Appointments) Schedule(ctx context.Context, actor policy.Actor, date string) ([]model.Appointment, error) {
	if d := policy.Decide(actor, policy.ActionSchedule, nil); !d.Allowed {
		return nil, xerrors.Forbidden(d.Reason)
	}
	day, err := parseDateParam(date)
	if err != nil {
		return nil, err
	}
	out, err := s.store.AppointmentsOn(ctx, day)
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return out, nil
}

func (s *Appointments) Get(ctx context.Context, actor policy.Actor, id string) (*model.Appointment, error) {
	a, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := policy.Decide(actor, policy.ActionView, a); !d.Allowed {
		return nil, xerrors.Forbidden(d.Reason)
	}
	return a, nil
}

// Update applies patch. A patch with any key outside the caller's field
// mask is rejected as a whole.
func (s *Appointments) Update(ctx context.Context, actor policy.Actor, id string, patch model.AppointmentPatch) (*model.Appointment, error) {
	a, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	d := policy.Decide(actor, policy.ActionUpdate, a)
	if !d.Allowed {
		return nil, xerrors.Forbidden(d.Reason)
	}
	if !d.Permits(patch.Keys()) {
		return nil, xerrors.Forbidden("Patients can only update notes and symptoms")
	}
	if v := s.validatePatch(patch); !v.Empty() {
		return nil, xerrors.Validation("Validation error", v)
	}
	if patch.Empty() {
		return a, nil
	}

	updated, err := s.store.UpdateAppointment(ctx, id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, errNotFound
	case errors.Is(err, store.ErrSlotTaken):
		return nil, errSlotBooked
	case err != nil:
		return nil, xerrors.Internal(err)
	}
	return updated, nil
}

func (s *Appointments) validatePatch(p model.AppointmentPatch) validation.Violations {
	v := validation.Violations{}
	if p.Status != nil {
		validation.Check(p.Status.Valid(), model.FieldStatus, "invalid_status", v)
	}
	if p.AppointmentDate != nil {
		validation.Check(!p.AppointmentDate.Before(s.today()), model.FieldAppointmentDate, "in_the_past", v)
	}
	if p.AppointmentTime != nil {
		validation.Check(model.ValidTime(*p.AppointmentTime), model.FieldAppointmentTime, "invalid_time", v)
	}
	if p.EstimatedCost != nil {
		validation.Check(!p.EstimatedCost.IsNegative(), model.FieldEstimatedCost, "negative", v)
	}
	if p.DurationMinutes != nil {
		validation.Check(*p.DurationMinutes > 0, model.FieldDurationMinutes, "must_be_positive", v)
	}
	if p.Service != nil {
		validation.Check(p.Service.Valid(), model.FieldService, "unknown_service", v)
	}
	return v
}

func (s *Appointments) Delete(ctx context.Context, actor policy.Actor, id string) error {
	a, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if d := policy.Decide(actor, policy.ActionDelete, a); !d.Allowed {
		return xerrors.Forbidden(d.Reason)
	}
	err = s.store.DeleteAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return errNotFound
	}
	if err != nil {
		return xerrors.Internal(err)
	}
	return nil
}

// AvailableSlots lists the catalog times on date not held by a confirmed
// appointment. It needs no caller identity.
func (s *Appointments) AvailableSlots(ctx context.Context, date string) (*AvailableSlots, error) {
	d, err := parseDateParam(date)
	if err != nil {
		return nil, err
	}
	booked, err := s.store.ConfirmedTimes(ctx, d)
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return &AvailableSlots{Date: d.String(), AvailableSlots: slots.Available(booked)}, nil
}

func parseDateParam(date string) (model.Date, error) {
	if strings.TrimSpace(date) == "" {
		return model.Date{}, xerrors.Validation("Date parameter is required", nil)
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Date{}, xerrors.Validation("Date parameter must be YYYY-MM-DD", nil)
	}
	return d, nil
}

func (s *Appointments) fetch(ctx context.Context, id string) (*model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errNotFound
	}
	a, err := s.store.GetAppointment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, xerrors.Internal(err)
	}
	return a, nil
}
