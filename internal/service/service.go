// Package service implements account and appointment operations on top of
// the stores, consulting the policy package for every access decision.
package service

import (
	"context"

	"clinic-booking-api/internal/model"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, p model.ProfilePatch) (*model.User, error)
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	ListAppointments(ctx context.Context, patientID string) ([]model.Appointment, error)
	AppointmentsOn(ctx context.Context, date model.Date) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ConfirmedTimes(ctx context.Context, date model.Date) ([]string, error)
}

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	AppointmentStore
}
