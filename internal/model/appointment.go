package model

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type Service string

// Services is the fixed catalog of bookable offerings.
var Services = []Service{
	"General Checkup",
	"Teeth Cleaning",
	"Teeth Whitening",
	"Dental Filling",
	"Root Canal",
	"Crown & Bridge",
	"Dental Implants",
	"Orthodontics",
	"Emergency Care",
}

func (s Service) Valid() bool {
	for _, v := range Services {
		if v == s {
			return true
		}
	}
	return false
}

const DefaultDurationMinutes = 60

var timeOfDay = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidTime reports whether s is an HH:MM time of day.
func ValidTime(s string) bool {
	return timeOfDay.MatchString(s)
}

type Appointment struct {
	ID              string           `json:"id"`
	PatientID       string           `json:"patientId"`
	Patient         *PublicUser      `json:"patient,omitempty"`
	Service         Service          `json:"service"`
	AppointmentDate Date             `json:"appointmentDate"`
	AppointmentTime string           `json:"appointmentTime"`
	Status          Status           `json:"status"`
	Notes           *string          `json:"notes,omitempty"`
	Symptoms        *string          `json:"symptoms,omitempty"`
	DoctorAssigned  *string          `json:"doctorAssigned,omitempty"`
	EstimatedCost   *decimal.Decimal `json:"estimatedCost,omitempty"`
	DurationMinutes int              `json:"durationMinutes"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// SameSlot reports whether a and b occupy the same (date, time) pair.
func (a *Appointment) SameSlot(b *Appointment) bool {
	return a.AppointmentDate.Equal(b.AppointmentDate.Time) && a.AppointmentTime == b.AppointmentTime
}
