package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Patch field names as they appear on the wire.
const (
	FieldStatus          = "status"
	FieldAppointmentDate = "appointmentDate"
	FieldAppointmentTime = "appointmentTime"
	FieldNotes           = "notes"
	FieldSymptoms        = "symptoms"
	FieldDoctorAssigned  = "doctorAssigned"
	FieldEstimatedCost   = "estimatedCost"
	FieldDurationMinutes = "durationMinutes"
	FieldService         = "service"
)

// PatchError lists the offending keys of a rejected patch.
type PatchError struct {
	Fields map[string]string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("invalid patch: %v", e.Fields)
}

// AppointmentPatch is a partial appointment update. Only keys present in
// the decoded document are set; Keys records them in sorted order.
type AppointmentPatch struct {
	Status          *Status
	AppointmentDate *Date
	AppointmentTime *string
	Notes           *string
	Symptoms        *string
	DoctorAssigned  *string
	EstimatedCost   *decimal.Decimal
	DurationMinutes *int
	Service         *Service

	keys []string
}

func (p AppointmentPatch) Keys() []string { return p.keys }

func (p AppointmentPatch) Empty() bool { return len(p.keys) == 0 }

func (p *AppointmentPatch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = AppointmentPatch{}
	bad := map[string]string{}
	for key, val := range raw {
		if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			bad[key] = "must_not_be_null"
			continue
		}
		var err error
		switch key {
		case FieldStatus:
			err = decodeInto(val, &p.Status)
		case FieldAppointmentDate:
			err = decodeInto(val, &p.AppointmentDate)
		case FieldAppointmentTime:
			err = decodeInto(val, &p.AppointmentTime)
		case FieldNotes:
			err = decodeInto(val, &p.Notes)
		case FieldSymptoms:
			err = decodeInto(val, &p.Symptoms)
		case FieldDoctorAssigned:
			err = decodeInto(val, &p.DoctorAssigned)
		case FieldEstimatedCost:
			err = decodeInto(val, &p.EstimatedCost)
		case FieldDurationMinutes:
			err = decodeInto(val, &p.DurationMinutes)
		case FieldService:
			err = decodeInto(val, &p.Service)
		default:
			bad[key] = "not_allowed"
			continue
		}
		if err != nil {
			bad[key] = "invalid"
			continue
		}
		p.keys = append(p.keys, key)
	}
	if len(bad) > 0 {
		return &PatchError{Fields: bad}
	}
	sort.Strings(p.keys)
	return nil
}

func decodeInto[T any](val json.RawMessage, dst **T) error {
	v := new(T)
	if err := json.Unmarshal(val, v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// Apply merges the patch into a.
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AppointmentDate != nil {
		a.AppointmentDate = *p.AppointmentDate
	}
	if p.AppointmentTime != nil {
		a.AppointmentTime = *p.AppointmentTime
	}
	if p.Notes != nil {
		a.Notes = p.Notes
	}
	if p.Symptoms != nil {
		a.Symptoms = p.Symptoms
	}
	if p.DoctorAssigned != nil {
		a.DoctorAssigned = p.DoctorAssigned
	}
	if p.EstimatedCost != nil {
		a.EstimatedCost = p.EstimatedCost
	}
	if p.DurationMinutes != nil {
		a.DurationMinutes = *p.DurationMinutes
	}
	if p.Service != nil {
		a.Service = *p.Service
	}
}
