// Package policy holds the one authorization rule set for appointments.
// Every service method asks Decide before touching a record, so the
// role and ownership logic lives here and nowhere else.
package policy

import (
	"clinic-booking-api/internal/model"
)

// Action describes the kind of operation a caller wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	// ActionSchedule reads a whole day across patients.
	ActionSchedule Action = "schedule"
)

type Actor struct {
	UserID string
	Role   model.Role
}

// Decision is the outcome of a policy check.
// Fields restricts which patch keys may be written; nil means any.
// OwnOnly narrows a list to the actor's own records.
type Decision struct {
	Allowed bool
	Reason  string
	Fields  []string
	OwnOnly bool
}

// patientFields are the only appointment fields a patient may change.
var patientFields = []string{model.FieldNotes, model.FieldSymptoms}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Decide evaluates action by actor against appt. appt is nil for list,
// and for create it carries the intended patient id.
func Decide(actor Actor, action Action, appt *model.Appointment) Decision {
	if actor.UserID == "" || !actor.Role.Valid() {
		return deny("Access denied")
	}
	if actor.Role.IsStaff() {
		return allow()
	}

	switch action {
	case ActionSchedule:
		return deny("Insufficient permissions")
	case ActionList:
		return Decision{Allowed: true, OwnOnly: true}
	case ActionCreate:
		if appt != nil && appt.PatientID != "" && appt.PatientID != actor.UserID {
			return deny("Patients can only book for themselves")
		}
		return allow()
	case ActionView, ActionDelete:
		if appt == nil || appt.PatientID != actor.UserID {
			return deny("Access denied")
		}
		return allow()
	case ActionUpdate:
		if appt == nil || appt.PatientID != actor.UserID {
			return deny("Access denied")
		}
		return Decision{Allowed: true, Fields: patientFields}
	}
	return deny("Access denied")
}

// Permits reports whether every key is inside the decision's field mask.
func (d Decision) Permits(keys []string) bool {
	if !d.Allowed {
		return false
	}
	if d.Fields == nil {
		return true
	}
	for _, k := range keys {
		if !contains(d.Fields, k) {
			return false
		}
	}
	return true
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
