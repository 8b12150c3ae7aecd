package model

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestPatchDecode(t *testing.T) {
	var p AppointmentPatch
	err := json.Unmarshal([]byte(`{"status":"confirmed","notes":"hi","estimatedCost":"99.90","appointmentDate":"2030-01-02"}`), &p)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{FieldAppointmentDate, FieldEstimatedCost, FieldNotes, FieldStatus}
	if !slices.Equal(p.Keys(), want) {
		t.Errorf("keys = %v, want %v", p.Keys(), want)
	}
	if *p.Status != StatusConfirmed || *p.Notes != "hi" || p.EstimatedCost.String() != "99.9" {
		t.Errorf("unexpected values %+v", p)
	}
	if p.AppointmentDate.String() != "2030-01-02" {
		t.Errorf("date = %s", p.AppointmentDate)
	}
	if p.Symptoms != nil || p.DurationMinutes != nil {
		t.Error("absent keys must stay nil")
	}
}

func TestPatchDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		field  string
		reason string
	}{
		{"unknown key", `{"patientId":"x"}`, "patientId", "not_allowed"},
		{"null value", `{"notes":null}`, FieldNotes, "must_not_be_null"},
		{"wrong type", `{"durationMinutes":"long"}`, FieldDurationMinutes, "invalid"},
		{"bad date", `{"appointmentDate":"tomorrow"}`, FieldAppointmentDate, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p AppointmentPatch
			err := json.Unmarshal([]byte(tt.body), &p)
			var pe *PatchError
			if !errors.As(err, &pe) {
				t.Fatalf("expected PatchError, got %v", err)
			}
			if pe.Fields[tt.field] != tt.reason {
				t.Errorf("fields = %v, want %s=%s", pe.Fields, tt.field, tt.reason)
			}
		})
	}
}

func TestPatchEmpty(t *testing.T) {
	var p AppointmentPatch
	if err := json.Unmarshal([]byte(`{}`), &p); err != nil {
		t.Fatal(err)
	}
	if !p.Empty() {
		t.Error("expected empty patch")
	}
}

func TestPatchApply(t *testing.T) {
	a := Appointment{Status: StatusPending, AppointmentTime: "09:00", DurationMinutes: 60}
	var p AppointmentPatch
	if err := json.Unmarshal([]byte(`{"status":"completed","durationMinutes":30}`), &p); err != nil {
		t.Fatal(err)
	}
	p.Apply(&a)
	if a.Status != StatusCompleted || a.DurationMinutes != 30 || a.AppointmentTime != "09:00" {
		t.Errorf("apply = %+v", a)
	}
}
