package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Required("email", "a@b.com", v)
	if v["name"] != "required" {
		t.Errorf("expected name required, got %q", v["name"])
	}
	if _, ok := v["email"]; ok {
		t.Error("email should be valid")
	}
}

func TestLength(t *testing.T) {
	v := Violations{}
	Length("name", "A", 2, 255, v)
	Length("password", "secret", 6, 0, v)
	if v["name"] != "too_short" {
		t.Errorf("expected too_short, got %q", v["name"])
	}
	if _, ok := v["password"]; ok {
		t.Error("6 chars should satisfy min 6")
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"patient@clinic.test", true},
		{"no-at-sign", false},
		{"Name <x@y.z>", false},
		{"", true}, // emptiness is Required's job
	}
	for _, tt := range tests {
		v := Violations{}
		Email("email", tt.in, v)
		if v.Empty() != tt.valid {
			t.Errorf("%q: expected valid=%v, got %v", tt.in, tt.valid, v)
		}
	}
}

func TestFirstReasonWins(t *testing.T) {
	v := Violations{}
	Required("email", "", v)
	Check(false, "email", "invalid_email", v)
	if v["email"] != "required" {
		t.Errorf("expected first reason kept, got %q", v["email"])
	}
}
