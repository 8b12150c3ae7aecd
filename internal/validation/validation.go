package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Violations maps a field name to a short machine-readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Add(field, reason string) {
	if _, ok := v[field]; !ok {
		v[field] = reason
	}
}

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

// Length checks the rune count of a non-empty value.
func Length(field, value string, minLen, maxLen int, v Violations) {
	if value == "" {
		return
	}
	n := utf8.RuneCountInString(value)
	if n < minLen {
		v.Add(field, "too_short")
	} else if maxLen > 0 && n > maxLen {
		v.Add(field, "too_long")
	}
}

func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.Add(field, "invalid_email")
	}
}

// Check records reason for field when ok is false.
func Check(ok bool, field, reason string, v Violations) {
	if !ok {
		v.Add(field, reason)
	}
}
