package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"clinic-booking-api/internal/model"
)

const testSecret = "test-secret"

func testUser() *model.User {
	return &model.User{ID: "u-1", Email: "a@clinic.test", Role: model.RoleDoctor}
}

func TestHashAndCheck(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "testpass123" {
		t.Fatal("hash equals plaintext")
	}
	if !h.Check(hash, "testpass123") {
		t.Error("correct password rejected")
	}
	if h.Check(hash, "wrongpassword") {
		t.Error("wrong password accepted")
	}
}

func TestHasherClampsCost(t *testing.T) {
	if h := NewHasher(99); h.cost != DefaultCost {
		t.Errorf("expected default cost, got %d", h.cost)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tk := NewTokens(testSecret, 0)
	raw, err := tk.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := tk.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UserID != "u-1" || c.Email != "a@clinic.test" || c.Role != model.RoleDoctor {
		t.Errorf("claims mismatch: %+v", c)
	}

	// default expiry is seven days
	diff := time.Until(c.ExpiresAt.Time)
	if diff < DefaultTTL-time.Minute || diff > DefaultTTL+time.Minute {
		t.Errorf("expected ~7d expiry, got %v", diff)
	}
}

func TestTokenExpired(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	tk.now = func() time.Time { return issued }
	raw, err := tk.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tk.now = time.Now
	if _, err := tk.Parse(raw); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	raw, _ := tk.Issue(testUser())

	// wrong secret fails
	if _, err := NewTokens("wrong-secret", time.Hour).Parse(raw); err == nil {
		t.Fatal("expected error for wrong secret")
	}

	// garbage token fails
	if _, err := tk.Parse("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}

	// unsigned token fails
	c := Claims{UserID: "u-1", Role: model.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tk.Parse(none); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

func TestTokenRejectsUnknownRole(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	u := testUser()
	u.Role = "superuser"
	raw, _ := tk.Issue(u)
	if _, err := tk.Parse(raw); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestTamperedToken(t *testing.T) {
	tk := NewTokens(testSecret, time.Hour)
	raw, _ := tk.Issue(testUser())
	parts := strings.Split(raw, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xx"
	if _, err := tk.Parse(strings.Join(parts, ".")); err == nil {
		t.Fatal("expected error for tampered payload")
	}
}
