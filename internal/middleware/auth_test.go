package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/model"
)

type tokenVerifier struct{ t *auth.Tokens }

func (v tokenVerifier) VerifyToken(raw string) (*auth.Claims, error) { return v.t.Parse(raw) }

func issue(t *testing.T, tokens *auth.Tokens, role model.Role) string {
	t.Helper()
	tok, err := tokens.Issue(&model.User{ID: "user-1", Email: "u@clinic.test", Role: role})
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokens("mw-secret", time.Hour)
	good := issue(t, tokens, model.RolePatient)

	var seen *auth.Claims
	h := Authenticate(tokenVerifier{tokens})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"foreign secret", "Bearer " + issue(t, auth.NewTokens("other", time.Hour), model.RoleAdmin), http.StatusUnauthorized},
		{"valid", "Bearer " + good, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && (seen == nil || seen.UserID != "user-1") {
				t.Errorf("claims not attached: %+v", seen)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Authorize(model.RoleAdmin, model.RoleDoctor)(ok)

	run := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil).WithContext(ctx))
		return rec.Code
	}

	if code := run(context.Background()); code != http.StatusUnauthorized {
		t.Errorf("no claims: %d", code)
	}
	if code := run(WithClaims(context.Background(), &auth.Claims{UserID: "p", Role: model.RolePatient})); code != http.StatusForbidden {
		t.Errorf("patient: %d", code)
	}
	if code := run(WithClaims(context.Background(), &auth.Claims{UserID: "d", Role: model.RoleDoctor})); code != http.StatusOK {
		t.Errorf("doctor: %d", code)
	}
}

func TestUnaryAuth(t *testing.T) {
	tokens := auth.NewTokens("mw-secret", time.Hour)
	icpt := UnaryAuth(tokenVerifier{tokens}, "/svc/Open")

	var got *auth.Claims
	next := func(ctx context.Context, req any) (any, error) {
		got, _ = ClaimsFrom(ctx)
		return "ok", nil
	}
	call := func(ctx context.Context, method string) error {
		_, err := icpt(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, next)
		return err
	}

	if err := call(context.Background(), "/svc/Open"); err != nil {
		t.Fatalf("public method: %v", err)
	}
	if err := call(context.Background(), "/svc/Closed"); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("no metadata: %v", err)
	}

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope"))
	if err := call(bad, "/svc/Closed"); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("bad token: %v", err)
	}

	good := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer "+issue(t, tokens, model.RoleDoctor)))
	if err := call(good, "/svc/Closed"); err != nil {
		t.Fatalf("good token: %v", err)
	}
	if got == nil || got.Role != model.RoleDoctor {
		t.Errorf("claims = %+v", got)
	}
}
