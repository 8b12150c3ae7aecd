// Package handler exposes the account and appointment services over REST.
// Every response goes through the httpx envelope.
package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"clinic-booking-api/internal/httpx"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/policy"
	"clinic-booking-api/internal/service"
	"clinic-booking-api/internal/xerrors"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	accounts *service.Accounts
	appts    *service.Appointments
	db       Pinger
	log      *zap.Logger
}

func New(accounts *service.Accounts, appts *service.Appointments, db Pinger, log *zap.Logger) *Handler {
	return &Handler{accounts: accounts, appts: appts, db: db, log: log}
}

// actor returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate, so missing claims yield an actor the policy denies.
func actor(r *http.Request) policy.Actor {
	c, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return policy.Actor{}
	}
	return policy.Actor{UserID: c.UserID, Role: c.Role}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := xerrors.As(err)
	if e.Kind == xerrors.KindInternal {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	httpx.Error(w, e.Kind.HTTPStatus(), e.Msg, e.Details)
}

// decode reads the body into dst, reporting bad input as a validation error.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httpx.Decode(r, dst)
	if err == nil {
		return true
	}
	var pe *model.PatchError
	switch {
	case errors.As(err, &pe):
		h.fail(w, r, xerrors.Validation("Validation error", pe.Fields))
	case errors.Is(err, model.ErrBadDate):
		h.fail(w, r, xerrors.Validation(model.ErrBadDate.Error(), nil))
	default:
		h.fail(w, r, xerrors.Validation("Invalid request body", nil))
	}
	return false
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		httpx.Error(w, http.StatusServiceUnavailable, "Database unavailable", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, "OK", map[string]string{"status": "ok"})
}
