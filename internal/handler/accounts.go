package handler

import (
	"net/http"

	"clinic-booking-api/internal/httpx"
	"clinic-booking-api/internal/service"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if !h.decode(w, r, &in) {
		return
	}
	s, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, "User registered successfully", s)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !h.decode(w, r, &in) {
		return
	}
	s, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Login successful", s)
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.accounts.Profile(r.Context(), actor(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Profile retrieved successfully", p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if !h.decode(w, r, &in) {
		return
	}
	u, err := h.accounts.UpdateProfile(r.Context(), actor(r).UserID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Profile updated successfully", u)
}
