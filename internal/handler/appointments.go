package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-booking-api/internal/httpx"
	"clinic-booking-api/internal/model"
	"clinic-booking-api/internal/service"
)

func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	s, err := h.appts.AvailableSlots(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Available slots retrieved successfully", s)
}

func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	list, err := h.appts.Schedule(r.Context(), actor(r), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Schedule retrieved successfully", list)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAppointmentInput
	if !h.decode(w, r, &in) {
		return
	}
	a, err := h.appts.Create(r.Context(), actor(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, "Appointment created successfully", a)
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	list, err := h.appts.List(r.Context(), actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Appointments retrieved successfully", list)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := h.appts.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Appointment retrieved successfully", a)
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	var patch model.AppointmentPatch
	if !h.decode(w, r, &patch) {
		return
	}
	a, err := h.appts.Update(r.Context(), actor(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Appointment updated successfully", a)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.appts.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, "Appointment deleted successfully", nil)
}
