package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"clinic-booking-api/internal/handler"
	"clinic-booking-api/internal/httpx"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/model"
)

type Deps struct {
	Handler     *handler.Handler
	Verifier    middleware.TokenVerifier
	Limiter     middleware.Limiter
	CORSOrigins []string
	Log         *zap.Logger
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(chimw.Recoverer)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	h := d.Handler
	authn := middleware.Authenticate(d.Verifier)

	r.Get("/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(middleware.RateLimit(d.Limiter, d.Log))
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/profile", h.Profile)
			r.Put("/profile", h.UpdateProfile)
		})
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/available-slots", h.AvailableSlots)
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/", h.CreateAppointment)
			r.Get("/", h.ListAppointments)
			r.With(middleware.Authorize(model.RoleAdmin, model.RoleDoctor)).Get("/schedule", h.Schedule)
			r.Get("/{id}", h.GetAppointment)
			r.Put("/{id}", h.UpdateAppointment)
			r.Delete("/{id}", h.DeleteAppointment)
		})
	})

	return r
}
