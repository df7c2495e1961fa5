// Package router assembles the chi route tree for the booking API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arogya-health/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/arogya-health/booking-platform/internal/http/middleware"
	"github.com/arogya-health/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Patients           *handlers.PatientHandler
	Doctors            *handlers.DoctorHandler
	Appointments       *handlers.AppointmentHandler
	Calls              *handlers.CallHandler
	Stats              *handlers.StatsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// DoctorJWTSecret protects the doctor portal routes. Empty leaves them
	// returning 401.
	DoctorJWTSecret string

	// WebhookRateLimit caps provider webhook calls per second per IP.
	// Zero disables the limiter.
	WebhookRateLimit float64
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Stats.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/patient", func(p chi.Router) {
			p.Post("/register", cfg.Patients.Register)
			p.Get("/{patientID}", cfg.Patients.Get)
			p.Get("/phone/{phone}", cfg.Patients.GetByPhone)
		})

		api.Get("/doctors", cfg.Doctors.List)
		api.Get("/doctors/available", cfg.Doctors.ListAvailable)
		api.Route("/doctor", func(d chi.Router) {
			d.Post("/register", cfg.Doctors.Register)
			d.Post("/login", cfg.Doctors.Login)
			d.Post("/set-password", cfg.Doctors.SetPassword)
			d.Get("/{doctorID}", cfg.Doctors.Get)

			// Portal routes require a doctor session token.
			d.Group(func(portal chi.Router) {
				portal.Use(httpmiddleware.DoctorJWT(cfg.DoctorJWTSecret))
				portal.Get("/{doctorID}/appointments", cfg.Doctors.Appointments)
				portal.Get("/{doctorID}/availability", cfg.Doctors.GetAvailability)
				portal.Post("/{doctorID}/availability", cfg.Doctors.AddAvailability)
				portal.Delete("/{doctorID}/availability/{slotID}", cfg.Doctors.DeleteAvailability)
				portal.Post("/{doctorID}/toggle-availability", cfg.Doctors.ToggleAvailability)
			})
		})

		api.Post("/booking/initiate", cfg.Appointments.InitiateCall)
		api.Get("/booking/calls", cfg.Calls.ProviderCalls)
		api.Get("/booking/recording/{callID}", cfg.Calls.Recording)
		api.Post("/appointment/book", cfg.Appointments.Book)
		api.Get("/appointment/{appointmentID}", cfg.Appointments.Get)
		api.Post("/appointment/{appointmentID}/cancel", cfg.Appointments.Cancel)
		api.Get("/appointments", cfg.Appointments.List)

		api.Get("/calls", cfg.Calls.List)
		api.Post("/call/sync/{callID}", cfg.Calls.Sync)
		api.Post("/followups/trigger", cfg.Calls.TriggerFollowUps)

		webhook := api.Group(nil)
		if cfg.WebhookRateLimit > 0 {
			webhook.Use(httpmiddleware.RateLimit(cfg.WebhookRateLimit, int(cfg.WebhookRateLimit)+1))
		}
		webhook.Post("/webhook/call-completed", cfg.Calls.Webhook)

		api.Get("/stats/dashboard", cfg.Stats.Dashboard)
	})

	return r
}
