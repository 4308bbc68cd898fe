package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgh-platform/feedback-service/internal/admin"
	"github.com/dgh-platform/feedback-service/internal/appointments"
	"github.com/dgh-platform/feedback-service/internal/departments"
	"github.com/dgh-platform/feedback-service/internal/feedback"
	"github.com/dgh-platform/feedback-service/internal/http/handlers"
	httpmiddleware "github.com/dgh-platform/feedback-service/internal/http/middleware"
	"github.com/dgh-platform/feedback-service/internal/prescriptions"
	"github.com/dgh-platform/feedback-service/internal/reminders"
	"github.com/dgh-platform/feedback-service/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	FeedbackHandler      *feedback.Handler
	DepartmentsHandler   *departments.Handler
	AppointmentsHandler  *appointments.Handler
	PrescriptionsHandler *prescriptions.Handler
	RemindersHandler     *reminders.Handler
	TwilioWebhooks       *handlers.TwilioWebhookHandler
	AdminHandler         *admin.Handler
	AdminAuthSecret      string
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
}

// New creates a new Chi router with all routes configured.
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

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.TwilioWebhooks != nil {
			public.Post("/webhooks/twilio/status", cfg.TwilioWebhooks.Status)
		}
	})

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.DepartmentsHandler != nil {
			api.Route("/departments", func(r chi.Router) {
				r.Get("/", cfg.DepartmentsHandler.List)
				r.Post("/", cfg.DepartmentsHandler.Create)
				r.Get("/{departmentID}", cfg.DepartmentsHandler.Get)
				r.Put("/{departmentID}", cfg.DepartmentsHandler.Update)
				r.Delete("/{departmentID}", cfg.DepartmentsHandler.Delete)
			})
		}

		if cfg.FeedbackHandler != nil {
			api.Route("/feedbacks", func(r chi.Router) {
				r.Post("/", cfg.FeedbackHandler.Create)
				r.Get("/jobs/{jobID}", cfg.FeedbackHandler.JobStatus)
				r.Get("/{feedbackID}", cfg.FeedbackHandler.Get)
				r.Post("/{feedbackID}/reprocess", cfg.FeedbackHandler.Reprocess)
				r.Put("/{feedbackID}/audio", cfg.FeedbackHandler.UploadAudio)
				r.Get("/{feedbackID}/audio", cfg.FeedbackHandler.DownloadAudio)
			})
			api.Route("/themes", func(r chi.Router) {
				r.Get("/", cfg.FeedbackHandler.ListThemes)
				r.Get("/{themeID}/feedbacks", cfg.FeedbackHandler.ListByTheme)
			})
		}

		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/upcoming", cfg.AppointmentsHandler.ListUpcoming)
				r.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
				if cfg.PrescriptionsHandler != nil {
					r.Get("/{appointmentID}/prescriptions", cfg.PrescriptionsHandler.ListByAppointment)
				}
			})
		}

		if cfg.PrescriptionsHandler != nil {
			api.Route("/prescriptions", func(r chi.Router) {
				r.Post("/", cfg.PrescriptionsHandler.Create)
				r.Get("/{prescriptionID}", cfg.PrescriptionsHandler.Get)
			})
			api.Route("/medications", func(r chi.Router) {
				r.Get("/", cfg.PrescriptionsHandler.ListMedications)
				r.Post("/", cfg.PrescriptionsHandler.CreateMedication)
			})
		}

		if cfg.RemindersHandler != nil {
			api.Route("/reminders", func(r chi.Router) {
				r.Post("/", cfg.RemindersHandler.Create)
				r.Get("/{reminderID}", cfg.RemindersHandler.Get)
				r.Post("/{reminderID}/cancel", cfg.RemindersHandler.Cancel)
			})
		}

		api.Route("/patients/{patientID}", func(r chi.Router) {
			if cfg.FeedbackHandler != nil {
				r.Get("/feedbacks", cfg.FeedbackHandler.ListByPatient)
			}
			if cfg.AppointmentsHandler != nil {
				r.Get("/appointments", cfg.AppointmentsHandler.ListByPatient)
			}
			if cfg.RemindersHandler != nil {
				r.Get("/reminders", cfg.RemindersHandler.ListPending)
			}
		})
	})

	// Admin routes (protected by JWT)
	if cfg.AdminHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(adminRoutes chi.Router) {
			adminRoutes.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			adminRoutes.Get("/descriptors", cfg.AdminHandler.Descriptors)
		})
	}

	return r
}
