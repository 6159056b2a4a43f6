package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carelane/hospital-platform/internal/admin"
	"github.com/carelane/hospital-platform/internal/appointments"
	"github.com/carelane/hospital-platform/internal/availability"
	"github.com/carelane/hospital-platform/internal/directory"
	httpmiddleware "github.com/carelane/hospital-platform/internal/http/middleware"
	"github.com/carelane/hospital-platform/internal/identity"
	"github.com/carelane/hospital-platform/internal/scheduling"
	"github.com/carelane/hospital-platform/internal/treatments"
	"github.com/carelane/hospital-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	DirectoryHandler    *directory.Handler
	AvailabilityHandler *availability.Handler
	AppointmentsHandler *appointments.Handler
	SchedulingHandler   *scheduling.Handler
	TreatmentsHandler   *treatments.Handler
	AdminDashboard      *admin.DashboardHandler
	AuthSecret          string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	PublicRatePerSecond float64
	PublicRateBurst     int
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

	// Public endpoints: health, metrics, and the unauthenticated booking
	// lookups (departments, doctors, slot preview).
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Group(func(api chi.Router) {
			if cfg.PublicRatePerSecond > 0 {
				api.Use(httpmiddleware.RateLimit(cfg.PublicRatePerSecond, cfg.PublicRateBurst))
			}
			api.Get("/api/departments", cfg.DirectoryHandler.ListDepartments)
			api.Get("/api/departments/{departmentID}/doctors", cfg.DirectoryHandler.DoctorsByDepartment)
			api.Get("/api/doctors/{doctorID}/slots", cfg.SchedulingHandler.ListSlots)
		})
	})

	// Patient routes.
	r.Group(func(patient chi.Router) {
		patient.Use(httpmiddleware.Authenticate(cfg.AuthSecret))
		patient.Use(httpmiddleware.RequireRole(identity.RolePatient))
		patient.Post("/api/appointments", cfg.SchedulingHandler.Book)
		patient.Get("/api/patient/appointments", cfg.AppointmentsHandler.ListUpcoming)
		patient.Get("/api/patient/history", cfg.AppointmentsHandler.PatientHistory)
	})

	// Cancellation is shared: the owning patient or doctor may cancel.
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.Authenticate(cfg.AuthSecret))
		authed.Post("/api/appointments/{appointmentID}/cancel", cfg.AppointmentsHandler.Cancel)
		authed.Get("/api/appointments/{appointmentID}/treatment", cfg.TreatmentsHandler.GetByAppointment)
	})

	// Doctor routes.
	r.Group(func(doctor chi.Router) {
		doctor.Use(httpmiddleware.Authenticate(cfg.AuthSecret))
		doctor.Use(httpmiddleware.RequireRole(identity.RoleDoctor))
		doctor.Put("/api/doctor/availability", cfg.AvailabilityHandler.UpsertWindow)
		doctor.Get("/api/doctor/availability", cfg.AvailabilityHandler.ListWindows)
		doctor.Get("/api/doctor/appointments", cfg.AppointmentsHandler.DoctorDay)
		doctor.Get("/api/doctor/patients/{patientID}/history", cfg.AppointmentsHandler.SharedHistory)
		doctor.Post("/api/appointments/{appointmentID}/status", cfg.AppointmentsHandler.UpdateStatus)
		doctor.Post("/api/appointments/{appointmentID}/treatment", cfg.TreatmentsHandler.Create)
	})

	// Admin routes.
	r.Route("/admin", func(adm chi.Router) {
		adm.Use(httpmiddleware.Authenticate(cfg.AuthSecret))
		adm.Use(httpmiddleware.RequireRole(identity.RoleAdmin))
		if cfg.AdminDashboard != nil {
			adm.Get("/stats", cfg.AdminDashboard.GetStats)
			adm.Get("/chart-data", cfg.AdminDashboard.GetChartData)
		}
		adm.Post("/departments", cfg.DirectoryHandler.CreateDepartment)
		adm.Post("/doctors", cfg.DirectoryHandler.CreateDoctor)
		adm.Get("/doctors", cfg.DirectoryHandler.SearchDoctors)
		adm.Delete("/doctors/{doctorID}", cfg.DirectoryHandler.RemoveDoctor)
		adm.Post("/patients", cfg.DirectoryHandler.CreatePatient)
		adm.Get("/patients", cfg.DirectoryHandler.SearchPatients)
		adm.Delete("/patients/{patientID}", cfg.DirectoryHandler.RemovePatient)
		adm.Get("/appointments", cfg.AppointmentsHandler.ListAll)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
