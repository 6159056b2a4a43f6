package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelane/hospital-platform/internal/identity"
	"github.com/carelane/hospital-platform/pkg/logging"
)

// Handler serves the appointment lifecycle and listing endpoints.
type Handler struct {
	ledger    Ledger
	loc       *time.Location
	logger    *logging.Logger
	now       func() time.Time
	onRelease func(ctx context.Context, doctorID uuid.UUID, at time.Time)
}

// NewHandler creates a new appointments handler. loc is the clinic timezone
// used to interpret date query params.
func NewHandler(ledger Ledger, loc *time.Location, logger *logging.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{ledger: ledger, loc: loc, logger: logger, now: time.Now}
}

// OnSlotReleased registers a callback fired after a cancellation frees a
// (doctor, timestamp) slot. Used to drop cached slot lists.
func (h *Handler) OnSlotReleased(fn func(ctx context.Context, doctorID uuid.UUID, at time.Time)) {
	h.onRelease = fn
}

// Cancel handles POST /api/appointments/{appointmentID}/cancel. Allowed for
// the owning patient or the owning doctor.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	appt, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ownedBy(appt, principal) {
		http.Error(w, ErrNotOwner.Error(), http.StatusForbidden)
		return
	}

	updated, err := h.ledger.SetStatus(r.Context(), id, StatusCancelled)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.onRelease != nil {
		h.onRelease(r.Context(), updated.DoctorID, updated.ScheduledAt)
	}

	h.logger.Info("appointment cancelled",
		"appointment_id", id,
		"actor_id", principal.ID,
		"role", principal.Role,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// UpdateStatusRequest is the body of POST /api/appointments/{id}/status.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus handles the doctor's status form. Terminal appointments are
// never reopened; that surfaces as 409.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Status.Valid() {
		http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	appt, err := h.ledger.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if appt.DoctorID != principal.ID {
		http.Error(w, ErrNotOwner.Error(), http.StatusForbidden)
		return
	}

	updated, err := h.ledger.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("appointment status updated",
		"appointment_id", id,
		"status", req.Status,
		"doctor_id", principal.ID,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// ListUpcoming handles GET /api/patient/appointments.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	appts, err := h.ledger.ListUpcomingForPatient(r.Context(), principal.ID, h.now().In(h.loc))
	if err != nil {
		h.logError(w, "failed to list upcoming appointments", err)
		return
	}
	writeAppointments(w, appts)
}

// PatientHistory handles GET /api/patient/history.
func (h *Handler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	appts, err := h.ledger.ListHistoryForPatient(r.Context(), principal.ID)
	if err != nil {
		h.logError(w, "failed to list patient history", err)
		return
	}
	writeAppointments(w, appts)
}

// DoctorDay handles GET /api/doctor/appointments?date=YYYY-MM-DD. Defaults
// to today's sheet when no date is given.
func (h *Handler) DoctorDay(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	day := h.now().In(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, h.loc)
	to := from.AddDate(0, 0, 1)

	appts, err := h.ledger.ListForDoctorBetween(r.Context(), principal.ID, from, to)
	if err != nil {
		h.logError(w, "failed to list doctor day", err)
		return
	}
	writeAppointments(w, appts)
}

// SharedHistory handles GET /api/doctor/patients/{patientID}/history —
// only visits the acting doctor had with that patient.
func (h *Handler) SharedHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}

	appts, err := h.ledger.ListSharedHistory(r.Context(), principal.ID, patientID)
	if err != nil {
		h.logError(w, "failed to list shared history", err)
		return
	}
	writeAppointments(w, appts)
}

// ListAll handles GET /admin/appointments.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	appts, err := h.ledger.ListAll(r.Context())
	if err != nil {
		h.logError(w, "failed to list appointments", err)
		return
	}
	writeAppointments(w, appts)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrTerminalStatus):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("appointment operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) logError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func ownedBy(appt *Appointment, p identity.Principal) bool {
	switch p.Role {
	case identity.RolePatient:
		return appt.PatientID == p.ID
	case identity.RoleDoctor:
		return appt.DoctorID == p.ID
	}
	return false
}

func writeAppointments(w http.ResponseWriter, appts []*Appointment) {
	if appts == nil {
		appts = []*Appointment{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appts)
}
