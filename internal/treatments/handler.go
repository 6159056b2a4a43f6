package treatments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelane/hospital-platform/internal/appointments"
	"github.com/carelane/hospital-platform/internal/identity"
	"github.com/carelane/hospital-platform/pkg/logging"
)

// Handler serves treatment recording and lookup.
type Handler struct {
	recorder Recorder
	logger   *logging.Logger
}

func NewHandler(recorder Recorder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{recorder: recorder, logger: logger}
}

// CreateRequest is the body of POST /api/appointments/{appointmentID}/treatment.
type CreateRequest struct {
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
}

// Create records a treatment for the appointment and marks it Completed.
// Doctor-only; the acting doctor must own the appointment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}
	appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	treatment, err := h.recorder.Create(r.Context(), appointmentID, principal.ID, req.Diagnosis, req.Prescription)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("treatment recorded",
		"treatment_id", treatment.ID,
		"appointment_id", appointmentID,
		"doctor_id", principal.ID,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(treatment)
}

// GetByAppointment handles GET /api/appointments/{appointmentID}/treatment.
func (h *Handler) GetByAppointment(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	treatment, err := h.recorder.GetByAppointment(r.Context(), appointmentID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(treatment)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyDiagnosis):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, appointments.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, appointments.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrAlreadyRecorded), errors.Is(err, appointments.ErrTerminalStatus):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("treatment request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
