package scheduling

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

// Handler serves the slot preview and booking endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("scheduling: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// ListSlots handles GET /api/doctors/{doctorID}/slots?date=YYYY-MM-DD.
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	date, err := h.service.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		h.logger.Error("slot query failed", "doctor_id", doctorID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(slots)
}

// BookRequest is the body of POST /api/appointments.
type BookRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
}

// Book handles POST /api/appointments for the authenticated patient.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DoctorID == uuid.Nil {
		http.Error(w, "doctor_id is required", http.StatusBadRequest)
		return
	}
	date, err := h.service.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Book(r.Context(), principal.ID, req.DoctorID, date, req.Time)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrInvalidDate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, appointments.ErrSlotTaken):
		http.Error(w, "slot taken", http.StatusConflict)
	default:
		h.logger.Error("booking failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
