package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carelane/hospital-platform/internal/identity"
	"github.com/carelane/hospital-platform/pkg/logging"
)

// Handler handles HTTP requests for a doctor's own weekly schedule.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new availability handler
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// UpsertWindowRequest is the body of PUT /api/doctor/availability.
type UpsertWindowRequest struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// UpsertWindow handles PUT /api/doctor/availability. The acting doctor comes
// from the request principal, never from the payload.
func (h *Handler) UpsertWindow(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	var req UpsertWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	day, err := ParseWeekday(req.Day)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, err := ParseTimeOfDay(req.Start)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := ParseTimeOfDay(req.End)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	window, err := h.store.Upsert(r.Context(), principal.ID, day, start, end)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to upsert availability", "error", err, "doctor_id", principal.ID)
		http.Error(w, "failed to update availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability updated", "doctor_id", principal.ID, "day", day.String())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(window)
}

// ListWindows handles GET /api/doctor/availability.
func (h *Handler) ListWindows(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	windows, err := h.store.ListForDoctor(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("failed to list availability", "error", err, "doctor_id", principal.ID)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}
	if windows == nil {
		windows = []*Window{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(windows)
}
