package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelane/hospital-platform/pkg/logging"
)

// Handler serves the directory endpoints: the public lookups used by the
// booking flow and the admin management surface.
type Handler struct {
	registry Registry
	logger   *logging.Logger
}

func NewHandler(registry Registry, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// ListDepartments handles GET /api/departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.registry.ListDepartments(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if departments == nil {
		departments = []*Department{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(departments)
}

// DoctorsByDepartment handles GET /api/departments/{departmentID}/doctors.
func (h *Handler) DoctorsByDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		http.Error(w, "invalid department id", http.StatusBadRequest)
		return
	}
	doctors, err := h.registry.DoctorsByDepartment(r.Context(), departmentID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctors)
}

// CreateDepartmentRequest is the body of POST /admin/departments.
type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	department, err := h.registry.CreateDepartment(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(department)
}

// CreateDoctorRequest is the body of POST /admin/doctors.
type CreateDoctorRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DepartmentID uuid.UUID `json:"department_id"`
}

func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	doctor, err := h.registry.CreateDoctor(r.Context(), req.Name, req.Email, req.Phone, req.DepartmentID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("doctor registered", "doctor_id", doctor.ID, "department_id", doctor.DepartmentID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doctor)
}

// CreatePatientRequest is the body of POST /admin/patients.
type CreatePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	patient, err := h.registry.CreatePatient(r.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(patient)
}

// SearchDoctors handles GET /admin/doctors?query=.
func (h *Handler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.registry.SearchDoctors(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if doctors == nil {
		doctors = []*Doctor{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doctors)
}

// SearchPatients handles GET /admin/patients?query=.
func (h *Handler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.registry.SearchPatients(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if patients == nil {
		patients = []*Patient{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(patients)
}

// RemoveDoctor handles DELETE /admin/doctors/{doctorID}.
func (h *Handler) RemoveDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "doctorID"))
	if err != nil {
		http.Error(w, "invalid doctor id", http.StatusBadRequest)
		return
	}
	if err := h.registry.RemoveDoctor(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("doctor removed", "doctor_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// RemovePatient handles DELETE /admin/patients/{patientID}.
func (h *Handler) RemovePatient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "patientID"))
	if err != nil {
		http.Error(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	if err := h.registry.RemovePatient(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("patient removed", "patient_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingField):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDepartmentNotFound),
		errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicateEmail):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("directory request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
