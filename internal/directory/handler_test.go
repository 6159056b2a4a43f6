package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListDepartmentsEndpoint(t *testing.T) {
	registry := NewInMemoryRegistry()
	handler := NewHandler(registry, nil)
	_, err := registry.CreateDepartment(context.Background(), "Cardiology")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ListDepartments(w, httptest.NewRequest(http.MethodGet, "/api/departments", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var departments []Department
	require.NoError(t, json.NewDecoder(w.Body).Decode(&departments))
	require.Len(t, departments, 1)
	assert.Equal(t, "Cardiology", departments[0].Name)
}

func TestDoctorsByDepartmentEndpoint(t *testing.T) {
	registry := NewInMemoryRegistry()
	handler := NewHandler(registry, nil)
	dept, err := registry.CreateDepartment(context.Background(), "Cardiology")
	require.NoError(t, err)
	_, err = registry.CreateDoctor(context.Background(), "Greg House", "house@clinic.test", "", dept.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/departments/"+dept.ID.String()+"/doctors", nil)
	w := httptest.NewRecorder()
	handler.DoctorsByDepartment(w, withURLParam(req, "departmentID", dept.ID.String()))

	require.Equal(t, http.StatusOK, w.Code)

	var doctors []Doctor
	require.NoError(t, json.NewDecoder(w.Body).Decode(&doctors))
	require.Len(t, doctors, 1)
	assert.Equal(t, "Greg House", doctors[0].Name)
}

func TestDoctorsByDepartmentUnknown(t *testing.T) {
	handler := NewHandler(NewInMemoryRegistry(), nil)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/departments/"+id.String()+"/doctors", nil)
	w := httptest.NewRecorder()
	handler.DoctorsByDepartment(w, withURLParam(req, "departmentID", id.String()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDoctorEndpoint(t *testing.T) {
	registry := NewInMemoryRegistry()
	handler := NewHandler(registry, nil)
	dept, err := registry.CreateDepartment(context.Background(), "Cardiology")
	require.NoError(t, err)

	body, _ := json.Marshal(CreateDoctorRequest{
		Name:         "Greg House",
		Email:        "house@clinic.test",
		DepartmentID: dept.ID,
	})
	w := httptest.NewRecorder()
	handler.CreateDoctor(w, httptest.NewRequest(http.MethodPost, "/admin/doctors", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate email conflicts.
	w = httptest.NewRecorder()
	handler.CreateDoctor(w, httptest.NewRequest(http.MethodPost, "/admin/doctors", bytes.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateDoctorMissingFields(t *testing.T) {
	handler := NewHandler(NewInMemoryRegistry(), nil)

	body, _ := json.Marshal(CreateDoctorRequest{Phone: "555-0100"})
	w := httptest.NewRecorder()
	handler.CreateDoctor(w, httptest.NewRequest(http.MethodPost, "/admin/doctors", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveDoctorEndpoint(t *testing.T) {
	registry := NewInMemoryRegistry()
	handler := NewHandler(registry, nil)
	dept, err := registry.CreateDepartment(context.Background(), "Cardiology")
	require.NoError(t, err)
	doctor, err := registry.CreateDoctor(context.Background(), "Greg House", "house@clinic.test", "", dept.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/admin/doctors/"+doctor.ID.String(), nil)
	w := httptest.NewRecorder()
	handler.RemoveDoctor(w, withURLParam(req, "doctorID", doctor.ID.String()))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.RemoveDoctor(w, withURLParam(req, "doctorID", doctor.ID.String()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchPatientsEndpoint(t *testing.T) {
	registry := NewInMemoryRegistry()
	handler := NewHandler(registry, nil)
	_, err := registry.CreatePatient(context.Background(), "Pat Doe", "pat@home.test", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.SearchPatients(w, httptest.NewRequest(http.MethodGet, "/admin/patients?query=doe", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var patients []Patient
	require.NoError(t, json.NewDecoder(w.Body).Decode(&patients))
	require.Len(t, patients, 1)
	assert.Equal(t, "Pat Doe", patients[0].Name)

	w = httptest.NewRecorder()
	handler.SearchPatients(w, httptest.NewRequest(http.MethodGet, "/admin/patients?query=nobody", nil))
	assert.JSONEq(t, "[]", w.Body.String())
}
