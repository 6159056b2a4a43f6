package appointments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/hospital-platform/internal/identity"
	"github.com/carelane/hospital-platform/pkg/logging"
)

func requestWithPrincipal(req *http.Request, p identity.Principal, params map[string]string) *http.Request {
	ctx := identity.WithPrincipal(req.Context(), p)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestCancelByOwningPatient(t *testing.T) {
	ledger := NewInMemoryLedger()
	handler := NewHandler(ledger, time.UTC, logging.Default())
	patientID := uuid.New()

	appt, err := ledger.Create(context.Background(), patientID, uuid.New(), time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: patientID, Role: identity.RolePatient},
		map[string]string{"appointmentID": appt.ID.String()})
	w := httptest.NewRecorder()

	handler.Cancel(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := ledger.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestCancelByStranger(t *testing.T) {
	ledger := NewInMemoryLedger()
	handler := NewHandler(ledger, time.UTC, logging.Default())

	appt, err := ledger.Create(context.Background(), uuid.New(), uuid.New(), time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: uuid.New(), Role: identity.RolePatient},
		map[string]string{"appointmentID": appt.ID.String()})
	w := httptest.NewRecorder()

	handler.Cancel(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelTwiceConflicts(t *testing.T) {
	ledger := NewInMemoryLedger()
	handler := NewHandler(ledger, time.UTC, logging.Default())
	patientID := uuid.New()

	appt, err := ledger.Create(context.Background(), patientID, uuid.New(), time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)
	_, err = ledger.SetStatus(context.Background(), appt.ID, StatusCancelled)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: patientID, Role: identity.RolePatient},
		map[string]string{"appointmentID": appt.ID.String()})
	w := httptest.NewRecorder()

	handler.Cancel(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelUnknownAppointment(t *testing.T) {
	handler := NewHandler(NewInMemoryLedger(), time.UTC, logging.Default())
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+id.String()+"/cancel", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: uuid.New(), Role: identity.RolePatient},
		map[string]string{"appointmentID": id.String()})
	w := httptest.NewRecorder()

	handler.Cancel(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatusByOwningDoctor(t *testing.T) {
	ledger := NewInMemoryLedger()
	handler := NewHandler(ledger, time.UTC, logging.Default())
	doctorID := uuid.New()

	appt, err := ledger.Create(context.Background(), uuid.New(), doctorID, time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)

	body, _ := json.Marshal(UpdateStatusRequest{Status: StatusCompleted})
	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+appt.ID.String()+"/status", bytes.NewReader(body))
	req = requestWithPrincipal(req, identity.Principal{ID: doctorID, Role: identity.RoleDoctor},
		map[string]string{"appointmentID": appt.ID.String()})
	w := httptest.NewRecorder()

	handler.UpdateStatus(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := ledger.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	ledger := NewInMemoryLedger()
	handler := NewHandler(ledger, time.UTC, logging.Default())
	doctorID := uuid.New()

	appt, err := ledger.Create(context.Background(), uuid.New(), doctorID, time.Now().Add(time.Hour).UTC())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+appt.ID.String()+"/status",
		bytes.NewReader([]byte(`{"status":"Rescheduled"}`)))
	req = requestWithPrincipal(req, identity.Principal{ID: doctorID, Role: identity.RoleDoctor},
		map[string]string{"appointmentID": appt.ID.String()})
	w := httptest.NewRecorder()

	handler.UpdateStatus(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDoctorDayInvalidDate(t *testing.T) {
	handler := NewHandler(NewInMemoryLedger(), time.UTC, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/doctor/appointments?date=junk", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: uuid.New(), Role: identity.RoleDoctor}, nil)
	w := httptest.NewRecorder()

	handler.DoctorDay(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDoctorDayListsOnlyThatDate(t *testing.T) {
	ledger := NewInMemoryLedger()
	handler := NewHandler(ledger, time.UTC, logging.Default())
	doctorID := uuid.New()
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	_, err := ledger.Create(context.Background(), uuid.New(), doctorID, day.Add(9*time.Hour))
	require.NoError(t, err)
	_, err = ledger.Create(context.Background(), uuid.New(), doctorID, day.Add(33*time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/doctor/appointments?date=2025-06-02", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: doctorID, Role: identity.RoleDoctor}, nil)
	w := httptest.NewRecorder()

	handler.DoctorDay(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []Appointment
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, day.Add(9*time.Hour).Unix(), got[0].ScheduledAt.Unix())
}

func TestListUpcomingEmptyIsJSONArray(t *testing.T) {
	handler := NewHandler(NewInMemoryLedger(), time.UTC, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/patient/appointments", nil)
	req = requestWithPrincipal(req, identity.Principal{ID: uuid.New(), Role: identity.RolePatient}, nil)
	w := httptest.NewRecorder()

	handler.ListUpcoming(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
