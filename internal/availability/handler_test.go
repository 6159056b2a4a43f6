package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/hospital-platform/internal/identity"
	"github.com/carelane/hospital-platform/pkg/logging"
)

func doctorRequest(t *testing.T, method, target string, body any, doctorID uuid.UUID) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := identity.WithPrincipal(req.Context(), identity.Principal{ID: doctorID, Role: identity.RoleDoctor})
	return req.WithContext(ctx)
}

func TestUpsertWindowSuccess(t *testing.T) {
	store := NewInMemoryStore()
	handler := NewHandler(store, logging.Default())
	doctorID := uuid.New()

	req := doctorRequest(t, http.MethodPut, "/api/doctor/availability", UpsertWindowRequest{
		Day:   "Monday",
		Start: "09:00",
		End:   "17:00",
	}, doctorID)
	w := httptest.NewRecorder()

	handler.UpsertWindow(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := store.Get(req.Context(), doctorID, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, "09:00", stored.Start.String())
}

func TestUpsertWindowInvalidRange(t *testing.T) {
	handler := NewHandler(NewInMemoryStore(), logging.Default())

	req := doctorRequest(t, http.MethodPut, "/api/doctor/availability", UpsertWindowRequest{
		Day:   "Monday",
		Start: "17:00",
		End:   "09:00",
	}, uuid.New())
	w := httptest.NewRecorder()

	handler.UpsertWindow(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertWindowBadDay(t *testing.T) {
	handler := NewHandler(NewInMemoryStore(), logging.Default())

	req := doctorRequest(t, http.MethodPut, "/api/doctor/availability", UpsertWindowRequest{
		Day:   "Caturday",
		Start: "09:00",
		End:   "17:00",
	}, uuid.New())
	w := httptest.NewRecorder()

	handler.UpsertWindow(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertWindowMissingPrincipal(t *testing.T) {
	handler := NewHandler(NewInMemoryStore(), logging.Default())

	req := httptest.NewRequest(http.MethodPut, "/api/doctor/availability", bytes.NewReader(nil))
	w := httptest.NewRecorder()

	handler.UpsertWindow(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListWindows(t *testing.T) {
	store := NewInMemoryStore()
	handler := NewHandler(store, logging.Default())
	doctorID := uuid.New()

	_, err := store.Upsert(context.Background(), doctorID, time.Monday, TimeOfDay(9*60), TimeOfDay(17*60))
	require.NoError(t, err)

	req := doctorRequest(t, http.MethodGet, "/api/doctor/availability", nil, doctorID)
	w := httptest.NewRecorder()

	handler.ListWindows(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Monday", got[0]["day"])
}

func TestListWindowsEmpty(t *testing.T) {
	handler := NewHandler(NewInMemoryStore(), logging.Default())

	req := doctorRequest(t, http.MethodGet, "/api/doctor/availability", nil, uuid.New())
	w := httptest.NewRecorder()

	handler.ListWindows(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
