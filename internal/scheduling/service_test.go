package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/hospital-platform/internal/appointments"
	"github.com/carelane/hospital-platform/internal/availability"
)

// monday is 2025-06-02, a Monday.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *availability.InMemoryStore, *appointments.InMemoryLedger) {
	t.Helper()
	windows := availability.NewInMemoryStore()
	ledger := appointments.NewInMemoryLedger()
	svc := NewService(windows, ledger, nil, time.UTC, nil, nil)
	return svc, windows, ledger
}

func setWindow(t *testing.T, windows *availability.InMemoryStore, doctorID uuid.UUID, day time.Weekday, start, end string) {
	t.Helper()
	s, err := availability.ParseTimeOfDay(start)
	require.NoError(t, err)
	e, err := availability.ParseTimeOfDay(end)
	require.NoError(t, err)
	_, err = windows.Upsert(context.Background(), doctorID, day, s, e)
	require.NoError(t, err)
}

func TestAvailableSlotsMondayScenario(t *testing.T) {
	svc, windows, ledger := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "10:00")

	// 09:00 is already booked; the query runs at 08:00 that morning.
	_, err := ledger.Create(context.Background(), uuid.New(), doctorID, monday.Add(9*time.Hour))
	require.NoError(t, err)
	svc.now = func() time.Time { return monday.Add(8 * time.Hour) }

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:30"}, slots)

	appt, err := svc.Book(context.Background(), uuid.New(), doctorID, monday, "09:30")
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusBooked, appt.Status)

	_, err = svc.Book(context.Background(), uuid.New(), doctorID, monday, "09:30")
	assert.ErrorIs(t, err, appointments.ErrSlotTaken)
}

func TestAvailableSlotsNoWindowDay(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.now = func() time.Time { return monday }

	slots, err := svc.AvailableSlots(context.Background(), uuid.New(), monday)
	require.NoError(t, err)
	assert.Equal(t, []string{}, slots)
}

func TestAvailableSlotsExcludesPast(t *testing.T) {
	svc, windows, _ := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "11:00")

	// 10:00 sharp: slots at or before now are never offered.
	svc.now = func() time.Time { return monday.Add(10 * time.Hour) }

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:30"}, slots)
}

func TestAvailableSlotsWholePastDay(t *testing.T) {
	svc, windows, _ := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "17:00")
	svc.now = func() time.Time { return monday.AddDate(0, 0, 2) }

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsCancelledAppointmentFreesSlot(t *testing.T) {
	svc, windows, ledger := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "10:00")
	svc.now = func() time.Time { return monday.Add(8 * time.Hour) }

	appt, err := ledger.Create(context.Background(), uuid.New(), doctorID, monday.Add(9*time.Hour))
	require.NoError(t, err)
	_, err = ledger.SetStatus(context.Background(), appt.ID, appointments.StatusCancelled)
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
}

func TestBookRejectsOffGridTime(t *testing.T) {
	svc, windows, _ := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "17:00")
	svc.now = func() time.Time { return monday }

	_, err := svc.Book(context.Background(), uuid.New(), doctorID, monday, "09:15")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookRejectsOutsideWindow(t *testing.T) {
	svc, windows, _ := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "17:00")
	svc.now = func() time.Time { return monday }

	for _, slot := range []string{"08:30", "17:00", "17:30"} {
		_, err := svc.Book(context.Background(), uuid.New(), doctorID, monday, slot)
		assert.ErrorIs(t, err, ErrInvalidSlot, "slot %s", slot)
	}
}

func TestBookRejectsPastSlot(t *testing.T) {
	svc, windows, _ := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "17:00")
	svc.now = func() time.Time { return monday.Add(12 * time.Hour) }

	_, err := svc.Book(context.Background(), uuid.New(), doctorID, monday, "10:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookRejectsNoWindowDay(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.now = func() time.Time { return monday }

	_, err := svc.Book(context.Background(), uuid.New(), uuid.New(), monday, "09:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestBookedSlotIsBookableImmediatelyAfterPreview(t *testing.T) {
	svc, windows, _ := newTestService(t)
	doctorID := uuid.New()
	setWindow(t, windows, doctorID, time.Monday, "09:00", "10:00")
	svc.now = func() time.Time { return monday.Add(8 * time.Hour) }

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	for _, slot := range slots {
		_, err := svc.Book(context.Background(), uuid.New(), doctorID, monday, slot)
		assert.NoError(t, err, "slot %s was previewed as available", slot)
	}
}

func TestParseDate(t *testing.T) {
	svc, _, _ := newTestService(t)

	date, err := svc.ParseDate("2025-06-02")
	require.NoError(t, err)
	assert.True(t, date.Equal(monday))

	_, err = svc.ParseDate("06/02/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = svc.ParseDate("")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
