package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryUpsertIsIdempotent(t *testing.T) {
	store := NewInMemoryStore()
	doctorID := uuid.New()
	ctx := context.Background()

	_, err := store.Upsert(ctx, doctorID, time.Monday, TimeOfDay(9*60), TimeOfDay(17*60))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, doctorID, time.Monday, TimeOfDay(9*60), TimeOfDay(17*60))
	require.NoError(t, err)

	windows, err := store.ListForDoctor(ctx, doctorID)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, time.Monday, windows[0].Day)
	assert.Equal(t, "09:00", windows[0].Start.String())
	assert.Equal(t, "17:00", windows[0].End.String())
}

func TestInMemoryUpsertReplaces(t *testing.T) {
	store := NewInMemoryStore()
	doctorID := uuid.New()
	ctx := context.Background()

	_, err := store.Upsert(ctx, doctorID, time.Friday, TimeOfDay(9*60), TimeOfDay(17*60))
	require.NoError(t, err)
	_, err = store.Upsert(ctx, doctorID, time.Friday, TimeOfDay(10*60), TimeOfDay(14*60))
	require.NoError(t, err)

	w, err := store.Get(ctx, doctorID, time.Friday)
	require.NoError(t, err)
	assert.Equal(t, "10:00", w.Start.String())
	assert.Equal(t, "14:00", w.End.String())
}

func TestInMemoryUpsertRejectsInvalidRange(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Upsert(context.Background(), uuid.New(), time.Monday, TimeOfDay(17*60), TimeOfDay(9*60))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = store.Upsert(context.Background(), uuid.New(), time.Monday, TimeOfDay(9*60), TimeOfDay(9*60))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestInMemoryGetMissingDay(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), uuid.New(), time.Sunday)
	assert.ErrorIs(t, err, ErrNoWindow)
}

func TestInMemoryListOrdersByWeekday(t *testing.T) {
	store := NewInMemoryStore()
	doctorID := uuid.New()
	ctx := context.Background()

	for _, d := range []time.Weekday{time.Wednesday, time.Monday, time.Friday} {
		_, err := store.Upsert(ctx, doctorID, d, TimeOfDay(9*60), TimeOfDay(12*60))
		require.NoError(t, err)
	}

	windows, err := store.ListForDoctor(ctx, doctorID)
	require.NoError(t, err)
	require.Len(t, windows, 3)
	assert.Equal(t, time.Monday, windows[0].Day)
	assert.Equal(t, time.Wednesday, windows[1].Day)
	assert.Equal(t, time.Friday, windows[2].Day)
}
