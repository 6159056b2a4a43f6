package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type slotKey struct {
	doctorID uuid.UUID
	at       int64 // unix seconds
}

// InMemoryLedger is a Ledger backed by maps. The mutex serializes
// check-then-insert so the no-double-booking invariant holds under
// concurrent Create calls, mirroring the partial unique index in Postgres.
type InMemoryLedger struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Appointment
	occupied map[slotKey]uuid.UUID // non-cancelled appointments only
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		byID:     make(map[uuid.UUID]*Appointment),
		occupied: make(map[slotKey]uuid.UUID),
	}
}

func key(doctorID uuid.UUID, at time.Time) slotKey {
	return slotKey{doctorID: doctorID, at: at.Unix()}
}

func (l *InMemoryLedger) FindConflict(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.occupied[key(doctorID, at)]
	return ok, nil
}

func (l *InMemoryLedger) Create(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(doctorID, at)
	if _, taken := l.occupied[k]; taken {
		return nil, ErrSlotTaken
	}

	appt := &Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Status:      StatusBooked,
		CreatedAt:   time.Now().UTC(),
	}
	l.byID[appt.ID] = appt
	l.occupied[k] = appt.ID
	return copyOf(appt), nil
}

func (l *InMemoryLedger) BookedTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var times []time.Time
	for _, appt := range l.byID {
		if appt.DoctorID != doctorID || appt.Status == StatusCancelled {
			continue
		}
		if appt.ScheduledAt.Before(from) || !appt.ScheduledAt.Before(to) {
			continue
		}
		times = append(times, appt.ScheduledAt)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times, nil
}

func (l *InMemoryLedger) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	appt, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOf(appt), nil
}

func (l *InMemoryLedger) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	appt, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if appt.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	appt.Status = status
	if status == StatusCancelled {
		// Cancelled rows release the slot for rebooking.
		delete(l.occupied, key(appt.DoctorID, appt.ScheduledAt))
	}
	return copyOf(appt), nil
}

func (l *InMemoryLedger) ListForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return l.collect(func(a *Appointment) bool {
		return a.DoctorID == doctorID && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to)
	}, true), nil
}

func (l *InMemoryLedger) ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID, now time.Time) ([]*Appointment, error) {
	return l.collect(func(a *Appointment) bool {
		return a.PatientID == patientID && !a.ScheduledAt.Before(now)
	}, true), nil
}

func (l *InMemoryLedger) ListHistoryForPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return l.collect(func(a *Appointment) bool {
		return a.PatientID == patientID
	}, false), nil
}

func (l *InMemoryLedger) ListSharedHistory(ctx context.Context, doctorID, patientID uuid.UUID) ([]*Appointment, error) {
	return l.collect(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.PatientID == patientID
	}, false), nil
}

func (l *InMemoryLedger) ListAll(ctx context.Context) ([]*Appointment, error) {
	return l.collect(func(*Appointment) bool { return true }, false), nil
}

// collect returns matching appointments ordered by time, ascending or
// descending.
func (l *InMemoryLedger) collect(match func(*Appointment) bool, ascending bool) []*Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var appts []*Appointment
	for _, appt := range l.byID {
		if match(appt) {
			appts = append(appts, copyOf(appt))
		}
	}
	sort.Slice(appts, func(i, j int) bool {
		if ascending {
			return appts[i].ScheduledAt.Before(appts[j].ScheduledAt)
		}
		return appts[j].ScheduledAt.Before(appts[i].ScheduledAt)
	})
	return appts
}

func copyOf(a *Appointment) *Appointment {
	copied := *a
	return &copied
}
