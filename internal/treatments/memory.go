package treatments

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/hospital-platform/internal/appointments"
)

// InMemoryRecorder is the test double for Recorder. It leans on an
// appointment ledger for ownership and status checks, mirroring the
// transactional Postgres behavior under a mutex.
type InMemoryRecorder struct {
	mu            sync.Mutex
	ledger        appointments.Ledger
	byAppointment map[uuid.UUID]*Treatment
}

func NewInMemoryRecorder(ledger appointments.Ledger) *InMemoryRecorder {
	return &InMemoryRecorder{
		ledger:        ledger,
		byAppointment: make(map[uuid.UUID]*Treatment),
	}
}

func (r *InMemoryRecorder) Create(ctx context.Context, appointmentID, doctorID uuid.UUID, diagnosis, prescription string) (*Treatment, error) {
	if diagnosis == "" {
		return nil, ErrEmptyDiagnosis
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	appt, err := r.ledger.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, appointments.ErrNotOwner
	}
	if appt.Status == appointments.StatusCancelled {
		return nil, appointments.ErrTerminalStatus
	}
	if _, exists := r.byAppointment[appointmentID]; exists {
		return nil, ErrAlreadyRecorded
	}

	if _, err := r.ledger.SetStatus(ctx, appointmentID, appointments.StatusCompleted); err != nil {
		return nil, err
	}
	treatment := &Treatment{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Prescription:  prescription,
		CreatedAt:     time.Now().UTC(),
	}
	r.byAppointment[appointmentID] = treatment
	return treatment, nil
}

func (r *InMemoryRecorder) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Treatment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	treatment, ok := r.byAppointment[appointmentID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *treatment
	return &copied, nil
}
