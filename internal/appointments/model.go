// Package appointments is the ledger of scheduled consultations. Uniqueness
// of (doctor, timestamp) across non-cancelled rows is the invariant every
// other scheduling component leans on.
package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusBooked    Status = "Booked"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment represents one scheduled consultation.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
