package treatments

import (
	"time"

	"github.com/google/uuid"
)

// Treatment is the doctor's record for a completed appointment. Rows are
// immutable once written.
type Treatment struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Diagnosis     string    `json:"diagnosis"`
	Prescription  string    `json:"prescription"`
	CreatedAt     time.Time `json:"created_at"`
}
