package directory

import "github.com/google/uuid"

// Department groups doctors by specialty.
type Department struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Doctor is a bookable practitioner attached to a department.
type Doctor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DepartmentID uuid.UUID `json:"department_id"`
}

// Patient is a registered patient.
type Patient struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
}
