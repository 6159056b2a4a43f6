package treatments

import "errors"

var (
	// ErrAlreadyRecorded reports a second treatment for the same appointment.
	ErrAlreadyRecorded = errors.New("treatments: treatment already recorded")
	// ErrNotFound reports a missing treatment row.
	ErrNotFound = errors.New("treatments: treatment not found")
	// ErrEmptyDiagnosis rejects a treatment with no diagnosis text.
	ErrEmptyDiagnosis = errors.New("treatments: diagnosis is required")
)
