package directory

import "errors"

var (
	ErrDepartmentNotFound = errors.New("directory: department not found")
	ErrDoctorNotFound     = errors.New("directory: doctor not found")
	ErrPatientNotFound    = errors.New("directory: patient not found")
	// ErrDuplicateEmail reports a doctor or patient email already in use.
	ErrDuplicateEmail = errors.New("directory: email already registered")
	// ErrMissingField rejects a create call with an empty name or email.
	ErrMissingField = errors.New("directory: name and email are required")
)
