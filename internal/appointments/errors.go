package appointments

import "errors"

var (
	// ErrSlotTaken is returned when a non-cancelled appointment already
	// occupies the (doctor, timestamp) pair
	ErrSlotTaken = errors.New("slot already taken")

	// ErrNotFound is returned when the appointment does not exist
	ErrNotFound = errors.New("appointment not found")

	// ErrTerminalStatus is returned on attempts to transition a Completed or
	// Cancelled appointment
	ErrTerminalStatus = errors.New("appointment is in a terminal status")

	// ErrNotOwner is returned when the acting principal does not own the
	// appointment
	ErrNotOwner = errors.New("appointment belongs to another user")

	// ErrInvalidStatus is returned for unknown status values
	ErrInvalidStatus = errors.New("invalid appointment status")
)
