package scheduling

import "errors"

var (
	// ErrInvalidDate reports a date that does not parse as YYYY-MM-DD.
	ErrInvalidDate = errors.New("scheduling: invalid date")
	// ErrInvalidSlot reports a requested time that is off the 30-minute
	// grid, outside the doctor's window, or not in the future.
	ErrInvalidSlot = errors.New("scheduling: slot not bookable")
)
