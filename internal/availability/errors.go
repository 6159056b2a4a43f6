package availability

import "errors"

var (
	// ErrInvalidRange is returned when a window's end is not after its start
	ErrInvalidRange = errors.New("availability window end must be after start")

	// ErrNoWindow is returned when a doctor has no window for the requested day
	ErrNoWindow = errors.New("no availability window for that day")
)
