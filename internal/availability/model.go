// Package availability stores each doctor's recurring weekly open-hours
// window, one row per (doctor, day-of-week).
package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a local clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("availability: invalid time %q", s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// At anchors the clock time on a calendar date in loc.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// Window is one doctor's open-hours range for a single weekday.
type Window struct {
	DoctorID uuid.UUID    `json:"doctor_id"`
	Day      time.Weekday `json:"-"`
	Start    TimeOfDay    `json:"-"`
	End      TimeOfDay    `json:"-"`
}

// windowJSON is the wire shape ("Monday", "09:00").
type windowJSON struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Day      string    `json:"day"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{
		DoctorID: w.DoctorID,
		Day:      w.Day.String(),
		Start:    w.Start.String(),
		End:      w.End.String(),
	})
}

// ParseWeekday maps a full English day name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("availability: invalid day of week %q", name)
}
