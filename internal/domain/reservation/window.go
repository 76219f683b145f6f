package reservation

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidWindow = errors.New("window start must be before end")

// TimeWindow is a half-open interval [start, end). Only some resource kinds
// occupy a window; reservations without one skip overlap checking entirely.
type TimeWindow struct {
	start time.Time
	end   time.Time
}

func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, ErrInvalidWindow
	}
	return TimeWindow{start: start, end: end}, nil
}

func (w TimeWindow) Start() time.Time {
	return w.start
}

func (w TimeWindow) End() time.Time {
	return w.end
}

// Overlaps implements the half-open rule: two windows conflict iff
// a.start < b.end && a.end > b.start. Back-to-back windows do not conflict.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.start.Before(other.end) && w.end.After(other.start)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s,%s)", w.start.Format(time.RFC3339), w.end.Format(time.RFC3339))
}
