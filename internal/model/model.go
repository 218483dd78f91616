package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when an event ends before it starts.
var ErrInvalidRange = errors.New("event end is before start")

// Event is a single calendar entry as handed to the week view. Recurring
// sources (ICS) are expanded before they reach this type, so every Event is
// one concrete interval.
//
// Events are treated as immutable input: the partitioner copies them when
// it slices multi-day spans and never writes back into the caller's slice.
type Event struct {
	// ID identifies the event for callbacks. For ICS-backed events this is
	// the UID plus an instance suffix.
	ID string

	Name        string
	Description string
	Location    string
	Color       string

	AllDay bool

	Start time.Time
	End   time.Time

	SourceID string // calendar source ID (e.g., config ICS ID)
	UID      string // iCalendar UID, empty for hand-made events
}

// Validate reports whether the event's interval is well formed.
func (e Event) Validate() error {
	if e.End.Before(e.Start) {
		return fmt.Errorf("event %q: %w", e.ID, ErrInvalidRange)
	}
	return nil
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ValidateEvents returns the first malformed event's error, if any.
func ValidateEvents(events []Event) error {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
