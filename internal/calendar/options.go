package calendar

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"weekview/internal/dateutil"
	"weekview/internal/model"
	"weekview/internal/timeaxis"
)

// AvailableNumberOfDays lists the page widths the grid supports.
var AvailableNumberOfDays = []int{1, 3, 5, 7}

// Defaults applied by Options.withDefaults.
const (
	DefaultHoursInDisplay  = 6
	DefaultLocale          = dateutil.DefaultLocale
	DefaultContainerHeight = 600
)

var (
	ErrInvalidNumberOfDays = errors.New("calendar: numberOfDays must be one of 1, 3, 5, 7")
	ErrInvalidHours        = errors.New("calendar: hoursInDisplay must be at least 0.4 (one label per minute)")
	ErrInvalidStartHour    = errors.New("calendar: startHour must be within 0..23")
	ErrMissingSelectedDate = errors.New("calendar: selectedDate is required")
)

// Options is the configuration surface of one calendar instance.
type Options struct {
	NumberOfDays      int
	HoursInDisplay    float64
	StartHour         int
	Locale            string
	RightToLeft       bool
	PrependMostRecent bool
	FormatDateHeader  string

	// SelectedDate seeds the window and is the initial anchor moment.
	SelectedDate time.Time

	// ContainerHeight is the pixel (or cell) height of one screen of the
	// grid; event positions are expressed in the same unit.
	ContainerHeight float64

	OnSwipeNext      func(anchor time.Time)
	OnSwipePrevious  func(anchor time.Time)
	OnEventPress     func(ev model.Event)
	OnEventLongPress func(ev model.Event, pos timeaxis.Position)

	// Now returns the current time for "today" highlighting. Defaults to
	// time.Now.
	Now func() time.Time
}

// Validate rejects malformed options instead of coercing them.
func (o Options) Validate() error {
	if !slices.Contains(AvailableNumberOfDays, o.NumberOfDays) {
		return fmt.Errorf("%w: got %d", ErrInvalidNumberOfDays, o.NumberOfDays)
	}
	if !(o.HoursInDisplay >= timeaxis.MinHoursInDisplay) || math.IsInf(o.HoursInDisplay, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidHours, o.HoursInDisplay)
	}
	if o.StartHour < 0 || o.StartHour > 23 {
		return fmt.Errorf("%w: got %d", ErrInvalidStartHour, o.StartHour)
	}
	if o.SelectedDate.IsZero() {
		return ErrMissingSelectedDate
	}
	return nil
}

// Inverted reports whether the horizontal lists run from right to left.
// Most-recent-first paging and right-to-left layout cancel each other out.
func (o Options) Inverted() bool {
	return o.PrependMostRecent != o.RightToLeft
}

func (o Options) withDefaults() Options {
	if o.HoursInDisplay == 0 {
		o.HoursInDisplay = DefaultHoursInDisplay
	}
	if o.Locale == "" {
		o.Locale = DefaultLocale
	}
	if o.FormatDateHeader == "" {
		o.FormatDateHeader = dateutil.FormatMonthDay
	}
	if o.ContainerHeight <= 0 {
		o.ContainerHeight = DefaultContainerHeight
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
