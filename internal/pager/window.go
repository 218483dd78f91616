package pager

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"weekview/internal/dateutil"
)

// PageOffset is the number of pages buffered on each side of the anchor page
// when a window is seeded.
const PageOffset = 2

// MinPages is the size of a freshly seeded window. A window never shrinks
// below it.
const MinPages = 2*PageOffset + 1

// ErrIndexOutOfRange is returned by AdvanceTo for an index outside the window.
var ErrIndexOutOfRange = errors.New("pager: page index out of range")

// Window is the ordered buffer of materialized page keys plus the index of
// the page currently on screen.
//
// Keys are date keys spaced numberOfDays apart. In the default order they
// ascend; with mostRecentFirst they descend. Either way the keys stay unique
// and contiguous, and the window only ever grows.
type Window struct {
	keys            []string
	current         int
	numberOfDays    int
	mostRecentFirst bool
}

// Seed builds the initial window of MinPages keys centered on anchor.
func Seed(anchor time.Time, numberOfDays int, mostRecentFirst bool) (*Window, error) {
	if numberOfDays <= 0 {
		return nil, fmt.Errorf("pager: numberOfDays must be positive, got %d", numberOfDays)
	}

	// Key arithmetic runs on dates, so DST gaps in anchor's zone cannot
	// shift a page by a day.
	anchorKey := dateutil.Key(anchor)
	keys := make([]string, 0, MinPages)
	for i := -PageOffset; i <= PageOffset; i++ {
		key, err := dateutil.AddDaysKey(anchorKey, numberOfDays*i)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if mostRecentFirst {
		slices.Reverse(keys)
	}

	return &Window{
		keys:            keys,
		current:         PageOffset,
		numberOfDays:    numberOfDays,
		mostRecentFirst: mostRecentFirst,
	}, nil
}

// step is the signed day distance from one page to the next in page order.
func (w *Window) step() int {
	if w.mostRecentFirst {
		return -w.numberOfDays
	}
	return w.numberOfDays
}

// GrowBackward prepends the key that precedes the first page and returns it.
// The current index is not touched; callers compensate for the shift.
func (w *Window) GrowBackward() string {
	key := w.shift(w.keys[0], -w.step())
	w.keys = slices.Insert(w.keys, 0, key)
	return key
}

// GrowForward appends the key that follows the last page and returns it.
func (w *Window) GrowForward() string {
	key := w.shift(w.keys[len(w.keys)-1], w.step())
	w.keys = append(w.keys, key)
	return key
}

func (w *Window) shift(key string, days int) string {
	// Keys are produced by Seed/Grow* so they always parse.
	next, err := dateutil.AddDaysKey(key, days)
	if err != nil {
		panic(err)
	}
	return next
}

// AdvanceTo moves the current page.
func (w *Window) AdvanceTo(index int) error {
	if index < 0 || index >= len(w.keys) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, len(w.keys))
	}
	w.current = index
	return nil
}

// Keys returns a copy of the page keys in page order.
func (w *Window) Keys() []string {
	return slices.Clone(w.keys)
}

func (w *Window) Len() int { return len(w.keys) }

func (w *Window) Current() int { return w.current }

func (w *Window) CurrentKey() string { return w.keys[w.current] }

func (w *Window) NumberOfDays() int { return w.numberOfDays }

func (w *Window) MostRecentFirst() bool { return w.mostRecentFirst }

// Key returns the key at index i, or "" when i is out of range.
func (w *Window) Key(i int) string {
	if i < 0 || i >= len(w.keys) {
		return ""
	}
	return w.keys[i]
}

// IndexOf returns the index of key, or -1.
func (w *Window) IndexOf(key string) int {
	return slices.Index(w.keys, key)
}

// Days returns the day keys covered by page i in chronological order.
func (w *Window) Days(i int) []string {
	key := w.Key(i)
	if key == "" {
		return nil
	}
	days, err := dateutil.DaysOfPage(key, w.numberOfDays, false)
	if err != nil {
		return nil
	}
	return days
}
