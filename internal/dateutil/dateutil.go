package dateutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// KeyLayout is the canonical date key format used for page keys and day
// buckets ("YYYY-MM-DD").
const KeyLayout = "2006-01-02"

// Key returns the canonical date key for t in t's own location.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// ParseKey parses a date key into the start of that day in loc. A nil loc
// means time.Local.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if key == "" {
		return time.Time{}, errors.New("dateutil: empty date key")
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.Parse(KeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateutil: bad date key %q: %w", key, err)
	}
	return StartOfDay(Noon(d.Year(), d.Month(), d.Day(), loc)), nil
}

// Noon returns 12:00 of the given date in loc. Out-of-range days normalize
// the way time.Date does. Noon exists on every calendar day, so stepping
// noons never skips or repeats a date around DST changes.
func Noon(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, loc)
}

// NoonOf returns 12:00 of t's day in t's location.
func NoonOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Noon(y, m, d, t.Location())
}

// MustParseKey is ParseKey for keys produced by this package.
func MustParseKey(key string, loc *time.Location) time.Time {
	t, err := ParseKey(key, loc)
	if err != nil {
		panic(err)
	}
	return t
}

// StartOfDay returns the first instant of t's day in t's location. That is
// 00:00 except where a DST change skips midnight (e.g. America/Santiago),
// in which case it is the transition instant.
func StartOfDay(t time.Time) time.Time {
	start := now.With(t).BeginningOfDay()
	if SameDay(start, t) {
		return start
	}
	// Midnight fell in the gap and was normalized into the previous day.
	if _, end := start.ZoneBounds(); end.After(start) && SameDay(end, t) {
		return end
	}
	return start
}

// EndOfDay returns the last representable instant of t's day in t's
// location (23:59:59.999999999).
func EndOfDay(t time.Time) time.Time {
	return now.With(t).EndOfDay()
}

// AddDays moves t by n calendar days, keeping the wall clock. Unlike
// t.Add(n*24h) this stays on the same wall time across DST changes. A start
// of day maps to the start of the target day, and a wall clock that does not
// exist on the target day never lands on a neighbouring date.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := Noon(y, m, d+n, t.Location())
	if t.Equal(StartOfDay(t)) {
		return StartOfDay(target)
	}
	out := time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if !SameDay(out, target) {
		return StartOfDay(target)
	}
	return out
}

// AddDaysKey shifts a date key by n days.
func AddDaysKey(key string, n int) (string, error) {
	t, err := ParseKey(key, time.UTC)
	if err != nil {
		return "", err
	}
	return Key(AddDays(t, n)), nil
}

// SameDay reports whether a and b fall on the same calendar day, comparing
// b in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a's day to b's day
// (negative when b is earlier). b is compared in a's location.
func DaysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	// Noon UTC avoids DST edges when counting whole days.
	da := time.Date(ay, am, ad, 12, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 12, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DaysOfPage lists the day keys covered by the page anchored at key. With
// rightToLeft the columns come out in reverse order.
func DaysOfPage(key string, numberOfDays int, rightToLeft bool) ([]string, error) {
	start, err := ParseKey(key, time.UTC)
	if err != nil {
		return nil, err
	}
	if numberOfDays <= 0 {
		return nil, fmt.Errorf("dateutil: numberOfDays must be positive, got %d", numberOfDays)
	}
	days := make([]string, 0, numberOfDays)
	for i := 0; i < numberOfDays; i++ {
		days = append(days, Key(AddDays(start, i)))
	}
	if rightToLeft {
		for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
			days[i], days[j] = days[j], days[i]
		}
	}
	return days, nil
}
