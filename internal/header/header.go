// Package header computes the day columns shown above each page of the grid
// and the title used instead of them in single-day mode.
package header

import (
	"time"

	"weekview/internal/dateutil"
)

// Options controls column labels.
type Options struct {
	// Format is the label format; empty means dateutil.FormatMonthDay.
	Format      string
	Locale      string
	RightToLeft bool
	// Today is compared against each column to flag the current day. Zero
	// disables highlighting.
	Today time.Time
}

// Column is one day in a page header.
type Column struct {
	Key  string
	Date time.Time
	// Label is the day rendered with Options.Format.
	Label string
	// DayNumber is the day of month, set only for the weekday format where
	// the number is drawn above the weekday name.
	DayNumber string
	// Today is set only for the weekday format, matching how the grid
	// highlights the current day.
	Today bool
}

func (o Options) format() string {
	if o.Format == "" {
		return dateutil.FormatMonthDay
	}
	return o.Format
}

// Columns returns the header columns for the page anchored at key.
func Columns(key string, numberOfDays int, opts Options) ([]Column, error) {
	days, err := dateutil.DaysOfPage(key, numberOfDays, opts.RightToLeft)
	if err != nil {
		return nil, err
	}
	out := make([]Column, 0, len(days))
	for _, day := range days {
		d, err := dateutil.ParseKey(day, locationOf(opts.Today))
		if err != nil {
			return nil, err
		}
		out = append(out, column(d, opts))
	}
	return out, nil
}

// Title is the single header cell shown when the view has one day per page.
func Title(selected time.Time, opts Options) Column {
	d := dateutil.StartOfDay(selected)
	return column(d, opts)
}

func column(d time.Time, opts Options) Column {
	format := opts.format()
	c := Column{
		Key:   dateutil.Key(d),
		Date:  d,
		Label: dateutil.Format(d, format, opts.Locale),
	}
	if format == dateutil.FormatWeekday {
		c.DayNumber = dateutil.Format(d, dateutil.FormatDayNumber, opts.Locale)
		c.Today = !opts.Today.IsZero() && dateutil.SameDay(opts.Today, d)
	}
	return c
}

func locationOf(t time.Time) *time.Location {
	if t.IsZero() {
		return time.Local
	}
	return t.Location()
}
