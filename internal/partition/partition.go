// Package partition slices a flat event list into per-day buckets.
//
// A multi-day event contributes one clipped copy ("occurrence") to every
// calendar day it overlaps. Each bucket is ordered by occurrence start at
// minute resolution; events that start within the same minute keep the order
// in which they were supplied.
package partition

import (
	"fmt"
	"slices"
	"time"

	"weekview/internal/dateutil"
	"weekview/internal/model"
)

// Buckets maps a date key (YYYY-MM-DD) to that day's occurrences.
type Buckets map[string][]model.Event

// Day returns the occurrences for key. Missing days yield nil.
func (b Buckets) Day(key string) []model.Event {
	if b == nil {
		return nil
	}
	return b[key]
}

// Count returns the total number of occurrences across all days.
func (b Buckets) Count() int {
	n := 0
	for _, occ := range b {
		n += len(occ)
	}
	return n
}

// Partition builds the day buckets for events. It fails on the first
// malformed event (End before Start) without producing partial output.
func Partition(events []model.Event) (Buckets, error) {
	if err := model.ValidateEvents(events); err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}

	out := make(Buckets)
	for _, ev := range events {
		start := ev.Start
		end := ev.End.In(start.Location())

		// Days are walked noon to noon; midnight does not exist on every
		// day in every zone.
		lastDay := dateutil.NoonOf(end)
		for day := dateutil.NoonOf(start); !day.After(lastDay); day = dateutil.AddDays(day, 1) {
			occ := ev
			occ.Start = latest(start, dateutil.StartOfDay(day))
			occ.End = earliest(end, dateutil.EndOfDay(day))

			key := dateutil.Key(day)
			out[key] = append(out[key], occ)
		}
	}

	for key := range out {
		slices.SortStableFunc(out[key], func(a, b model.Event) int {
			return a.Start.Truncate(time.Minute).Compare(b.Start.Truncate(time.Minute))
		})
	}
	return out, nil
}

// SplitAllDay separates all-day events (rendered in the all-day strip) from
// timed ones, preserving order within each group.
func SplitAllDay(events []model.Event) (timed, allDay []model.Event) {
	for _, ev := range events {
		if ev.AllDay {
			allDay = append(allDay, ev)
			continue
		}
		timed = append(timed, ev)
	}
	return timed, allDay
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
