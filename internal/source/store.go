// Package source keeps the event list the week views render from and
// refreshes it from the configured ICS feeds.
package source

import (
	"slices"
	"sync"
	"time"

	"weekview/internal/model"
)

// Store holds the current event list and a version that increases only when
// the list actually changes. Calendars pass the version to SetEvents so an
// unchanged store never triggers a re-partition.
type Store struct {
	mu        sync.RWMutex
	events    []model.Event
	version   uint64
	truncated []string
	updatedAt time.Time
}

// NewStore returns an empty store at version 0.
func NewStore() *Store {
	return &Store{events: []model.Event{}}
}

// Snapshot returns the events and their version. The slice must be treated
// as read-only; Replace never writes into a slice it has handed out.
func (s *Store) Snapshot() ([]model.Event, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events, s.version
}

// Version returns the current version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Truncated lists UIDs whose recurrence expansion hit the cap on the last
// refresh.
func (s *Store) Truncated() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.truncated)
}

// UpdatedAt is the time of the last Replace call, changed or not.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Replace installs events and reports the resulting version and whether
// the list differed from the previous one.
func (s *Store) Replace(events []model.Event, truncated []string) (uint64, bool) {
	events = slices.Clone(events)
	if events == nil {
		events = []model.Event{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.updatedAt = time.Now()
	s.truncated = slices.Clone(truncated)
	if s.version != 0 && slices.EqualFunc(s.events, events, sameEvent) {
		return s.version, false
	}
	s.events = events
	s.version++
	return s.version, true
}

func sameEvent(a, b model.Event) bool {
	return a.ID == b.ID &&
		a.UID == b.UID &&
		a.SourceID == b.SourceID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.Location == b.Location &&
		a.Color == b.Color &&
		a.AllDay == b.AllDay &&
		a.Start.Equal(b.Start) &&
		a.End.Equal(b.End)
}
