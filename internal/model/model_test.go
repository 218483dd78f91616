package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventValidate(t *testing.T) {
	base := time.Date(2021, 6, 7, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{name: "ordinary", start: base, end: base.Add(time.Hour)},
		{name: "zero length", start: base, end: base},
		{name: "reversed", start: base, end: base.Add(-time.Minute), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Event{ID: "e1", Start: tt.start, End: tt.end}.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidRange))
				assert.Contains(t, err.Error(), `"e1"`)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEventsStopsAtFirst(t *testing.T) {
	base := time.Date(2021, 6, 7, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "ok", Start: base, End: base.Add(time.Hour)},
		{ID: "bad", Start: base, End: base.Add(-time.Hour)},
	}
	err := ValidateEvents(events)
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Contains(t, err.Error(), "bad")
	assert.NoError(t, ValidateEvents(nil))
}
