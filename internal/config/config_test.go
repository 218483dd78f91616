package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekview/internal/calendar"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.View.NumberOfDays)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.View, again.View)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
timezone: UTC
view:
  number_of_days: 3
  selected_date: "2021-06-07"
  prepend_most_recent: true
ics:
  - id: team
    path: ./team.ics
    color: "#2F57E9"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.View.NumberOfDays)
	assert.Equal(t, float64(calendar.DefaultHoursInDisplay), cfg.View.HoursInDisplay)
	assert.Equal(t, "MMM D", cfg.View.FormatDateHeader)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	require.Len(t, cfg.ICS, 1)
	assert.Equal(t, "#2F57E9", cfg.ICS[0].Color)

	opts, err := cfg.ViewOptions(time.Now())
	require.NoError(t, err)
	assert.True(t, opts.PrependMostRecent)
	assert.Equal(t, time.Date(2021, 6, 7, 0, 0, 0, 0, time.UTC), opts.SelectedDate)
}

func TestLoadRejectsInvalidView(t *testing.T) {
	tests := []struct {
		name string
		yml  string
		want error
	}{
		{name: "number of days", yml: "view:\n  number_of_days: 4\n", want: calendar.ErrInvalidNumberOfDays},
		{name: "hours", yml: "view:\n  hours_in_display: -2\n", want: calendar.ErrInvalidHours},
		{name: "start hour", yml: "view:\n  start_hour: 30\n", want: calendar.ErrInvalidStartHour},
		{name: "selected date", yml: "view:\n  selected_date: 06/07/2021\n", want: ErrInvalidSelectedDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte("timezone: UTC\n"+tt.yml), 0o600))
			_, err := Load(path)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateICSSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.ICS = []ICSConfig{{ID: "empty"}}
	assert.Error(t, cfg.Validate())
}

func TestSelectedDateDefaultsToToday(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	now := time.Date(2021, 6, 9, 17, 5, 0, 0, time.UTC)
	d, err := cfg.SelectedDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 6, 9, 0, 0, 0, 0, time.UTC), d)
}

func TestBadTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := cfg.Location()
	assert.Error(t, err)
}

func TestSaveEmptyPath(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
