package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBounds(t *testing.T) {
	ts := time.Date(2021, 6, 7, 22, 15, 30, 0, time.UTC)

	start := StartOfDay(ts)
	end := EndOfDay(ts)

	assert.Equal(t, time.Date(2021, 6, 7, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2021, 6, 7, 23, 59, 59, 999999999, time.UTC), end)
	assert.Equal(t, time.Date(2021, 6, 8, 0, 0, 0, 0, time.UTC), end.Add(time.Nanosecond))
}

func TestKeyRoundTrip(t *testing.T) {
	d, err := ParseKey("2021-06-07", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2021-06-07", Key(d))

	_, err = ParseKey("", time.UTC)
	assert.Error(t, err)
	_, err = ParseKey("07/06/2021", time.UTC)
	assert.Error(t, err)
}

func TestAddDaysKey(t *testing.T) {
	k, err := AddDaysKey("2021-06-07", -14)
	require.NoError(t, err)
	assert.Equal(t, "2021-05-24", k)

	k, err = AddDaysKey("2021-12-29", 7)
	require.NoError(t, err)
	assert.Equal(t, "2022-01-05", k)
}

func TestAddDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	before := time.Date(2021, 3, 13, 9, 0, 0, 0, loc)
	after := AddDays(before, 1)
	assert.Equal(t, 9, after.Hour())
	assert.Equal(t, 14, after.Day())
	assert.Equal(t, 1, DaysBetween(before, after))
}

func TestDaysBetweenAndSameDay(t *testing.T) {
	a := time.Date(2021, 6, 7, 23, 0, 0, 0, time.UTC)
	b := time.Date(2021, 6, 8, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.False(t, SameDay(a, b))
	assert.True(t, SameDay(a, a.Add(30*time.Minute)))
}

func TestDaysOfPage(t *testing.T) {
	days, err := DaysOfPage("2021-06-28", 5, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-06-28", "2021-06-29", "2021-06-30", "2021-07-01", "2021-07-02"}, days)

	days, err = DaysOfPage("2021-06-28", 3, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-06-30", "2021-06-29", "2021-06-28"}, days)

	_, err = DaysOfPage("2021-06-28", 0, false)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	d := time.Date(2021, 6, 7, 0, 0, 0, 0, time.UTC) // Monday

	tests := []struct {
		layout string
		locale string
		want   string
	}{
		{layout: FormatDayNumber, locale: "en", want: "7"},
		{layout: FormatMonthDay, locale: "en", want: "Jun 7"},
		{layout: FormatWeekday, locale: "en", want: "Mon"},
		{layout: "dddd, MMMM DD YYYY", locale: "en", want: "Monday, June 07 2021"},
		{layout: "YY/MM/D", locale: "en", want: "21/06/7"},
		{layout: "[Week of] MMM D", locale: "en-US", want: "Week of Jun 7"},
		{layout: "MMM D", locale: "xx", want: "Jun 7"},
	}

	for _, tt := range tests {
		t.Run(tt.layout+"/"+tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(d, tt.layout, tt.locale))
		})
	}
}

func TestFormatLocalized(t *testing.T) {
	d := time.Date(2021, 6, 7, 0, 0, 0, 0, time.UTC)
	assert.NotEqual(t, Format(d, "dddd", "en"), Format(d, "dddd", "fr"))
	assert.True(t, SupportedLocale("ko_KR"))
	assert.False(t, SupportedLocale("tlh"))
}

func TestMidnightDSTGap(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// Clocks jump from 2024-09-08 00:00 to 01:00.
	start := StartOfDay(time.Date(2024, 9, 8, 15, 0, 0, 0, loc))
	assert.Equal(t, "2024-09-08", Key(start))
	assert.Equal(t, 1, start.Hour())
	assert.Equal(t, "2024-09-07", Key(start.Add(-time.Nanosecond)))

	parsed, err := ParseKey("2024-09-08", loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-09-08", Key(parsed))
	assert.True(t, parsed.Equal(start))

	tests := []struct {
		from string
		n    int
		want string
	}{
		{from: "2024-09-07", n: 1, want: "2024-09-08"},
		{from: "2024-09-08", n: 1, want: "2024-09-09"},
		{from: "2024-09-01", n: 7, want: "2024-09-08"},
		{from: "2024-09-15", n: -7, want: "2024-09-08"},
		{from: "2024-09-08", n: -1, want: "2024-09-07"},
	}
	for _, tt := range tests {
		d, err := ParseKey(tt.from, loc)
		require.NoError(t, err)
		got := AddDays(d, tt.n)
		assert.Equal(t, tt.want, Key(got), "%s%+d", tt.from, tt.n)
		assert.True(t, got.Equal(StartOfDay(got)), "%s%+d stays a start of day", tt.from, tt.n)
	}

	// A wall clock that does not exist on the target day stays on that day.
	late := time.Date(2024, 9, 7, 0, 30, 0, 0, loc)
	assert.Equal(t, "2024-09-08", Key(AddDays(late, 1)))
}
