package pager

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2021, 6, 7, 9, 30, 0, 0, time.UTC)

func TestSeedWeekWindow(t *testing.T) {
	w, err := Seed(monday, 7, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"2021-05-24", "2021-05-31", "2021-06-07", "2021-06-14", "2021-06-21"}, w.Keys())
	assert.Equal(t, 2, w.Current())
	assert.Equal(t, "2021-06-07", w.CurrentKey())
}

func TestSeedMostRecentFirst(t *testing.T) {
	w, err := Seed(monday, 3, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"2021-06-13", "2021-06-10", "2021-06-07", "2021-06-04", "2021-06-01"}, w.Keys())
	assert.Equal(t, "2021-06-07", w.CurrentKey())
}

func TestSeedRoundTrip(t *testing.T) {
	for _, n := range []int{1, 3, 5, 7} {
		for _, anchor := range []time.Time{monday, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 31, 23, 59, 0, 0, time.UTC)} {
			asc, err := Seed(anchor, n, false)
			require.NoError(t, err)
			desc, err := Seed(anchor, n, true)
			require.NoError(t, err)

			reversed := asc.Keys()
			slices.Reverse(reversed)
			assert.Equal(t, desc.Keys(), reversed)
		}
	}
}

func TestSeedRejectsBadDays(t *testing.T) {
	_, err := Seed(monday, 0, false)
	assert.Error(t, err)
}

func TestGrowKeepsContiguity(t *testing.T) {
	tests := []struct {
		name            string
		mostRecentFirst bool
		wantFirst       string
		wantLast        string
	}{
		{name: "ascending", wantFirst: "2021-05-17", wantLast: "2021-06-28"},
		{name: "descending", mostRecentFirst: true, wantFirst: "2021-06-28", wantLast: "2021-05-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Seed(monday, 7, tt.mostRecentFirst)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFirst, w.GrowBackward())
			assert.Equal(t, tt.wantLast, w.GrowForward())
			assert.Equal(t, 7, w.Len())

			keys := w.Keys()
			assert.Equal(t, tt.wantFirst, keys[0])
			assert.Equal(t, tt.wantLast, keys[len(keys)-1])
			assertContiguous(t, w)
		})
	}
}

func TestAdvanceTo(t *testing.T) {
	w, err := Seed(monday, 1, false)
	require.NoError(t, err)

	require.NoError(t, w.AdvanceTo(4))
	assert.Equal(t, "2021-06-09", w.CurrentKey())

	assert.ErrorIs(t, w.AdvanceTo(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, w.AdvanceTo(-1), ErrIndexOutOfRange)
	assert.Equal(t, 4, w.Current())
}

func TestWindowAccessors(t *testing.T) {
	w, err := Seed(monday, 3, false)
	require.NoError(t, err)

	assert.Equal(t, 2, w.IndexOf("2021-06-07"))
	assert.Equal(t, -1, w.IndexOf("2021-06-08"))
	assert.Equal(t, "", w.Key(99))
	assert.Equal(t, []string{"2021-06-07", "2021-06-08", "2021-06-09"}, w.Days(2))
	assert.Nil(t, w.Days(-1))

	keys := w.Keys()
	keys[0] = "mutated"
	assert.NotEqual(t, "mutated", w.Key(0))
}

func assertContiguous(t *testing.T, w *Window) {
	t.Helper()
	seen := map[string]bool{}
	step := w.NumberOfDays()
	if w.MostRecentFirst() {
		step = -step
	}
	keys := w.Keys()
	for i, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
		if i == 0 {
			continue
		}
		prev, err := time.Parse("2006-01-02", keys[i-1])
		require.NoError(t, err)
		cur, err := time.Parse("2006-01-02", k)
		require.NoError(t, err)
		assert.Equal(t, step, int(cur.Sub(prev).Hours()/24), "gap between %s and %s", keys[i-1], k)
	}
}

func TestSeedAcrossMidnightDSTGap(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 2024-09-08 has no 00:00 in Santiago.
	tests := []struct {
		anchor time.Time
		want   []string
	}{
		{
			anchor: time.Date(2024, 9, 1, 0, 0, 0, 0, loc),
			want:   []string{"2024-08-18", "2024-08-25", "2024-09-01", "2024-09-08", "2024-09-15"},
		},
		{
			anchor: time.Date(2024, 9, 8, 12, 0, 0, 0, loc),
			want:   []string{"2024-08-25", "2024-09-01", "2024-09-08", "2024-09-15", "2024-09-22"},
		},
	}
	for _, tt := range tests {
		w, err := Seed(tt.anchor, 7, false)
		require.NoError(t, err)
		assert.Equal(t, tt.want, w.Keys())
		assertContiguous(t, w)
	}
}
