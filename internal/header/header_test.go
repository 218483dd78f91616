package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekview/internal/dateutil"
)

func TestColumnsDefaultFormat(t *testing.T) {
	cols, err := Columns("2021-06-07", 3, Options{Locale: "en"})
	require.NoError(t, err)

	var labels []string
	for _, c := range cols {
		labels = append(labels, c.Label)
		assert.Empty(t, c.DayNumber)
		assert.False(t, c.Today)
	}
	assert.Equal(t, []string{"Jun 7", "Jun 8", "Jun 9"}, labels)
}

func TestColumnsWeekdayFormatHighlightsToday(t *testing.T) {
	today := time.Date(2021, 6, 8, 15, 0, 0, 0, time.UTC)
	cols, err := Columns("2021-06-07", 3, Options{
		Format: dateutil.FormatWeekday,
		Locale: "en",
		Today:  today,
	})
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "Mon", cols[0].Label)
	assert.Equal(t, "7", cols[0].DayNumber)
	assert.False(t, cols[0].Today)
	assert.True(t, cols[1].Today)
	assert.Equal(t, "2021-06-09", cols[2].Key)
}

func TestColumnsRightToLeft(t *testing.T) {
	cols, err := Columns("2021-06-07", 3, Options{RightToLeft: true, Today: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, "2021-06-09", cols[0].Key)
	assert.Equal(t, "2021-06-07", cols[2].Key)
}

func TestColumnsBadKey(t *testing.T) {
	_, err := Columns("nope", 3, Options{})
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	sel := time.Date(2021, 6, 7, 18, 45, 0, 0, time.UTC)
	c := Title(sel, Options{Format: dateutil.FormatWeekday, Today: sel})
	assert.Equal(t, "2021-06-07", c.Key)
	assert.Equal(t, "Mon", c.Label)
	assert.Equal(t, "7", c.DayNumber)
	assert.True(t, c.Today)

	c = Title(sel, Options{})
	assert.Equal(t, "Jun 7", c.Label)
	assert.False(t, c.Today)
}
