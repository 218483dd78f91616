package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekview/internal/dateutil"
	"weekview/internal/model"
	"weekview/internal/pager"
	"weekview/internal/timeaxis"
)

var monday = time.Date(2021, 6, 7, 0, 0, 0, 0, time.UTC)

type jumps struct{ indexes []int }

func (j *jumps) JumpToIndex(index int, animated bool) {
	if !animated {
		j.indexes = append(j.indexes, index)
	}
}

type strip struct{ last float64 }

func (s *strip) ScrollToOffset(offset float64, _ bool) { s.last = offset }

func weekOptions() Options {
	return Options{
		NumberOfDays: 7,
		SelectedDate: monday,
		Now:          func() time.Time { return monday.Add(10 * time.Hour) },
	}
}

func TestNewAppliesDefaultsAndSeeds(t *testing.T) {
	c, err := New(weekOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"2021-05-24", "2021-05-31", "2021-06-07", "2021-06-14", "2021-06-21"}, c.Keys())
	assert.Equal(t, 2, c.CurrentIndex())
	assert.Equal(t, float64(DefaultHoursInDisplay), c.Options().HoursInDisplay)
	assert.Equal(t, "en", c.Options().Locale)

	times, err := c.Times()
	require.NoError(t, err)
	assert.Len(t, times, 96)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		want error
	}{
		{name: "four days", mod: func(o *Options) { o.NumberOfDays = 4 }, want: ErrInvalidNumberOfDays},
		{name: "negative hours", mod: func(o *Options) { o.HoursInDisplay = -1 }, want: ErrInvalidHours},
		{name: "sub-minute step", mod: func(o *Options) { o.HoursInDisplay = 0.001 }, want: ErrInvalidHours},
		{name: "start hour", mod: func(o *Options) { o.StartHour = 24 }, want: ErrInvalidStartHour},
		{name: "no date", mod: func(o *Options) { o.SelectedDate = time.Time{} }, want: ErrMissingSelectedDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := weekOptions()
			tt.mod(&opts)
			_, err := New(opts, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInverted(t *testing.T) {
	assert.False(t, Options{}.Inverted())
	assert.True(t, Options{PrependMostRecent: true}.Inverted())
	assert.True(t, Options{RightToLeft: true}.Inverted())
	assert.False(t, Options{PrependMostRecent: true, RightToLeft: true}.Inverted())
}

func TestPagesCarryEvents(t *testing.T) {
	c, err := New(weekOptions(), nil)
	require.NoError(t, err)

	events := []model.Event{
		{ID: "overnight", Start: monday.Add(22 * time.Hour), End: monday.Add(26 * time.Hour)},
		{ID: "holiday", AllDay: true, Start: monday.AddDate(0, 0, 2), End: monday.AddDate(0, 0, 2).Add(23 * time.Hour)},
		{ID: "next-week", Start: monday.AddDate(0, 0, 7).Add(9 * time.Hour), End: monday.AddDate(0, 0, 7).Add(10 * time.Hour)},
	}
	require.NoError(t, c.SetEvents(events, 0))

	page, err := c.CurrentPage()
	require.NoError(t, err)
	require.Len(t, page.Days, 7)
	require.Len(t, page.Columns, 7)
	assert.Equal(t, "2021-06-07", page.Key)

	assert.Equal(t, "overnight", page.Days[0].Events[0].ID)
	assert.Equal(t, "overnight", page.Days[1].Events[0].ID)
	assert.Equal(t, monday.AddDate(0, 0, 1), page.Days[1].Events[0].Start)
	assert.InDelta(t, 22*60*600.0/360, page.Days[0].Events[0].Position.Top, 1e-6)

	assert.Equal(t, "holiday", page.Days[2].AllDay[0].ID)
	assert.Empty(t, page.Days[2].Events)

	next, err := c.Page(3)
	require.NoError(t, err)
	assert.Equal(t, "next-week", next.Days[0].Events[0].ID)

	pages, err := c.Pages()
	require.NoError(t, err)
	assert.Len(t, pages, 5)

	_, err = c.Page(5)
	assert.ErrorIs(t, err, pager.ErrIndexOutOfRange)
}

func TestSetEventsRejectsMalformed(t *testing.T) {
	c, err := New(weekOptions(), nil)
	require.NoError(t, err)
	err = c.SetEvents([]model.Event{{ID: "bad", Start: monday.Add(time.Hour), End: monday}}, 0)
	assert.ErrorIs(t, err, model.ErrInvalidRange)
}

func TestSetEventsSameListIsNoop(t *testing.T) {
	c, err := New(weekOptions(), nil)
	require.NoError(t, err)

	events := []model.Event{{ID: "a", Start: monday.Add(9 * time.Hour), End: monday.Add(10 * time.Hour)}}
	require.NoError(t, c.SetEvents(events, 0))
	_, err = c.CurrentPage()
	require.NoError(t, err)
	require.NoError(t, c.SetEvents(events, 0))
	_, err = c.CurrentPage()
	require.NoError(t, err)
	assert.Equal(t, 1, c.timedParts.Computes())

	require.NoError(t, c.SetEvents(append([]model.Event(nil), events...), 0))
	_, err = c.CurrentPage()
	require.NoError(t, err)
	assert.Equal(t, 2, c.timedParts.Computes())
}

func TestScrollEndFlow(t *testing.T) {
	var prev []time.Time
	opts := weekOptions()
	opts.OnSwipePrevious = func(a time.Time) { prev = append(prev, a) }
	j := &jumps{}

	c, err := New(opts, j)
	require.NoError(t, err)

	c.ScrollEnd(pager.ScrollEndEvent{OffsetX: 0, ContentWidth: 5 * 400})
	assert.True(t, c.Pending())
	require.True(t, c.Settle())

	assert.Equal(t, 6, len(c.Keys()))
	assert.Equal(t, 1, c.CurrentIndex())
	assert.Equal(t, []int{1}, j.indexes)
	assert.Equal(t, []time.Time{monday.AddDate(0, 0, -14)}, prev)
	assert.Equal(t, monday.AddDate(0, 0, -14), c.Anchor())
}

func TestScrollSyncAndClose(t *testing.T) {
	c, err := New(weekOptions(), nil)
	require.NoError(t, err)

	hdr, allDay := &strip{}, &strip{}
	c.Mount(hdr, allDay)
	c.Scroll(120)
	assert.Equal(t, 120.0, hdr.last)
	assert.Equal(t, 120.0, allDay.last)
	assert.Equal(t, 120.0, c.ScrollOffset())

	c.Step(1)
	c.Close()
	assert.True(t, c.Closed())
	assert.False(t, c.Settle())
	assert.Equal(t, 2, c.CurrentIndex())

	c.Scroll(300)
	assert.Equal(t, 120.0, hdr.last)
	assert.ErrorIs(t, c.SetEvents(nil, 1), ErrClosed)
}

func TestSingleDayHasNoScrollingHeader(t *testing.T) {
	opts := weekOptions()
	opts.NumberOfDays = 1
	opts.FormatDateHeader = dateutil.FormatWeekday
	opts.Now = func() time.Time { return monday.Add(3 * time.Hour) }

	c, err := New(opts, nil)
	require.NoError(t, err)

	hdr, allDay := &strip{}, &strip{}
	c.Mount(hdr, allDay)
	c.Scroll(50)
	assert.Equal(t, 0.0, hdr.last)
	assert.Equal(t, 50.0, allDay.last)

	title := c.Title()
	assert.Equal(t, "Mon", title.Label)
	assert.True(t, title.Today)
}

func TestEventPressCallbacks(t *testing.T) {
	var pressed []string
	var longPos []timeaxis.Position
	opts := weekOptions()
	opts.OnEventPress = func(ev model.Event) { pressed = append(pressed, ev.ID) }
	opts.OnEventLongPress = func(_ model.Event, pos timeaxis.Position) { longPos = append(longPos, pos) }

	c, err := New(opts, nil)
	require.NoError(t, err)
	require.NoError(t, c.SetEvents([]model.Event{
		{ID: "standup", Start: monday.Add(9 * time.Hour), End: monday.Add(9*time.Hour + 15*time.Minute)},
	}, 3))

	require.NoError(t, c.PressEvent("2021-06-07", 0))
	require.NoError(t, c.LongPressEvent("2021-06-07", 0))
	assert.Error(t, c.PressEvent("2021-06-07", 1))
	assert.Error(t, c.PressEvent("2021-06-08", 0))

	assert.Equal(t, []string{"standup"}, pressed)
	require.Len(t, longPos, 1)
	assert.InDelta(t, 900, longPos[0].Top, 1e-9)
}

func TestVerticalStartAndLocale(t *testing.T) {
	opts := weekOptions()
	opts.StartHour = 8
	opts.FormatDateHeader = "ddd"
	c, err := New(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 800.0, c.VerticalStart())

	c.SetLocale("fr")
	page, err := c.CurrentPage()
	require.NoError(t, err)
	assert.Equal(t, dateutil.Format(monday, "ddd", "fr"), page.Columns[0].Label)
}
