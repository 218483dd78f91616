package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekview/internal/calendar"
	"weekview/internal/model"
	"weekview/internal/source"
)

var monday = time.Date(2021, 6, 7, 0, 0, 0, 0, time.UTC)

func newModel(t *testing.T, numberOfDays int) *Model {
	t.Helper()
	store := source.NewStore()
	start := monday.AddDate(0, 0, 1).Add(10 * time.Hour)
	store.Replace([]model.Event{
		{ID: "review", Name: "Review", Start: start, End: start.Add(time.Hour), Color: "#2F57E9"},
		{ID: "offsite", Name: "Offsite", AllDay: true, Start: monday, End: monday.Add(24*time.Hour - time.Nanosecond)},
	}, nil)

	m, err := New(calendar.Options{
		NumberOfDays:     numberOfDays,
		StartHour:        8,
		SelectedDate:     monday,
		FormatDateHeader: "ddd+",
		Now:              func() time.Time { return monday.Add(36 * time.Hour) },
	}, store)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestViewShowsCurrentWeek(t *testing.T) {
	m := newModel(t, 7)
	view := m.View()

	assert.Contains(t, view, "7 Mon")
	assert.Contains(t, view, "8 Tue")
	assert.Contains(t, view, "8 am")
	assert.Contains(t, view, "Review")
	assert.Contains(t, view, "Offsite")
	assert.Contains(t, view, "2021-06-07  page 3/5")
	assert.Equal(t, 32, m.topRow, "opens scrolled to the start hour")
}

func TestPagingKeys(t *testing.T) {
	m := newModel(t, 7)

	m.Update(key('l'))
	assert.Equal(t, 3, m.cal.CurrentIndex())
	assert.Equal(t, "next: 2021-06-14", m.status)
	assert.NotContains(t, m.View(), "Review")

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(key('h'))
	assert.Equal(t, 2, m.cal.CurrentIndex(), "window grew backward and the index shifted")
	assert.Len(t, m.cal.Keys(), 7, "one page appended, one prepended")
	assert.Equal(t, "previous: 2021-05-31", m.status)

	m.Update(key('t'))
	assert.Equal(t, "2021-06-07", m.cal.Keys()[m.cal.CurrentIndex()])
	assert.Equal(t, "next: 2021-06-07", m.status)
	assert.Contains(t, m.View(), "Review")
}

func TestVerticalScrollClamps(t *testing.T) {
	m := newModel(t, 3)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 14})
	assert.Equal(t, 32, m.topRow)

	for i := 0; i < 100; i++ {
		m.Update(key('j'))
	}
	assert.Equal(t, 96-11, m.topRow)
	for i := 0; i < 200; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, m.topRow)
	assert.Len(t, strings.Split(m.View(), "\n"), 14)
}

func TestEnterPressesVisibleEvent(t *testing.T) {
	m := newModel(t, 7)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Review 10:00-11:00", m.status)
	assert.NoError(t, m.err)
}

func TestSingleDayUsesTitle(t *testing.T) {
	m := newModel(t, 1)
	view := m.View()
	assert.Contains(t, view, "7 Mon")
	assert.NotContains(t, view, "8 Tue")
}

func TestQuit(t *testing.T) {
	m := newModel(t, 7)
	_, cmd := m.Update(key('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStoreTickPicksUpNewEvents(t *testing.T) {
	m := newModel(t, 7)
	start := monday.Add(9 * time.Hour)
	m.store.Replace([]model.Event{{ID: "standup", Name: "Standup", Start: start, End: start.Add(30 * time.Minute)}}, nil)

	_, cmd := m.Update(storeTickMsg(time.Now()))
	assert.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "Standup")
	assert.NotContains(t, view, "Review")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(calendar.Options{NumberOfDays: 2, SelectedDate: monday}, nil)
	assert.ErrorIs(t, err, calendar.ErrInvalidNumberOfDays)
}
