// Package tui renders the week view in a terminal with Bubble Tea. Each row
// of the grid is one time-axis label; events are drawn into the rows their
// interval covers.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"weekview/internal/calendar"
	"weekview/internal/dateutil"
	appLog "weekview/internal/log"
	"weekview/internal/model"
	"weekview/internal/source"
	"weekview/internal/timeaxis"
)

const (
	defaultWidth    = 100
	defaultHeight   = 30
	timeColumnWidth = 8
	minColumnWidth  = 6
	// chromeRows is the header, all-day strip and status bar.
	chromeRows = 3

	storePollInterval = 15 * time.Second
)

type storeTickMsg time.Time

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	todayStyle  = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("218"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	allDayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
)

// Model is the Bubble Tea model. It owns one calendar instance; Bubble Tea
// calls Update and View from a single goroutine.
type Model struct {
	cal   *calendar.Calendar
	store *source.Store

	// homeKey is the page the view was opened on; "t" returns to it.
	homeKey string

	width  int
	height int
	// topRow is the first visible time-axis row.
	topRow int

	status string
	err    error
}

// New mounts a calendar for opts. ContainerHeight is forced to one screen of
// time labels so event positions come out in rows.
func New(opts calendar.Options, store *source.Store) (*Model, error) {
	if store == nil {
		store = source.NewStore()
	}
	m := &Model{
		store:  store,
		width:  defaultWidth,
		height: defaultHeight,
	}

	opts.ContainerHeight = timeaxis.TotalLabels
	opts.OnSwipeNext = func(anchor time.Time) {
		m.status = "next: " + dateutil.Key(anchor)
	}
	opts.OnSwipePrevious = func(anchor time.Time) {
		m.status = "previous: " + dateutil.Key(anchor)
	}
	opts.OnEventPress = func(ev model.Event) {
		m.status = fmt.Sprintf("%s %s-%s", ev.Name, ev.Start.Format("15:04"), ev.End.Format("15:04"))
	}

	// The terminal draws only the current page, so there is no list to
	// jump; the renderer is left nil.
	cal, err := calendar.New(opts, nil)
	if err != nil {
		return nil, err
	}
	m.cal = cal
	m.homeKey = cal.Keys()[cal.CurrentIndex()]
	m.topRow = int(cal.VerticalStart())
	if err := m.syncEvents(); err != nil {
		cal.Close()
		return nil, err
	}
	return m, nil
}

// Close unmounts the calendar.
func (m *Model) Close() {
	m.cal.Close()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("weekview"), pollStore())
}

func pollStore() tea.Cmd {
	return tea.Tick(storePollInterval, func(t time.Time) tea.Msg {
		return storeTickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampTopRow()
		return m, nil

	case storeTickMsg:
		m.err = m.syncEvents()
		return m, pollStore()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "h", "left":
		m.page(-1)
	case "l", "right":
		m.page(1)
	case "t":
		if home := slices.Index(m.cal.Keys(), m.homeKey); home >= 0 {
			m.page(home - m.cal.CurrentIndex())
		}
	case "k", "up":
		m.topRow--
		m.clampTopRow()
	case "j", "down":
		m.topRow++
		m.clampTopRow()
	case "enter":
		m.pressFirstVisible()
	}
	return m, nil
}

// page steps the pager and settles right away: a key press is a finished
// interaction.
func (m *Model) page(delta int) {
	if delta == 0 {
		return
	}
	m.cal.Step(delta)
	m.cal.Settle()
	m.err = m.syncEvents()
}

// pressFirstVisible presses the first event that starts on screen.
func (m *Model) pressFirstVisible() {
	page, err := m.cal.CurrentPage()
	if err != nil {
		m.err = err
		return
	}
	last := m.topRow + m.gridRows()
	for _, day := range page.Days {
		for i, ev := range day.Events {
			row := int(ev.Position.Top)
			if row >= m.topRow && row < last {
				m.err = m.cal.PressEvent(day.Key, i)
				return
			}
		}
	}
	m.status = "no event on screen"
}

func (m *Model) syncEvents() error {
	events, version := m.store.Snapshot()
	if err := m.cal.SetEvents(events, version); err != nil {
		appLog.Error("tui: rejected event list", err, "version", version)
		return err
	}
	return nil
}

func (m *Model) gridRows() int {
	rows := m.height - chromeRows
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) clampTopRow() {
	labels, err := m.cal.Times()
	if err != nil {
		return
	}
	maxTop := len(labels) - m.gridRows()
	if m.topRow > maxTop {
		m.topRow = maxTop
	}
	if m.topRow < 0 {
		m.topRow = 0
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	page, err := m.cal.CurrentPage()
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	labels, err := m.cal.Times()
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	colWidth := (m.width - timeColumnWidth) / len(page.Days)
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	lines := []string{
		m.renderHeader(page, colWidth),
		m.renderAllDay(page, colWidth),
	}
	lines = append(lines, m.renderGrid(page, labels, colWidth)...)
	lines = append(lines, m.renderStatus(page))
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader(page calendar.Page, colWidth int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", timeColumnWidth))

	if m.cal.Options().NumberOfDays == 1 {
		title := m.cal.Title()
		b.WriteString(headerStyle.Render(fit(joinLabel(title.DayNumber, title.Label), colWidth)))
		return b.String()
	}
	for _, col := range page.Columns {
		style := headerStyle
		if col.Today {
			style = todayStyle
		}
		b.WriteString(style.Render(fit(joinLabel(col.DayNumber, col.Label), colWidth)))
	}
	return b.String()
}

func (m *Model) renderAllDay(page calendar.Page, colWidth int) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(fit("all-day", timeColumnWidth)))
	for _, day := range page.Days {
		names := make([]string, 0, len(day.AllDay))
		for _, ev := range day.AllDay {
			names = append(names, ev.Name)
		}
		b.WriteString(allDayStyle.Render(fit(strings.Join(names, ","), colWidth)))
	}
	return b.String()
}

// renderGrid draws the visible rows. A cell shows the event's name on the
// row it starts and a bar on the rows it continues through; the first event
// in bucket order wins a contested cell.
func (m *Model) renderGrid(page calendar.Page, labels []string, colWidth int) []string {
	rows := m.gridRows()
	cells := make([][]string, len(page.Days))
	for d, day := range page.Days {
		cells[d] = make([]string, len(labels))
		for _, ev := range day.Events {
			first := int(math.Floor(ev.Position.Top))
			last := int(math.Ceil(ev.Position.Top+ev.Position.Height)) - 1
			if last < first {
				last = first
			}
			for r := first; r <= last && r < len(labels); r++ {
				if r < 0 || cells[d][r] != "" {
					continue
				}
				text := "│"
				if r == first {
					text = ev.Name
				}
				cells[d][r] = renderEvent(ev.Event, fit(text, colWidth))
			}
		}
	}

	out := make([]string, 0, rows)
	for r := m.topRow; r < m.topRow+rows && r < len(labels); r++ {
		var b strings.Builder
		b.WriteString(timeStyle.Render(fit(labels[r], timeColumnWidth)))
		for d := range page.Days {
			if cells[d][r] != "" {
				b.WriteString(cells[d][r])
				continue
			}
			b.WriteString(strings.Repeat(" ", colWidth))
		}
		out = append(out, b.String())
	}
	return out
}

func (m *Model) renderStatus(page calendar.Page) string {
	if m.err != nil {
		return errorStyle.Render("error: " + m.err.Error())
	}
	text := fmt.Sprintf("%s  page %d/%d  anchor %s",
		page.Key, m.cal.CurrentIndex()+1, len(m.cal.Keys()), dateutil.Key(m.cal.Anchor()))
	if m.status != "" {
		text += "  " + m.status
	}
	return statusStyle.Render(text + "  [h/l page, t today, j/k scroll, q quit]")
}

func renderEvent(ev model.Event, text string) string {
	if ev.Color == "" {
		return eventStyle.Render(text)
	}
	return eventStyle.Background(lipgloss.Color(ev.Color)).Render(text)
}

func joinLabel(dayNumber, label string) string {
	if dayNumber == "" {
		return label
	}
	return dayNumber + " " + label
}

// fit pads or truncates s to exactly width cells, keeping one trailing
// space as a column gap.
func fit(s string, width int) string {
	if width <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return string(r) + strings.Repeat(" ", width-len(r))
}

// Run starts the program on the terminal's alternate screen and blocks until
// the user quits or ctx is cancelled.
func Run(ctx context.Context, opts calendar.Options, store *source.Store) error {
	m, err := New(opts, store)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
