// Package calendar is one mounted week view: it owns the page window and
// its controller, the scroll sync between grid and header, the partitioned
// events and the time axis, and exposes them as ready-to-render pages.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"weekview/internal/dateutil"
	"weekview/internal/header"
	appLog "weekview/internal/log"
	"weekview/internal/model"
	"weekview/internal/pager"
	"weekview/internal/partition"
	"weekview/internal/scrollsync"
	"weekview/internal/timeaxis"
)

// ErrClosed is returned by operations on a calendar after Close.
var ErrClosed = errors.New("calendar: closed")

// PlacedEvent is an occurrence plus its position in the day column.
type PlacedEvent struct {
	model.Event
	Position timeaxis.Position
}

// Day is one column of a page.
type Day struct {
	Key    string
	Events []PlacedEvent
	AllDay []model.Event
}

// Page is everything needed to draw one page of the pager.
type Page struct {
	Index   int
	Key     string
	Columns []header.Column
	Days    []Day
}

// Calendar is a single mounted instance. It is not safe for concurrent use;
// adapters serialize access.
type Calendar struct {
	opts Options

	queue *pager.InteractionQueue
	ctrl  *pager.Controller
	sync  scrollsync.Sync

	timedParts  partition.Partitioner
	allDayParts partition.Partitioner
	times       timeaxis.Builder

	events  []model.Event
	version uint64
	timed   []model.Event
	allDay  []model.Event

	closed bool
}

// New validates opts, seeds the window around opts.SelectedDate and wires
// the controller to renderer (which may be nil when the rendering layer
// cannot jump, e.g. in tests).
func New(opts Options, renderer pager.Renderer) (*Calendar, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	w, err := pager.Seed(opts.SelectedDate, opts.NumberOfDays, opts.PrependMostRecent)
	if err != nil {
		return nil, err
	}

	c := &Calendar{
		opts:  opts,
		queue: &pager.InteractionQueue{},
	}
	c.ctrl = pager.NewController(w, opts.SelectedDate, c.queue, renderer, pager.Callbacks{
		OnSwipeNext:     opts.OnSwipeNext,
		OnSwipePrevious: opts.OnSwipePrevious,
	})

	appLog.Debug("calendar mounted",
		"selected_date", dateutil.Key(opts.SelectedDate),
		"number_of_days", opts.NumberOfDays,
		"prepend_most_recent", opts.PrependMostRecent,
		"right_to_left", opts.RightToLeft,
	)
	return c, nil
}

// SetEvents replaces the event list. Passing the same slice (or the same
// non-zero version) again is a no-op, so callers can hand over their list on
// every render.
func (c *Calendar) SetEvents(events []model.Event, version uint64) error {
	if c.closed {
		return ErrClosed
	}
	if c.sameInput(events, version) {
		return nil
	}
	if err := model.ValidateEvents(events); err != nil {
		return fmt.Errorf("calendar: %w", err)
	}

	c.events = events
	c.version = version
	c.timed, c.allDay = partition.SplitAllDay(events)
	return nil
}

func (c *Calendar) sameInput(events []model.Event, version uint64) bool {
	if version != 0 {
		return version == c.version && c.events != nil
	}
	if c.version != 0 || len(events) != len(c.events) {
		return false
	}
	if len(events) == 0 {
		return c.events != nil
	}
	return &events[0] == &c.events[0]
}

// Events returns the list last passed to SetEvents.
func (c *Calendar) Events() []model.Event {
	return c.events
}

func (c *Calendar) buckets() (timed, allDay partition.Buckets, err error) {
	timed, err = c.timedParts.PartitionVersion(c.version, c.timed)
	if err != nil {
		return nil, nil, err
	}
	allDay, err = c.allDayParts.PartitionVersion(c.version, c.allDay)
	if err != nil {
		return nil, nil, err
	}
	return timed, allDay, nil
}

// Page builds page i of the current window.
func (c *Calendar) Page(i int) (Page, error) {
	w := c.ctrl.Window()
	key := w.Key(i)
	if key == "" {
		return Page{}, fmt.Errorf("%w: %d", pager.ErrIndexOutOfRange, i)
	}

	timed, allDay, err := c.buckets()
	if err != nil {
		return Page{}, err
	}

	cols, err := header.Columns(key, c.opts.NumberOfDays, c.headerOptions())
	if err != nil {
		return Page{}, err
	}
	dayKeys, err := dateutil.DaysOfPage(key, c.opts.NumberOfDays, c.opts.RightToLeft)
	if err != nil {
		return Page{}, err
	}

	p := Page{Index: i, Key: key, Columns: cols, Days: make([]Day, 0, len(dayKeys))}
	for _, dk := range dayKeys {
		day := Day{Key: dk, AllDay: allDay.Day(dk)}
		for _, occ := range timed.Day(dk) {
			day.Events = append(day.Events, PlacedEvent{
				Event:    occ,
				Position: timeaxis.Place(occ, c.opts.HoursInDisplay, c.opts.ContainerHeight),
			})
		}
		p.Days = append(p.Days, day)
	}
	return p, nil
}

// Pages builds every page in the window, in page order.
func (c *Calendar) Pages() ([]Page, error) {
	n := c.ctrl.Window().Len()
	out := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		p, err := c.Page(i)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CurrentPage is the page the controller has committed to.
func (c *Calendar) CurrentPage() (Page, error) {
	return c.Page(c.ctrl.Window().Current())
}

// Title is the header cell for single-day views.
func (c *Calendar) Title() header.Column {
	return header.Title(c.ctrl.Anchor(), c.headerOptions())
}

// Times returns the time-axis labels for the configured span.
func (c *Calendar) Times() ([]string, error) {
	return c.times.Labels(c.opts.HoursInDisplay)
}

// VerticalStart is the initial vertical scroll offset for StartHour.
func (c *Calendar) VerticalStart() float64 {
	return timeaxis.VerticalStart(c.opts.StartHour, c.opts.HoursInDisplay, c.opts.ContainerHeight)
}

// ScrollEnd forwards a scroll-end report to the controller. The resulting
// page change runs on the next Settle.
func (c *Calendar) ScrollEnd(ev pager.ScrollEndEvent) {
	if c.closed {
		return
	}
	c.ctrl.ScrollEnd(ev)
}

// Step pages by delta, for renderers driven by keys.
func (c *Calendar) Step(delta int) {
	if c.closed {
		return
	}
	c.ctrl.Step(delta)
}

// Scroll records the grid's horizontal offset for one scroll frame.
func (c *Calendar) Scroll(offset float64) {
	if c.closed {
		return
	}
	c.sync.Offset().Set(offset)
}

// Settle runs deferred work once the rendering layer's interactions end.
func (c *Calendar) Settle() bool {
	if c.closed {
		return false
	}
	return c.queue.Settle()
}

// Mount attaches the header and all-day strips to the grid offset. Single
// day views have no scrolling header, so header is ignored for them.
func (c *Calendar) Mount(hdr, allDay scrollsync.Scroller) {
	if c.closed {
		return
	}
	if c.opts.NumberOfDays == 1 {
		hdr = nil
	}
	c.sync.Mount(hdr, allDay)
}

// Close tears the instance down: the scroll listener is removed and any
// pending page step is cancelled before returning.
func (c *Calendar) Close() {
	if c.closed {
		return
	}
	c.sync.Unmount()
	c.sync.Offset().RemoveAll()
	c.ctrl.Close()
	c.closed = true
	appLog.Debug("calendar unmounted")
}

// SetLocale switches label language for subsequent pages.
func (c *Calendar) SetLocale(locale string) {
	if locale == "" {
		locale = DefaultLocale
	}
	if locale == c.opts.Locale {
		return
	}
	if !dateutil.SupportedLocale(locale) {
		appLog.Info("unsupported locale; falling back", "locale", locale, "fallback", dateutil.DefaultLocale)
	}
	c.opts.Locale = locale
}

// PressEvent dispatches OnEventPress for the index-th timed occurrence of
// dayKey.
func (c *Calendar) PressEvent(dayKey string, index int) error {
	ev, err := c.occurrence(dayKey, index)
	if err != nil {
		return err
	}
	if c.opts.OnEventPress != nil {
		c.opts.OnEventPress(ev)
	}
	return nil
}

// LongPressEvent dispatches OnEventLongPress with the occurrence's position.
func (c *Calendar) LongPressEvent(dayKey string, index int) error {
	ev, err := c.occurrence(dayKey, index)
	if err != nil {
		return err
	}
	if c.opts.OnEventLongPress != nil {
		c.opts.OnEventLongPress(ev, timeaxis.Place(ev, c.opts.HoursInDisplay, c.opts.ContainerHeight))
	}
	return nil
}

func (c *Calendar) occurrence(dayKey string, index int) (model.Event, error) {
	if c.closed {
		return model.Event{}, ErrClosed
	}
	timed, _, err := c.buckets()
	if err != nil {
		return model.Event{}, err
	}
	day := timed.Day(dayKey)
	if index < 0 || index >= len(day) {
		return model.Event{}, fmt.Errorf("calendar: no event %d on %s", index, dayKey)
	}
	return day[index], nil
}

func (c *Calendar) headerOptions() header.Options {
	return header.Options{
		Format:      c.opts.FormatDateHeader,
		Locale:      c.opts.Locale,
		RightToLeft: c.opts.RightToLeft,
		Today:       c.opts.Now().In(c.opts.SelectedDate.Location()),
	}
}

// Keys returns the window's page keys in page order.
func (c *Calendar) Keys() []string { return c.ctrl.Window().Keys() }

// CurrentIndex returns the committed page index.
func (c *Calendar) CurrentIndex() int { return c.ctrl.Window().Current() }

// Anchor returns the committed anchor moment.
func (c *Calendar) Anchor() time.Time { return c.ctrl.Anchor() }

func (c *Calendar) State() pager.State { return c.ctrl.State() }

func (c *Calendar) Pending() bool { return c.ctrl.Pending() }

func (c *Calendar) Options() Options { return c.opts }

func (c *Calendar) Closed() bool { return c.closed }

// ScrollOffset is the last grid offset written by Scroll.
func (c *Calendar) ScrollOffset() float64 { return c.sync.Offset().Value() }
