package pager

import (
	"fmt"
	"math"
	"time"

	"weekview/internal/dateutil"
	appLog "weekview/internal/log"
)

// Renderer is the virtualized horizontal list that shows the pages. The
// controller only needs to move it without animation after prepending a page.
type Renderer interface {
	JumpToIndex(index int, animated bool)
}

// Callbacks are the caller's swipe hooks. Either may be nil.
type Callbacks struct {
	OnSwipeNext     func(anchor time.Time)
	OnSwipePrevious func(anchor time.Time)
}

// ScrollEndEvent is what the rendering layer reports when a horizontal
// scroll (drag or momentum) comes to rest.
type ScrollEndEvent struct {
	OffsetX      float64
	ContentWidth float64
}

type State int

const (
	StateIdle State = iota
	StateResolving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controller turns scroll-end reports into window growth, anchor updates and
// swipe callbacks. It exclusively owns its Window.
//
// All side effects of a page change run as one deferred step on the
// Scheduler, after the gesture has settled. A new report cancels a step that
// has not run yet; page travel is always measured from the last committed
// index, so a replaced step loses nothing.
type Controller struct {
	window    *Window
	anchor    time.Time
	scheduler Scheduler
	renderer  Renderer
	callbacks Callbacks

	state   State
	pending Task
	closed  bool
}

// NewController wires a seeded window to its scheduler and renderer. A nil
// scheduler gets a private InteractionQueue, which then has to be settled
// through Settle.
func NewController(w *Window, anchor time.Time, s Scheduler, r Renderer, cb Callbacks) *Controller {
	if s == nil {
		s = &InteractionQueue{}
	}
	return &Controller{
		window:    w,
		anchor:    anchor,
		scheduler: s,
		renderer:  r,
		callbacks: cb,
	}
}

// ScrollEnd handles a scroll-end report from the rendering layer.
func (c *Controller) ScrollEnd(ev ScrollEndEvent) {
	if c.closed {
		return
	}
	if !(ev.ContentWidth > 0) || math.IsNaN(ev.OffsetX) || math.IsInf(ev.OffsetX, 0) {
		appLog.Debug("pager: ignoring scroll-end with unusable measurement",
			"offset_x", ev.OffsetX,
			"content_width", ev.ContentWidth,
		)
		return
	}

	newIndex := int(math.Round(ev.OffsetX / ev.ContentWidth * float64(c.window.Len())))
	c.resolveTo(newIndex)
}

// Step pages by delta relative to the committed page, as if the user had
// scrolled that far. Renderers driven by keys rather than offsets use this.
func (c *Controller) Step(delta int) {
	if c.closed {
		return
	}
	c.resolveTo(c.window.Current() + delta)
}

func (c *Controller) resolveTo(newIndex int) {
	newIndex = clamp(newIndex, 0, c.window.Len()-1)
	moved := newIndex - c.window.Current()

	if c.pending != nil {
		c.pending.Cancel()
		c.pending = nil
	}

	if moved == 0 {
		c.state = StateIdle
		return
	}

	c.state = StateResolving
	var task Task
	task = c.scheduler.Schedule(func() {
		if c.pending != task {
			return
		}
		c.pending = nil
		c.settle(newIndex, moved)
	})
	c.pending = task
}

// settle is the deferred step: grow, commit, then notify.
func (c *Controller) settle(newIndex, moved int) {
	if c.closed {
		return
	}

	sign := 1
	if c.window.MostRecentFirst() {
		sign = -1
	}
	newAnchor := dateutil.AddDays(c.anchor, moved*c.window.NumberOfDays()*sign)

	// Both edges grow once the new page is within PageOffset of them. The
	// forward test is deliberately len-1-PageOffset, one page earlier than a
	// `newIndex > len-PageOffset` check, so the two edges stay symmetric.
	index := newIndex
	switch {
	case moved < 0 && newIndex < PageOffset:
		key := c.window.GrowBackward()
		index++
		appLog.Debug("pager: grew window backward", "key", key, "len", c.window.Len(), "index", index)
		if c.renderer != nil {
			c.renderer.JumpToIndex(index, false)
		}
	case moved > 0 && newIndex > c.window.Len()-1-PageOffset:
		key := c.window.GrowForward()
		appLog.Debug("pager: grew window forward", "key", key, "len", c.window.Len())
	}

	if err := c.window.AdvanceTo(index); err != nil {
		// Unreachable: index is clamped and growth only widens the window.
		appLog.Error("pager: commit failed", err, "index", index)
		c.state = StateIdle
		return
	}
	c.anchor = newAnchor
	c.state = StateIdle

	if moved < 0 {
		c.emit("previous", c.callbacks.OnSwipePrevious, newAnchor)
	} else {
		c.emit("next", c.callbacks.OnSwipeNext, newAnchor)
	}
}

// emit runs a caller callback after state is committed. A panicking callback
// is logged and swallowed so the window stays consistent.
func (c *Controller) emit(dir string, fn func(time.Time), anchor time.Time) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("pager: swipe callback panicked", fmt.Errorf("%v", r), "direction", dir)
		}
	}()
	fn(anchor)
}

// Settle runs the pending step when the controller owns an InteractionQueue.
// With an external scheduler it reports false; that scheduler decides when
// work runs.
func (c *Controller) Settle() bool {
	q, ok := c.scheduler.(*InteractionQueue)
	if !ok {
		return false
	}
	return q.Settle()
}

// Close cancels any pending step and detaches the renderer. Reports after
// Close are ignored.
func (c *Controller) Close() {
	if c.pending != nil {
		c.pending.Cancel()
		c.pending = nil
	}
	c.renderer = nil
	c.closed = true
	c.state = StateIdle
}

func (c *Controller) State() State { return c.state }

// Pending reports whether a deferred step is waiting to run.
func (c *Controller) Pending() bool { return c.pending != nil }

// Anchor returns the committed anchor moment.
func (c *Controller) Anchor() time.Time { return c.anchor }

// Window exposes the owned window for reads. Callers must not mutate it.
func (c *Controller) Window() *Window { return c.window }

func (c *Controller) Closed() bool { return c.closed }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
