// Package scrollsync keeps the header strip and the all-day strip
// horizontally aligned with the main event grid.
//
// The grid writes its offset on every scroll frame; subscribers receive the
// latest value synchronously and move their own views without animation.
package scrollsync

// Scroller is a horizontally scrollable view that can be moved to an offset.
type Scroller interface {
	ScrollToOffset(offset float64, animated bool)
}

// Offset is a single writable horizontal offset with listener fan-out.
// It is not safe for concurrent use; it belongs to the calendar's UI loop.
type Offset struct {
	value     float64
	nextID    int
	listeners map[int]func(float64)
	order     []int
}

// Set stores x and forwards it to every listener.
func (o *Offset) Set(x float64) {
	o.value = x
	// Snapshot so a listener that unsubscribes during fan-out is safe.
	ids := append([]int(nil), o.order...)
	for _, id := range ids {
		if fn, ok := o.listeners[id]; ok {
			fn(x)
		}
	}
}

// Value returns the last offset written.
func (o *Offset) Value() float64 {
	return o.value
}

// Subscribe registers fn and returns the function that removes it. The
// returned function is idempotent.
func (o *Offset) Subscribe(fn func(float64)) (unsubscribe func()) {
	if o.listeners == nil {
		o.listeners = make(map[int]func(float64))
	}
	o.nextID++
	id := o.nextID
	o.listeners[id] = fn
	o.order = append(o.order, id)

	return func() {
		if _, ok := o.listeners[id]; !ok {
			return
		}
		delete(o.listeners, id)
		for i, v := range o.order {
			if v == id {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
}

// Listeners returns the number of registered listeners.
func (o *Offset) Listeners() int {
	return len(o.listeners)
}

// RemoveAll drops every listener.
func (o *Offset) RemoveAll() {
	o.listeners = nil
	o.order = nil
}

// Sync binds the grid's Offset to the header and optional all-day strip for
// the lifetime of one mounted calendar.
type Sync struct {
	offset      Offset
	unsubscribe func()
}

// Offset returns the grid offset the rendering layer writes into.
func (s *Sync) Offset() *Offset {
	return &s.offset
}

// Mount registers the forwarding listener. header may be nil for single-day
// views (which show a title instead of a scrolling header); allDay is
// optional. Mounting twice replaces the previous targets.
func (s *Sync) Mount(header, allDay Scroller) {
	s.Unmount()
	if header == nil && allDay == nil {
		return
	}
	s.unsubscribe = s.offset.Subscribe(func(x float64) {
		if header != nil {
			header.ScrollToOffset(x, false)
		}
		if allDay != nil {
			allDay.ScrollToOffset(x, false)
		}
	})
}

// Mounted reports whether targets are currently receiving offsets.
func (s *Sync) Mounted() bool {
	return s.unsubscribe != nil
}

// Unmount deregisters the listener. Safe to call more than once.
func (s *Sync) Unmount() {
	if s.unsubscribe == nil {
		return
	}
	s.unsubscribe()
	s.unsubscribe = nil
}
