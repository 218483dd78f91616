package pager

// Task is a scheduled unit of work that has not necessarily run yet.
type Task interface {
	// Cancel prevents the task from running. Cancelling a task that already
	// ran (or was cancelled) is a no-op.
	Cancel()
}

// Scheduler runs work after in-flight interactions (gestures, animations)
// have settled. Implementations never run fn synchronously from Schedule.
type Scheduler interface {
	Schedule(fn func()) Task
}

// InteractionQueue is a single-slot Scheduler driven by the rendering layer:
// work waits until Settle is called. Scheduling while a task is pending
// replaces it, so at most one task ever runs per settle.
//
// Not safe for concurrent use; it lives on the calendar's UI loop.
type InteractionQueue struct {
	pending *queuedTask
}

type queuedTask struct {
	fn        func()
	cancelled bool
	q         *InteractionQueue
}

func (t *queuedTask) Cancel() {
	if t.cancelled {
		return
	}
	t.cancelled = true
	if t.q != nil && t.q.pending == t {
		t.q.pending = nil
	}
}

// Schedule queues fn, superseding any task that has not run yet.
func (q *InteractionQueue) Schedule(fn func()) Task {
	if q.pending != nil {
		q.pending.Cancel()
	}
	t := &queuedTask{fn: fn, q: q}
	q.pending = t
	return t
}

// Pending reports whether a task is waiting for Settle.
func (q *InteractionQueue) Pending() bool {
	return q.pending != nil
}

// Settle runs the pending task, if any. It reports whether something ran.
func (q *InteractionQueue) Settle() bool {
	t := q.pending
	if t == nil {
		return false
	}
	q.pending = nil
	if t.cancelled {
		return false
	}
	t.cancelled = true
	t.fn()
	return true
}
