// Package scheduler delivers queued work at or after a requested moment, in
// moment order, to a single dispatch function.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/world-simulator/timectrl"
)

// Handle identifies an entered item. Handles are never reused.
type Handle uint64

// Dispatch receives due items. The scheduler never calls it concurrently
// with itself.
type Dispatch func(h Handle, payload any)

// MetricsRecorder receives queue statistics.
type MetricsRecorder interface {
	SetQueueDepth(n int)
	IncFired()
	IncCancelled()
}

// item represents a single queued unit of work.
type item struct {
	handle    Handle
	when      time.Time
	payload   any
	cancelled bool
}

// Scheduler is a time-ordered queue driven by a SimClock. Enter, Reschedule
// and Cancel are safe for concurrent use; Run and RunDue must not be used at
// the same time.
type Scheduler struct {
	clock timectrl.SimClock

	mu      sync.Mutex
	counter uint64
	items   []*item // ordered by 'when', ties in insertion order
	index   map[Handle]*item

	// wake is signalled whenever an item is entered so a sleeping runner
	// can recheck the head of the queue.
	wake chan struct{}

	metrics MetricsRecorder
}

// Option customises Scheduler construction.
type Option func(*Scheduler)

// WithMetricsRecorder attaches an optional recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates a scheduler backed by the given clock.
func New(clock timectrl.SimClock, opts ...Option) *Scheduler {
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	s := &Scheduler{
		clock: clock,
		index: make(map[Handle]*item),
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Now returns the current simulation time from the underlying clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Enter queues payload to be dispatched delay from now. Negative delays
// count as zero.
func (s *Scheduler) Enter(delay time.Duration, payload any) Handle {
	s.mu.Lock()
	s.counter++
	h := Handle(s.counter)
	s.enterLocked(h, delay, payload)
	s.mu.Unlock()

	s.signal()
	return h
}

// Reschedule queues payload again under an existing handle, typically one
// that just fired. A pending item with the same handle is replaced.
func (s *Scheduler) Reschedule(h Handle, delay time.Duration, payload any) {
	s.mu.Lock()
	if old, ok := s.index[h]; ok {
		old.cancelled = true
	}
	s.enterLocked(h, delay, payload)
	s.mu.Unlock()

	s.signal()
}

// enterLocked inserts an item keeping time order. Caller must hold s.mu.
func (s *Scheduler) enterLocked(h Handle, delay time.Duration, payload any) {
	if delay < 0 {
		delay = 0
	}
	it := &item{handle: h, when: s.clock.Now().Add(delay), payload: payload}

	// Insert after every item due at the same moment.
	idx := sort.Search(len(s.items), func(i int) bool {
		return s.items[i].when.After(it.when)
	})
	s.items = append(s.items, nil)
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = it

	s.index[h] = it
	s.recordDepthLocked()
}

// Cancel removes a pending item. It is a no-op if the handle is unknown, the
// item already fired, or it was cancelled before.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.index[h]
	if !ok {
		return
	}
	it.cancelled = true
	delete(s.index, h)
	// Removal from s.items is lazy; the runner skips cancelled items.
	s.recordDepthLocked()
	if s.metrics != nil {
		s.metrics.IncCancelled()
	}
}

// Pending reports whether h is queued and not cancelled.
func (s *Scheduler) Pending(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[h]
	return ok
}

// Len returns the number of pending items.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// NextMoment returns the moment of the earliest pending item.
func (s *Scheduler) NextMoment() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if head := s.headLocked(); head != nil {
		return head.when, true
	}
	return time.Time{}, false
}

// headLocked drops cancelled items from the front and returns the earliest
// live one, or nil. Caller must hold s.mu.
func (s *Scheduler) headLocked() *item {
	for len(s.items) > 0 {
		if !s.items[0].cancelled {
			return s.items[0]
		}
		s.items[0] = nil
		s.items = s.items[1:]
	}
	return nil
}

// popDueLocked removes and returns the head if it is due. Caller must hold
// s.mu.
func (s *Scheduler) popDueLocked(now time.Time) *item {
	head := s.headLocked()
	if head == nil || head.when.After(now) {
		return nil
	}
	s.items[0] = nil
	s.items = s.items[1:]
	delete(s.index, head.handle)
	s.recordDepthLocked()
	if s.metrics != nil {
		s.metrics.IncFired()
	}
	return head
}

// RunDue dispatches every item due at the current clock moment, including
// items entered with no delay by the dispatched work itself. It returns the
// number of dispatched items.
func (s *Scheduler) RunDue(dispatch Dispatch) int {
	n := 0
	for {
		s.mu.Lock()
		it := s.popDueLocked(s.clock.Now())
		s.mu.Unlock()
		if it == nil {
			return n
		}

		// Execute OUTSIDE the lock so dispatch can enter new work.
		dispatch(it.handle, it.payload)
		n++
	}
}

// Run dispatches items as they become due until ctx is done. The head of
// the queue is only popped once due, so an earlier item entered while the
// runner sleeps is picked up first. An empty queue parks the runner until
// the next Enter. One clock timer is kept per head moment, so wake-ups that
// leave the head unchanged reuse it.
func (s *Scheduler) Run(ctx context.Context, dispatch Dispatch) error {
	var (
		timer   <-chan time.Time
		timerAt time.Time
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		now := s.clock.Now()
		it := s.popDueLocked(now)
		var when time.Time
		idle := false
		if it == nil {
			if head := s.headLocked(); head != nil {
				when = head.when
			} else {
				idle = true
			}
		}
		s.mu.Unlock()

		if it != nil {
			dispatch(it.handle, it.payload)
			continue
		}

		if idle {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
			}
			continue
		}

		if timer == nil || !timerAt.Equal(when) {
			timer, timerAt = s.clock.After(when.Sub(now)), when
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-timer:
			timer = nil
		}
	}
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) recordDepthLocked() {
	if s.metrics != nil {
		s.metrics.SetQueueDepth(len(s.index))
	}
}
