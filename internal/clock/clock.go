// Package clock schedules one-shot callbacks that can be cancelled.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already
	// ran or the timer was already stopped.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real schedules callbacks on the runtime timer.
type Real struct{}

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Manual is a deterministic Scheduler for tests. Time only moves when
// Advance is called and callbacks run on the calling goroutine.
//
// Thread-safety: all methods are safe for concurrent use.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	m       *Manual
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// NewManual returns a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc registers f to run once Advance moves past d.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, at: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves time forward by d and runs every callback that became due,
// in deadline order. Ties run in scheduling order.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	var due, rest []*manualTimer
	for _, t := range m.pending {
		switch {
		case t.stopped:
		case t.at <= m.now:
			t.fired = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	m.pending = rest
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.f()
	}
	return len(due)
}

// Pending returns the number of timers that are neither fired nor stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
