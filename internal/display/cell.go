// Package display publishes the detected-text state shared between the frame
// pipeline and whatever renders it.
package display

import (
	"sync"
	"sync/atomic"
)

// StalePolicy decides what happens when a recognition result completes after
// a result for a later frame was already published.
type StalePolicy int

const (
	// KeepLatestCompletion publishes every result in completion order, so an
	// older frame finishing late overwrites a newer one.
	KeepLatestCompletion StalePolicy = iota
	// DropStale ignores results whose frame sequence is older than the last
	// published one.
	DropStale
)

// Snapshot is an immutable view of the cell. Version increases by one on
// every publish.
type Snapshot struct {
	Text    string
	Err     error
	Seq     uint64
	Version uint64
}

// Visible returns what a renderer should show: the error message while an
// error is present, otherwise the detected text.
func (s Snapshot) Visible() (string, bool) {
	if s.Err != nil {
		return s.Err.Error(), true
	}
	return s.Text, false
}

// Cell is an atomically published Snapshot. Writers never block readers and
// every accepted write replaces the whole snapshot at once.
type Cell struct {
	policy  StalePolicy
	current atomic.Pointer[Snapshot]

	mu   sync.Mutex
	subs map[chan Snapshot]struct{}
}

func NewCell(policy StalePolicy) *Cell {
	c := &Cell{policy: policy, subs: make(map[chan Snapshot]struct{})}
	c.current.Store(&Snapshot{})
	return c
}

func (c *Cell) Load() Snapshot {
	return *c.current.Load()
}

// SetText publishes text recognized from frame seq. It reports false when the
// result was discarded as stale.
func (c *Cell) SetText(seq uint64, text string) bool {
	return c.update(func(s Snapshot) (Snapshot, bool) {
		if c.policy == DropStale && seq < s.Seq {
			return s, false
		}
		s.Text = text
		s.Seq = seq
		return s, true
	})
}

// SetError publishes a failure for frame seq under the same stale policy as
// SetText.
func (c *Cell) SetError(seq uint64, err error) bool {
	return c.update(func(s Snapshot) (Snapshot, bool) {
		if c.policy == DropStale && seq < s.Seq {
			return s, false
		}
		s.Err = err
		s.Seq = seq
		return s, true
	})
}

// ClearError is a no-op when no error is stored.
func (c *Cell) ClearError() {
	c.update(func(s Snapshot) (Snapshot, bool) {
		if s.Err == nil {
			return s, false
		}
		s.Err = nil
		return s, true
	})
}

func (c *Cell) HasError() bool {
	return c.current.Load().Err != nil
}

// Subscribe returns a channel that receives the newest snapshot after each
// publish. Slow readers miss intermediate snapshots, never the latest one.
func (c *Cell) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Cell) update(fn func(Snapshot) (Snapshot, bool)) bool {
	for {
		old := c.current.Load()
		next, ok := fn(*old)
		if !ok {
			return false
		}
		next.Version = old.Version + 1
		if c.current.CompareAndSwap(old, &next) {
			c.notify()
			return true
		}
	}
}

func (c *Cell) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Reload under the lock so concurrent publishers cannot leave an older
	// snapshot as the last one delivered.
	s := c.Load()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
