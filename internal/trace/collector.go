package trace

import (
	"sync"
)

// Collector records every event in insertion order.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func NewCollector() *Collector {
	return &Collector{}
}

// Notify appends the event.
func (c *Collector) Notify(ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

// Events returns a copy of the recorded sequence. Array snapshots are
// cloned too, so neither later notifications nor edits by the caller reach
// the collector.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	for i, ev := range c.events {
		ev.Value = ev.Value.Snapshot()
		ev.Left = ev.Left.Snapshot()
		ev.Right = ev.Right.Snapshot()
		out[i] = ev
	}
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Reset clears the sequence.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.events = nil
	c.mu.Unlock()
}
