package manager

import "sync"

// defaultMemoryEvents bounds a MemoryPublisher created with a limit <= 0.
const defaultMemoryEvents = 256

// MemoryPublisher keeps the most recent lifecycle events in memory. Once the
// limit is reached the oldest event is dropped.
type MemoryPublisher struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewMemoryPublisher returns a publisher retaining up to limit events
// (256 when limit is omitted or not positive).
func NewMemoryPublisher(limit ...int) *MemoryPublisher {
	n := defaultMemoryEvents
	if len(limit) > 0 && limit[0] > 0 {
		n = limit[0]
	}
	return &MemoryPublisher{limit: n}
}

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == p.limit {
		copy(p.events, p.events[1:])
		p.events = p.events[:len(p.events)-1]
	}
	p.events = append(p.events, e)
}

// Events returns a copy of the retained events, oldest first.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Last returns the most recent event with the given name.
func (p *MemoryPublisher) Last(name string) (Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Name == name {
			return p.events[i], true
		}
	}
	return Event{}, false
}
