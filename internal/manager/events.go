package manager

// Event represents a manager lifecycle event.
// Minimal and stable: name + instance ID and optional fields via key/values.
//
// Names: load_start, load_done, load_error, evict, evict_error.
type Event struct {
	Name       string
	InstanceID string
	Fields     map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher fans an event out to every publisher in order.
type MultiPublisher []EventPublisher

func (mp MultiPublisher) Publish(e Event) {
	for _, p := range mp {
		if p != nil {
			p.Publish(e)
		}
	}
}
