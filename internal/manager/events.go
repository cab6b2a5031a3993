package manager

// Event represents a generation lifecycle event.
// Minimal and stable: name + generation ID and optional fields via key/values.
type Event struct {
	ID     string
	Name   string
	Fields map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
