package tasks

// EventType names a store mutation that notification collaborators see
type EventType string

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
)

// Event is emitted after a successful add or delete
type Event struct {
	Type EventType
	Task Task
}

// Sink receives store events. Publish is called after the store lock is
// released, so a sink may read the store.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Event)

// Publish calls f
func (f SinkFunc) Publish(e Event) {
	f(e)
}
