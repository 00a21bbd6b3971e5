package notify

import (
	"fmt"
	"sync"

	"github.com/ngenohkevin/devhub-agent/internal/clock"
	"github.com/ngenohkevin/devhub-agent/internal/ident"
	"github.com/ngenohkevin/devhub-agent/internal/tasks"
)

// DefaultCapacity bounds how many notifications are retained
const DefaultCapacity = 200

// Center keeps user-facing notifications and fans them out to subscribers
type Center struct {
	mu             sync.Mutex
	items          []Notification
	capacity       int
	subscribers    map[int]chan Event
	nextSubscriber int

	clock clock.Clock
	ids   ident.Generator
}

// NewCenter creates an empty notification center
func NewCenter(c clock.Clock, ids ident.Generator) *Center {
	if c == nil {
		c = clock.Real{}
	}
	if ids == nil {
		ids = ident.NewUUIDGenerator(ident.NotificationPrefix)
	}
	return &Center{
		capacity:    DefaultCapacity,
		subscribers: make(map[int]chan Event),
		clock:       c,
		ids:         ids,
	}
}

// Push stores a new unread notification and broadcasts it
func (c *Center) Push(typ Type, title, message string) Notification {
	n := Notification{
		ID:        c.ids.NewID(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: c.clock.Now(),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	if c.capacity > 0 && len(c.items) > c.capacity {
		c.items = append([]Notification(nil), c.items[len(c.items)-c.capacity:]...)
	}
	c.mu.Unlock()

	c.Broadcast(Event{Kind: KindNotification, Data: n})
	return n
}

// Publish turns task store events into notifications
func (c *Center) Publish(e tasks.Event) {
	switch e.Type {
	case tasks.EventCreated:
		c.Push(TypeSuccess, "Task Created", fmt.Sprintf("Task %q has been created", e.Task.Title))
	case tasks.EventDeleted:
		c.Push(TypeInfo, "Task Deleted", fmt.Sprintf("Task %q has been deleted", e.Task.Title))
	}
}

// List returns notifications, newest first
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.items))
	for i, n := range c.items {
		out[len(c.items)-1-i] = n
	}
	return out
}

// MarkRead flags a notification as read
func (c *Center) MarkRead(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification '%s': %w", id, ErrNotFound)
}

// Clear drops every notification
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Unread counts unread notifications
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.items {
		if !item.Read {
			n++
		}
	}
	return n
}

// Subscribe returns a channel of broadcast events and a function that
// unsubscribes and closes it. Slow subscribers miss events rather than
// block publishers.
func (c *Center) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	c.mu.Lock()
	id := c.nextSubscriber
	c.nextSubscriber++
	c.subscribers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers counts live subscriptions
func (c *Center) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers)
}

// Broadcast sends e to every subscriber without blocking
func (c *Center) Broadcast(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
