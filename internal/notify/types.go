package notify

import (
	"errors"
	"time"
)

// ErrNotFound is returned for unknown notification ids
var ErrNotFound = errors.New("notification not found")

// Type is the severity shown next to a notification
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Notification is a user-facing toast
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Kind names the payload of a streamed event
type Kind string

const (
	KindNotification Kind = "notification"
	KindCommand      Kind = "command"
)

// Event is what subscribers receive
type Event struct {
	Kind Kind        `json:"kind"`
	Data interface{} `json:"data"`
}
