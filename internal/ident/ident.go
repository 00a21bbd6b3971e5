package ident

import (
	"github.com/google/uuid"
)

// Generator supplies process-unique identifiers
type Generator interface {
	NewID() string
}

// Prefixes keep task and command ids apart when compared generically
const (
	TaskPrefix         = "task_"
	CommandPrefix      = "cmd_"
	NotificationPrefix = "ntf_"
)

// UUIDGenerator produces prefixed random UUIDs
type UUIDGenerator struct {
	Prefix string
}

// NewUUIDGenerator creates a generator for the given namespace prefix
func NewUUIDGenerator(prefix string) *UUIDGenerator {
	return &UUIDGenerator{Prefix: prefix}
}

// NewID returns a fresh identifier
func (g *UUIDGenerator) NewID() string {
	return g.Prefix + uuid.NewString()
}

// Func adapts a plain function to Generator
type Func func() string

// NewID calls f
func (f Func) NewID() string {
	return f()
}
