package terminal

import (
	"time"
)

// State of a session
type State string

const (
	StateIdle      State = "idle"
	StateExecuting State = "executing"
)

// Direction moves the recall cursor
type Direction string

const (
	Older Direction = "older"
	Newer Direction = "newer"
)

// Record is one submitted command and its eventual outcome.
// Output, Error and DurationMS stay nil while the command is pending.
type Record struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Timestamp  time.Time `json:"timestamp"`
	Output     *string   `json:"output,omitempty"`
	Error      *string   `json:"error,omitempty"`
	DurationMS *int64    `json:"duration_ms,omitempty"`
	ExitCode   *int      `json:"exit_code,omitempty"`
}

// Pending reports whether the record has not been finalized
func (r Record) Pending() bool {
	return r.Output == nil && r.Error == nil
}

// Failed reports whether the record finalized with an error
func (r Record) Failed() bool {
	return r.Error != nil
}

func (r Record) clone() Record {
	out := r
	if r.Output != nil {
		v := *r.Output
		out.Output = &v
	}
	if r.Error != nil {
		v := *r.Error
		out.Error = &v
	}
	if r.DurationMS != nil {
		v := *r.DurationMS
		out.DurationMS = &v
	}
	if r.ExitCode != nil {
		v := *r.ExitCode
		out.ExitCode = &v
	}
	return out
}

// Snapshot is a consistent view of a session
type Snapshot struct {
	State   State    `json:"state"`
	History []Record `json:"history"`
	Cursor  int      `json:"cursor"`
}
