package tasks

import "time"

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority ranks tasks
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a user-tracked to-do item
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// clone returns a copy that shares no slices or pointers with t
func (t Task) clone() Task {
	out := t
	out.Tags = append([]string(nil), t.Tags...)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}

// Input is a task before the store assigns id and timestamps.
// Empty Status and Priority default to pending and medium.
type Input struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Tags        []string
	DueDate     *time.Time
}

// Patch names the mutable fields of a task; nil fields are left alone.
// ClearDueDate removes the due date unless DueDate is also set.
type Patch struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	Tags         *[]string
	DueDate      *time.Time
	ClearDueDate bool
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.Tags == nil && p.DueDate == nil && !p.ClearDueDate
}

// Stats summarises the store for the dashboard
type Stats struct {
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"by_status"`
	CompletionRate float64        `json:"completion_rate"`
}
