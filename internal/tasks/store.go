package tasks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ngenohkevin/devhub-agent/internal/clock"
	"github.com/ngenohkevin/devhub-agent/internal/ident"
)

// Store is the authoritative in-memory task collection
type Store struct {
	mu       sync.Mutex
	tasks    []Task
	index    map[string]int
	revision uint64

	clock clock.Clock
	ids   ident.Generator
	sink  Sink
	limit int
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the wall clock
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDs overrides the id generator
func WithIDs(g ident.Generator) Option {
	return func(s *Store) { s.ids = g }
}

// WithSink registers the receiver of created/deleted events
func WithSink(sink Sink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithLimit caps the number of tasks; zero means unlimited
func WithLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		index: make(map[string]int),
		clock: clock.Real{},
		ids:   ident.NewUUIDGenerator(ident.TaskPrefix),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLimit changes the task cap at runtime
func (s *Store) SetLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
}

// Add validates input, stamps id and timestamps, and appends the task
func (s *Store) Add(in Input) (Task, error) {
	task := Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Tags:        NormalizeTags(in.Tags),
		DueDate:     in.DueDate,
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if err := validate(task); err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	if s.limit > 0 && len(s.tasks) >= s.limit {
		s.mu.Unlock()
		return Task{}, &ValidationError{Message: fmt.Sprintf("task limit of %d reached", s.limit)}
	}

	id := s.ids.NewID()
	if _, exists := s.index[id]; exists {
		s.mu.Unlock()
		return Task{}, fmt.Errorf("id generator returned duplicate id %q", id)
	}

	now := s.clock.Now()
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	task = task.clone()

	s.index[id] = len(s.tasks)
	s.tasks = append(s.tasks, task)
	s.revision++
	s.mu.Unlock()

	s.publish(Event{Type: EventCreated, Task: task.clone()})
	return task.clone(), nil
}

// Update applies the non-nil fields of patch. The stored task is left
// untouched when validation fails.
func (s *Store) Update(id string, patch Patch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Task{}, &NotFoundError{ID: id}
	}

	next := s.tasks[i].clone()
	if patch.Title != nil {
		next.Title = *patch.Title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		next.Tags = NormalizeTags(*patch.Tags)
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		next.DueDate = &due
	} else if patch.ClearDueDate {
		next.DueDate = nil
	}

	if err := validate(next); err != nil {
		return Task{}, err
	}

	now := s.clock.Now()
	if now.Before(next.CreatedAt) {
		now = next.CreatedAt
	}
	next.UpdatedAt = now

	s.tasks[i] = next
	s.revision++
	return next.clone(), nil
}

// Delete removes a task and returns it
func (s *Store) Delete(id string) (Task, error) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return Task{}, &NotFoundError{ID: id}
	}

	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.tasks); j++ {
		s.index[s.tasks[j].ID] = j
	}
	s.revision++
	s.mu.Unlock()

	s.publish(Event{Type: EventDeleted, Task: removed.clone()})
	return removed.clone(), nil
}

// Get returns a task by id
func (s *Store) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return Task{}, &NotFoundError{ID: id}
	}
	return s.tasks[i].clone(), nil
}

// List returns every task in insertion order
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of tasks
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// View returns the filtered, stably sorted projection. The collection is
// never mutated.
func (s *Store) View(filter Filter, key SortKey) ([]Task, error) {
	tasks, _, err := s.ViewWithRevision(filter, key)
	return tasks, err
}

// ViewWithRevision is View plus the revision the projection was taken at
func (s *Store) ViewWithRevision(filter Filter, key SortKey) ([]Task, uint64, error) {
	if filter != FilterAll && !Status(filter).Valid() {
		return nil, 0, &ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter %q", filter)}
	}
	if _, ok := comparators[key]; !ok {
		return nil, 0, &ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort key %q", key)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return project(s.tasks, filter, key), s.revision, nil
}

// Revision increases on every successful mutation
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Stats counts tasks per status
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:    len(s.tasks),
		ByStatus: make(map[Status]int, len(Statuses)),
	}
	for _, st := range Statuses {
		stats.ByStatus[st] = 0
	}
	for _, t := range s.tasks {
		stats.ByStatus[t.Status]++
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.ByStatus[StatusCompleted]) / float64(stats.Total)
	}
	return stats
}

func (s *Store) publish(e Event) {
	if s.sink != nil {
		s.sink.Publish(e)
	}
}

func validate(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Message: "title must not be blank"}
	}
	if !t.Status.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", t.Status)}
	}
	if !t.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", t.Priority)}
	}
	return nil
}
