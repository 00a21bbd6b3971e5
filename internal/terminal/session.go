package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ngenohkevin/devhub-agent/internal/clock"
	"github.com/ngenohkevin/devhub-agent/internal/ident"
	"github.com/ngenohkevin/devhub-agent/internal/logger"
)

// DefaultTimeout bounds a single command
const DefaultTimeout = 30 * time.Second

// Session is one user-facing shell: a serialized command log with history
// recall. At most one command runs at a time.
type Session struct {
	mu      sync.Mutex
	history []Record
	state   State
	cursor  int
	current *inflight

	runner    Runner
	clock     clock.Clock
	ids       ident.Generator
	log       *logger.Logger
	timeout   time.Duration
	maxOutput int
	listeners []func(Record)

	wg sync.WaitGroup
}

// inflight tracks the command currently executing
type inflight struct {
	id     string
	start  time.Time
	cancel context.CancelFunc
	timer  clock.Timer
}

// outcome is what a finalization writes into a record
type outcome struct {
	output   *string
	err      *string
	exitCode *int
}

// Option configures a Session
type Option func(*Session)

// WithClock overrides the wall clock
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithIDs overrides the id generator
func WithIDs(g ident.Generator) Option {
	return func(s *Session) { s.ids = g }
}

// WithLogger sets the session logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithTimeout sets the per-command timeout; zero or less disables it
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithMaxOutput caps the stored output length in bytes
func WithMaxOutput(n int) Option {
	return func(s *Session) { s.maxOutput = n }
}

// WithListener registers a callback for submitted and finalized records.
// Listeners run outside the session lock.
func WithListener(fn func(Record)) Option {
	return func(s *Session) { s.listeners = append(s.listeners, fn) }
}

// NewSession creates an idle session
func NewSession(runner Runner, opts ...Option) *Session {
	s := &Session{
		state:     StateIdle,
		cursor:    -1,
		runner:    runner,
		clock:     clock.Real{},
		ids:       ident.NewUUIDGenerator(ident.CommandPrefix),
		log:       logger.Nop(),
		timeout:   DefaultTimeout,
		maxOutput: DefaultMaxOutput,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetTimeout changes the timeout for commands submitted afterwards
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Timeout returns the per-command timeout
func (s *Session) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// Submit records text as a pending command and starts it in the
// background. Blank text is ignored and yields a zero Record. Submitting
// while another command runs returns ErrInvalidState.
func (s *Session) Submit(text string) (Record, error) {
	if strings.TrimSpace(text) == "" {
		return Record{}, nil
	}

	s.mu.Lock()
	if s.state == StateExecuting {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("submit while executing: %w", ErrInvalidState)
	}

	now := s.clock.Now()
	rec := Record{
		ID:        s.ids.NewID(),
		Command:   text,
		Timestamp: now,
	}
	s.history = append(s.history, rec)
	s.cursor = -1
	s.state = StateExecuting

	ctx, cancel := context.WithCancel(context.Background())
	run := &inflight{id: rec.ID, start: now, cancel: cancel}
	timeout := s.timeout
	if timeout > 0 {
		run.timer = s.clock.AfterFunc(timeout, func() {
			msg := fmt.Sprintf("Command timed out after %v", timeout)
			s.finalize(rec.ID, outcome{err: &msg})
		})
	}
	s.current = run
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Infow("command submitted", "id", rec.ID, "command", rec.Command)
	s.notify(rec)

	go s.execute(ctx, rec, timeout)

	return rec.clone(), nil
}

func (s *Session) execute(ctx context.Context, rec Record, timeout time.Duration) {
	defer s.wg.Done()

	res, err := s.runner.Run(ctx, Request{
		Command:   rec.Command,
		Timeout:   timeout,
		MaxOutput: s.maxOutput,
	})
	s.finalize(rec.ID, s.interpret(res, err, timeout))
}

// interpret turns a runner result into a record outcome
func (s *Session) interpret(res Result, err error, timeout time.Duration) outcome {
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, ErrTimeout):
			msg = fmt.Sprintf("Command timed out after %v", timeout)
		case errors.Is(err, context.Canceled):
			msg = CancelledMessage
		default:
			msg = err.Error()
			if msg == "" {
				msg = "Command failed"
			}
		}
		return outcome{err: &msg}
	}

	code := res.ExitCode
	if code != 0 {
		msg := fmt.Sprintf("Command failed with exit code %d", code)
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout)
		}
		if detail != "" {
			msg += ": " + s.truncate(detail)
		}
		return outcome{err: &msg, exitCode: &code}
	}

	output := combine(res.Stdout, res.Stderr)
	output = s.truncate(strings.TrimSpace(output))
	return outcome{output: &output, exitCode: &code}
}

// finalize writes the outcome into the in-flight record if it is still
// pending. Later finalizations of the same record are discarded.
func (s *Session) finalize(id string, out outcome) {
	s.mu.Lock()
	rec, ok := s.finalizeLocked(id, out)
	s.mu.Unlock()

	if !ok {
		s.log.Debugw("discarding late completion", "id", id)
		return
	}
	s.logOutcome(rec)
	s.notify(rec)
}

func (s *Session) finalizeLocked(id string, out outcome) (Record, bool) {
	run := s.current
	if run == nil || run.id != id || len(s.history) == 0 {
		return Record{}, false
	}

	i := len(s.history) - 1
	rec := s.history[i]
	if rec.ID != id || !rec.Pending() {
		return Record{}, false
	}

	elapsed := s.clock.Now().Sub(run.start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	rec.Output = out.output
	rec.Error = out.err
	rec.ExitCode = out.exitCode
	rec.DurationMS = &elapsed
	s.history[i] = rec

	if run.timer != nil {
		run.timer.Stop()
	}
	run.cancel()
	s.current = nil
	s.state = StateIdle

	return rec.clone(), true
}

// Cancel finalizes the running command with CancelledMessage and asks the
// runner to stop
func (s *Session) Cancel() (Record, error) {
	s.mu.Lock()
	if s.state != StateExecuting || s.current == nil {
		s.mu.Unlock()
		return Record{}, fmt.Errorf("cancel while idle: %w", ErrInvalidState)
	}

	msg := CancelledMessage
	rec, ok := s.finalizeLocked(s.current.id, outcome{err: &msg})
	s.mu.Unlock()

	if !ok {
		return Record{}, fmt.Errorf("cancel finalized record: %w", ErrInvalidState)
	}
	s.logOutcome(rec)
	s.notify(rec)
	return rec, nil
}

// Recall moves the history cursor and returns the selected command text.
// Older stops at the oldest entry; Newer past the newest clears the
// selection and returns false.
func (s *Session) Recall(dir Direction) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	switch dir {
	case Older:
		if n == 0 {
			return "", false
		}
		if s.cursor < n-1 {
			s.cursor++
		}
		return s.history[n-1-s.cursor].Command, true
	case Newer:
		if s.cursor > 0 {
			s.cursor--
			return s.history[n-1-s.cursor].Command, true
		}
		s.cursor = -1
		return "", false
	}
	return "", false
}

// ClearHistory empties the log. Not allowed while a command runs.
func (s *Session) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateExecuting {
		return fmt.Errorf("clear history while executing: %w", ErrInvalidState)
	}
	s.history = nil
	s.cursor = -1
	return nil
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the log, oldest first
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyLocked()
}

// Snapshot returns state, history and cursor taken atomically
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:   s.state,
		History: s.historyLocked(),
		Cursor:  s.cursor,
	}
}

// Wait blocks until the background execution, if any, has returned
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels a running command and waits for its runner to return
func (s *Session) Close() {
	if _, err := s.Cancel(); err != nil && !errors.Is(err, ErrInvalidState) {
		s.log.Warnw("cancel on close failed", "error", err)
	}
	s.wg.Wait()
}

func (s *Session) historyLocked() []Record {
	out := make([]Record, len(s.history))
	for i, r := range s.history {
		out[i] = r.clone()
	}
	return out
}

func (s *Session) notify(rec Record) {
	for _, fn := range s.listeners {
		fn(rec.clone())
	}
}

func (s *Session) logOutcome(rec Record) {
	fields := []interface{}{"id", rec.ID, "command", rec.Command}
	if rec.DurationMS != nil {
		fields = append(fields, "duration_ms", *rec.DurationMS)
	}
	if rec.Error != nil {
		s.log.Warnw("command failed", append(fields, "error", *rec.Error)...)
		return
	}
	s.log.Infow("command finished", fields...)
}

// truncate cuts text to the session's output cap on a rune boundary
func (s *Session) truncate(text string) string {
	if s.maxOutput <= 0 || len(text) <= s.maxOutput {
		return text
	}
	cut := s.maxOutput
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// combine joins stdout and stderr the way they are shown to the user
func combine(stdout, stderr string) string {
	if stderr == "" {
		return stdout
	}
	if stdout == "" {
		return stderr
	}
	return strings.TrimRight(stdout, "\n") + "\n" + stderr
}
