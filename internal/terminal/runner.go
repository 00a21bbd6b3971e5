package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/ngenohkevin/devhub-agent/internal/process"
)

// DefaultMaxOutput caps captured output per stream (1MB)
const DefaultMaxOutput = 1024 * 1024

// Request describes one command execution
type Request struct {
	Command   string
	Timeout   time.Duration
	MaxOutput int
}

// Result is what the runner observed. A non-zero ExitCode is reported
// here, not as an error.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// Runner executes commands on behalf of a session
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, req Request) (Result, error)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// ShellRunner runs commands through a host shell
type ShellRunner struct {
	Shell string
	Dir   string
	Env   []string

	// WaitDelay bounds how long Run waits for output pipes after the
	// process is killed
	WaitDelay time.Duration

	killer *process.Killer
}

// NewShellRunner creates a runner using shell -c; empty shell means bash
func NewShellRunner(shell, dir string) *ShellRunner {
	if shell == "" {
		shell = "bash"
	}
	return &ShellRunner{
		Shell:     shell,
		Dir:       dir,
		WaitDelay: 2 * time.Second,
		killer:    process.NewKiller(),
	}
}

// Run executes req.Command. Cancelling ctx or hitting req.Timeout kills
// the whole process tree.
func (r *ShellRunner) Run(ctx context.Context, req Request) (Result, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	limit := req.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}

	cmd := exec.CommandContext(ctx, r.Shell, "-c", req.Command)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: limit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.WaitDelay
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if r.killer != nil {
			if _, err := r.killer.KillTree(int32(cmd.Process.Pid)); err == nil {
				return nil
			}
		}
		return cmd.Process.Kill()
	}

	err := cmd.Run()

	result := Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.truncated || stderr.truncated,
	}

	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			result.ExitCode = -1
			return result, fmt.Errorf("%w after %v", ErrTimeout, req.Timeout)
		case errors.Is(ctx.Err(), context.Canceled):
			result.ExitCode = -1
			return result, ctx.Err()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

// cappedBuffer keeps the first limit bytes and silently drops the rest so
// the child never blocks on a full pipe
type cappedBuffer struct {
	mu        sync.Mutex
	buf       []byte
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - len(b.buf)
	if room <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > room {
		b.buf = append(b.buf, p[:room]...)
		b.truncated = true
		return len(p), nil
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
