package process

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/shirou/gopsutil/v4/process"
)

// Killer terminates a command's process and everything it spawned
type Killer struct {
	// Signal sent to each process; defaults to SIGKILL
	Signal syscall.Signal
}

// NewKiller creates a killer that sends SIGKILL
func NewKiller() *Killer {
	return &Killer{Signal: syscall.SIGKILL}
}

// KillTree signals pid and all of its descendants, children first.
// Processes that already exited are skipped.
func (k *Killer) KillTree(pid int32) (*KillResponse, error) {
	root, err := process.NewProcess(pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return &KillResponse{PID: pid, Success: true, Message: "process already exited"}, nil
		}
		return nil, fmt.Errorf("process not found: %w", err)
	}

	var tree []*process.Process
	collect(root, &tree)

	signal := k.Signal
	if signal == 0 {
		signal = syscall.SIGKILL
	}

	var killed []int32
	var errs []error
	for i := len(tree) - 1; i >= 0; i-- {
		p := tree[i]
		if err := p.SendSignal(signal); err != nil {
			if running, _ := p.IsRunning(); running {
				errs = append(errs, fmt.Errorf("signal %d: %w", p.Pid, err))
			}
			continue
		}
		killed = append(killed, p.Pid)
	}

	resp := &KillResponse{
		PID:     pid,
		Killed:  killed,
		Success: len(errs) == 0,
		Message: fmt.Sprintf("signal %d sent to %d process(es)", signal, len(killed)),
	}
	if len(errs) > 0 {
		return resp, errors.Join(errs...)
	}
	return resp, nil
}

// collect walks the tree depth-first, parents before children
func collect(p *process.Process, out *[]*process.Process) {
	*out = append(*out, p)

	children, err := p.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		collect(child, out)
	}
}
