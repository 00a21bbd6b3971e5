package terminal

import "errors"

var (
	// ErrInvalidState is returned for operations the current state forbids
	ErrInvalidState = errors.New("invalid session state")
	// ErrTimeout is returned by runners when a command outlives its timeout
	ErrTimeout = errors.New("command timed out")
)

// CancelledMessage is stored on a record cancelled by the user
const CancelledMessage = "Command cancelled by user"
