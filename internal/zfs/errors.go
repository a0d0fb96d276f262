package zfs

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// ErrTimeout is returned when a zfs invocation exceeds its deadline.
var ErrTimeout = errors.New("zfs command timed out")

// CommandError describes a failed zfs invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("zfs %s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += " (stderr: " + s + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// isTransient reports whether a failed read-only call may be retried.
func isTransient(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return false
	}
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	var ce *CommandError
	if errors.As(err, &ce) && strings.Contains(ce.Stderr, "dataset is busy") {
		return true
	}
	return false
}
