package domain

import (
	"errors"
	"fmt"
)

// ErrReservedEvent is returned when an algorithm checkpoints with the reserved "error" name.
var ErrReservedEvent = errors.New("event name \"error\" is reserved")

// ErrSuperseded is returned from a checkpoint whose run was replaced by a newer Start.
var ErrSuperseded = errors.New("run superseded by a newer start")

// ErrNotRunning is returned when an operation needs a run but none was started.
var ErrNotRunning = errors.New("no run in progress")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrVisualizerNotFound is returned when a visualizer ID is not registered.
var ErrVisualizerNotFound = errors.New("visualizer not found")

// ErrTraceNotFound is returned when a trace sink has no events for a run.
var ErrTraceNotFound = errors.New("trace not found")

// AlgorithmError wraps a failure raised by an algorithm (returned error or panic).
type AlgorithmError struct {
	RunID    string
	Step     int
	Panicked bool
	Cause    error
}

func (e *AlgorithmError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("algorithm panicked after step %d: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("algorithm failed after step %d: %v", e.Step, e.Cause)
}

func (e *AlgorithmError) Unwrap() error {
	return e.Cause
}
