package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventError is the reserved event name used for the terminal error sentinel.
// Algorithms must never emit it themselves.
const EventError = "error"

// Event is a checkpoint notification: a name plus positional arguments.
// The error sentinel carries Err instead of Args.
type Event struct {
	Name string `json:"name"`
	Args []any  `json:"args"`
	Err  error  `json:"-"`
}

// IsError reports whether the event is the terminal error sentinel.
func (e Event) IsError() bool {
	return e.Name == EventError
}

// Message returns the error text of an error sentinel, or "" for ordinary events.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// MarshalJSON renders the error sentinel as {"name":"error","error":"..."}.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name  string `json:"name"`
		Args  []any  `json:"args"`
		Error string `json:"error,omitempty"`
	}
	args := e.Args
	if args == nil {
		args = []any{}
	}
	return json.Marshal(wire{Name: e.Name, Args: args, Error: e.Message()})
}

// StoredEvent is an Event plus the state copy taken when the checkpoint fired.
// Once created it is never mutated.
type StoredEvent struct {
	Event
	Step  int       `json:"step"`
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// MarshalJSON flattens the embedded event next to the recorded state.
func (e StoredEvent) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name  string    `json:"name"`
		Args  []any     `json:"args"`
		Error string    `json:"error,omitempty"`
		Step  int       `json:"step"`
		State State     `json:"state"`
		At    time.Time `json:"at"`
	}
	args := e.Args
	if args == nil {
		args = []any{}
	}
	return json.Marshal(wire{
		Name:  e.Name,
		Args:  args,
		Error: e.Message(),
		Step:  e.Step,
		State: e.State,
		At:    e.At,
	})
}

// Timeline is the chronological, append-only history of a run.
type Timeline []StoredEvent

// At returns the event at index i, or false when i is out of range.
func (t Timeline) At(i int) (StoredEvent, bool) {
	if i < 0 || i >= len(t) {
		return StoredEvent{}, false
	}
	return t[i], true
}

// CheckpointEvent describes a checkpoint for lifecycle hooks.
type CheckpointEvent struct {
	RunID      string
	Store      string
	Generation uint64
	Event      StoredEvent
	Suspended  bool
}

// RunEvent describes the start or end of a run.
type RunEvent struct {
	RunID      string
	Store      string
	Generation uint64
	Steps      int
	NoStop     bool
	Err        error
	Duration   time.Duration
}

// LifecycleHooks defines callbacks for store observability.
// They run on the goroutine that triggered them and must not call back into the store.
type LifecycleHooks struct {
	OnStart      func(context.Context, *RunEvent)
	OnCheckpoint func(context.Context, *CheckpointEvent)
	OnHalt       func(context.Context, *RunEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStart:      chain(h.OnStart, other.OnStart),
		OnCheckpoint: chain(h.OnCheckpoint, other.OnCheckpoint),
		OnHalt:       chain(h.OnHalt, other.OnHalt),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
