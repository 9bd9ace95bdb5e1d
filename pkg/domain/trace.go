package domain

import "time"

// TraceEntry is a recorded checkpoint as exported to a trace sink.
// Sinks serialize it, so State and Args come back as plain JSON values.
type TraceEntry struct {
	RunID string    `json:"runId"`
	Store string    `json:"store,omitempty"`
	Step  int       `json:"step"`
	Name  string    `json:"name"`
	Args  []any     `json:"args,omitempty"`
	Error string    `json:"error,omitempty"`
	State State     `json:"state,omitempty"`
	At    time.Time `json:"at"`
}

// NewTraceEntry flattens ev for export.
func NewTraceEntry(runID, store string, ev StoredEvent) TraceEntry {
	return TraceEntry{
		RunID: runID,
		Store: store,
		Step:  ev.Step,
		Name:  ev.Name,
		Args:  ev.Args,
		Error: ev.Message(),
		State: ev.State,
		At:    ev.At,
	}
}
