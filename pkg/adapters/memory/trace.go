package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/algoviz/pkg/domain"
)

// TraceSink implements ports.TraceSink in memory.
// Safe for concurrent use.
type TraceSink struct {
	mu     sync.RWMutex
	traces map[string][]domain.TraceEntry
	order  []string
}

// NewTraceSink creates a new in-memory trace sink.
func NewTraceSink() *TraceSink {
	return &TraceSink{
		traces: make(map[string][]domain.TraceEntry),
	}
}

// Append records entry.
func (s *TraceSink) Append(ctx context.Context, entry domain.TraceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.traces[entry.RunID]; !ok {
		s.order = append(s.order, entry.RunID)
	}
	s.traces[entry.RunID] = append(s.traces[entry.RunID], entry)
	return nil
}

// Load returns a copy of the trace so callers can't mutate the sink.
func (s *TraceSink) Load(ctx context.Context, runID string) ([]domain.TraceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.traces[runID]
	if !ok {
		return nil, domain.ErrTraceNotFound
	}
	return slices.Clone(entries), nil
}

// List returns run IDs in the order they were first seen.
func (s *TraceSink) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

// Delete removes the trace.
func (s *TraceSink) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.traces[runID]; !ok {
		return nil
	}
	delete(s.traces, runID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == runID })
	return nil
}
