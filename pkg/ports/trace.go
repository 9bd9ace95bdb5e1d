package ports

import (
	"context"

	"github.com/aretw0/algoviz/pkg/domain"
)

// TraceSink stores the checkpoints of runs, keyed by run ID.
type TraceSink interface {
	// Append adds entry to the trace of entry.RunID.
	Append(ctx context.Context, entry domain.TraceEntry) error

	// Load returns the trace of a run in append order.
	// Returns domain.ErrTraceNotFound if the run has no entries.
	Load(ctx context.Context, runID string) ([]domain.TraceEntry, error)

	// List returns the IDs of the stored runs.
	List(ctx context.Context) ([]string, error)

	// Delete removes the trace of a run. Deleting an unknown run is not an error.
	Delete(ctx context.Context, runID string) error
}
