package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/aretw0/algoviz/internal/presentation/tui"
	"github.com/aretw0/algoviz/pkg/navigation"
	"github.com/aretw0/algoviz/pkg/registry"
)

// RunOptions controls an unattended run.
type RunOptions struct {
	Args map[string]any
	// JSON prints the final snapshot instead of step lines.
	JSON bool
}

// Run executes the session to completion and prints its timeline.
// Algorithm failures are reported in the output, not returned.
func Run(ctx context.Context, w io.Writer, sess registry.Session, opts RunOptions) error {
	if err := sess.Start(ctx, opts.Args, true); err != nil {
		return err
	}
	snap := sess.View()

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	printer := tui.NewStepPrinter(w)
	if snap.HasHistory() {
		for i, ev := range snap.Events {
			printer.Print(navigation.Frame{
				Index: i,
				Live:  true,
				State: ev.State,
				Event: &ev,
				Total: len(snap.Events),
			}, sess.Describe(ev))
		}
	}
	if ev := snap.CurEvent; ev != nil && (!snap.HasHistory() || ev.IsError()) {
		printer.Print(navigation.Frame{Index: snap.CurrentStep - 1, Live: true, Event: ev}, sess.Describe(*ev))
	}
	printer.Status(snap)
	return nil
}
