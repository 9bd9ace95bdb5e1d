/*
Package algoviz runs instrumented algorithms one checkpoint at a time and keeps a replayable record of every intermediate state.

An algorithm is an ordinary Go function that receives a replay.Tracer. It binds the values it wants to expose, mutates them freely, and calls Here at every point worth showing. The store copies the working state at each checkpoint, suspends the algorithm and publishes an immutable snapshot; the host decides when to resume.

# Concept

The store (package replay) owns the run: Start resets it, Next resumes the suspended algorithm exactly once, and a new Start supersedes whatever was in flight. Hosts never touch the algorithm directly; they read snapshots (current state, current event, the timeline) and scrub through the timeline with a navigation.Navigator without resuming the run.

# Key Features

  - Pull-based snapshots: a new snapshot pointer per observable change, safe to read from any goroutine.
  - Deep-copied history: every recorded step keeps the state as it was at that checkpoint.
  - Error capture: algorithm failures and panics become a terminal "error" event instead of crashing the host.
  - Hosts: an interactive CLI stepper, an HTTP API with WebSocket streaming, and an MCP server.

# Usage

	store := replay.New(func(ctx context.Context, t replay.Tracer, n int) error {
		for i := 1; i <= n; i++ {
			t.Update("i", i)
			if err := t.Here(ctx, "tick", i); err != nil {
				return err
			}
		}
		return nil
	})

	ctx := context.Background()
	_ = store.Start(ctx, 3, false) // parks at the first "tick"
	_ = store.Next(ctx)            // parks at the second
	snap := store.View()
	fmt.Println(snap.CurrentStep, snap.CurState["i"])

Built-in visualizers live in package visualizers and are reachable by ID through Catalog.
*/
package algoviz
