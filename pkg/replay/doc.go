/*
Package replay implements the runtime store that drives instrumented algorithms.

An algorithm is an ordinary Go function that receives a Tracer. It mutates its
working state through Bind and Update and calls Here at every logically
significant point. The Store records each checkpoint into a Timeline together
with a deep copy of the working state, publishes a fresh Snapshot and blocks
the algorithm until the host calls Next.

	store := replay.New(bubblesort.Sort)
	_ = store.Start(ctx, bubblesort.Args{Array: []int{3, 1, 2}}, false)
	for !store.Snapshot().Halted() {
		_ = store.Next(ctx)
	}

# Hand-off

The algorithm runs on its own goroutine, but only one side makes progress at a
time: Start and Next return once the algorithm has parked at its next
checkpoint or halted. Each Start opens a new generation; the continuation of a
superseded run is never invoked and its checkpoints return ErrSuperseded.

# Unattended runs

With noStop, checkpoints are recorded but never block, and Start returns after
the algorithm completes.
*/
package replay
