package algoviz_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Example_stepping drives a custom algorithm one checkpoint at a time.
func Example_stepping() {
	count := func(ctx context.Context, t replay.Tracer, n int) error {
		for i := 1; i <= n; i++ {
			t.Update("i", i)
			if err := t.Here(ctx, "tick", i); err != nil {
				return err
			}
		}
		return nil
	}

	store := replay.New(count)
	ctx := context.Background()
	if err := store.Start(ctx, 3, false); err != nil {
		log.Fatal(err)
	}

	for snap := store.View(); !snap.Halted(); snap = store.View() {
		fmt.Println(snap.CurrentStep, snap.CurEvent.Name, snap.CurState["i"])
		if err := store.Next(ctx); err != nil {
			log.Fatal(err)
		}
	}

	// Output:
	// 1 tick 1
	// 2 tick 2
	// 3 tick 3
}

// ExampleReplay runs a built-in visualizer unattended and reads its timeline.
func ExampleReplay() {
	snap, err := algoviz.Replay(context.Background(), "bubble-sort", map[string]any{
		"array": []int{3, 1, 2},
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, ev := range snap.Events {
		fmt.Println(ev.Name, ev.Args)
	}
	fmt.Println(snap.CurState["array"])

	// Output:
	// compare [0 1]
	// swap [0 1]
	// compare [1 2]
	// swap [1 2]
	// compare [0 1]
	// done []
	// [1 2 3]
}
