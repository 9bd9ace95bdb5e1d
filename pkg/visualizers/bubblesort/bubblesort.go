// Package bubblesort is the bubble sort visualizer.
package bubblesort

import (
	"context"
	"fmt"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Checkpoint names.
const (
	EventCompare = "compare"
	EventSwap    = "swap"
	EventDone    = "done"
)

// Args are the inputs of Sort.
type Args struct {
	Array []int `json:"array" yaml:"array" mapstructure:"array"`
}

// DefaultArgs seeds the start form.
func DefaultArgs() Args {
	return Args{Array: []int{5, 4, 3, 2, 1}}
}

// Manifest describes the visualizer.
var Manifest = domain.Manifest{
	ID: "bubble-sort",
	Name: domain.Localized{
		En: "Bubble sort",
		Ru: "Сортировка пузырьком",
	},
	Description: domain.Localized{
		En: "Repeatedly swaps adjacent out-of-order elements https://en.wikipedia.org/wiki/Bubble_sort",
		Ru: "Попарно меняет местами соседние элементы, стоящие не по порядку",
	},
	Events: []string{EventCompare, EventSwap, EventDone},
	Tags:   []string{"sorting"},
}

// Sort sorts a copy of args.Array in ascending order.
// Every pass shrinks by one element and the sort stops after a pass without swaps.
//
// State: "array" ([]int).
func Sort(ctx context.Context, t replay.Tracer, args Args) error {
	array := append([]int(nil), args.Array...)
	t.Bind("array", array)

	for n := len(array); n > 1; n-- {
		swapped := false
		for i := 0; i < n-1; i++ {
			if err := t.Here(ctx, EventCompare, i, i+1); err != nil {
				return err
			}
			if array[i] <= array[i+1] {
				continue
			}
			array[i], array[i+1] = array[i+1], array[i]
			swapped = true
			if err := t.Here(ctx, EventSwap, i, i+1); err != nil {
				return err
			}
		}
		if !swapped {
			break
		}
	}

	return t.Here(ctx, EventDone)
}

// Describe renders one recorded step as a line of text.
func Describe(ev domain.StoredEvent) string {
	array, _ := ev.State["array"].([]int)
	switch ev.Name {
	case EventCompare, EventSwap:
		i, j := pair(ev.Args)
		verb := "compare"
		if ev.Name == EventSwap {
			verb = "swapped"
		}
		if i < len(array) && j < len(array) {
			return fmt.Sprintf("%s [%d]=%d and [%d]=%d -> %v", verb, i, array[i], j, array[j], array)
		}
		return fmt.Sprintf("%s [%d] and [%d]", verb, i, j)
	case EventDone:
		return fmt.Sprintf("sorted %v", array)
	}
	return ev.Name
}

func pair(args []any) (int, int) {
	if len(args) < 2 {
		return 0, 0
	}
	i, _ := args[0].(int)
	j, _ := args[1].(int)
	return i, j
}
