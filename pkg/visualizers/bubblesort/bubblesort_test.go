package bubblesort_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
	"github.com/aretw0/algoviz/pkg/visualizers/bubblesort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	name  string
	args  []any
	array []int
}

func TestSort_Scenario(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := replay.New(bubblesort.Sort)
	require.NoError(t, store.Start(ctx, bubblesort.Args{Array: []int{3, 1, 2}}, false))
	for store.Status() == domain.StatusRunning {
		require.NoError(t, store.Next(ctx))
	}

	expected := []step{
		{bubblesort.EventCompare, []any{0, 1}, []int{3, 1, 2}},
		{bubblesort.EventSwap, []any{0, 1}, []int{1, 3, 2}},
		{bubblesort.EventCompare, []any{1, 2}, []int{1, 3, 2}},
		{bubblesort.EventSwap, []any{1, 2}, []int{1, 2, 3}},
		{bubblesort.EventCompare, []any{0, 1}, []int{1, 2, 3}},
		{bubblesort.EventDone, nil, []int{1, 2, 3}},
	}

	snap := store.Snapshot()
	require.Len(t, snap.Events, len(expected))
	for i, want := range expected {
		got := snap.Events[i]
		assert.Equal(t, want.name, got.Name, "step %d", i)
		assert.Equal(t, want.args, got.Args, "step %d", i)
		assert.Equal(t, want.array, got.State["array"], "step %d", i)
	}
	assert.Equal(t, []int{1, 2, 3}, snap.CurState["array"])
	assert.Nil(t, snap.Err)
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	input := []int{2, 1}
	store := replay.New(bubblesort.Sort)
	require.NoError(t, store.Start(ctx, bubblesort.Args{Array: input}, true))

	assert.Equal(t, []int{2, 1}, input)
	assert.Equal(t, []int{1, 2}, store.Snapshot().CurState["array"])
}

func TestSort_TrivialInputs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, input := range [][]int{nil, {7}} {
		store := replay.New(bubblesort.Sort)
		require.NoError(t, store.Start(ctx, bubblesort.Args{Array: input}, true))

		snap := store.Snapshot()
		require.Len(t, snap.Events, 1)
		assert.Equal(t, bubblesort.EventDone, snap.Events[0].Name)
	}
}

func TestDescribe(t *testing.T) {
	ev := domain.StoredEvent{
		Event: domain.Event{Name: bubblesort.EventSwap, Args: []any{0, 1}},
		State: domain.State{"array": []int{1, 3, 2}},
	}
	assert.Equal(t, "swapped [0]=1 and [1]=3 -> [1 3 2]", bubblesort.Describe(ev))

	done := domain.StoredEvent{
		Event: domain.Event{Name: bubblesort.EventDone},
		State: domain.State{"array": []int{1, 2, 3}},
	}
	assert.Equal(t, "sorted [1 2 3]", bubblesort.Describe(done))
}
