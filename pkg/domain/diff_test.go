package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	running := StatusRunning
	halted := StatusHalted

	e1 := &StoredEvent{Event: Event{Name: "compare", Args: []any{0, 1}}, Step: 1}
	e2 := &StoredEvent{Event: Event{Name: "swap", Args: []any{0, 1}}, Step: 2}

	base := &Snapshot{
		RunID:       "run-1",
		Generation:  1,
		Status:      StatusRunning,
		CurEvent:    e1,
		CurrentStep: 1,
		Events:      Timeline{*e1},
	}

	tests := []struct {
		name     string
		old      *Snapshot
		new      *Snapshot
		wantDiff *SnapshotDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  base,
			wantDiff: &SnapshotDiff{
				RunID:       "run-1",
				Generation:  1,
				Status:      &running,
				CurrentStep: &[]int{1}[0],
				CurEvent:    e1,
				Appended:    Timeline{*e1},
			},
		},
		{
			name:     "No Changes",
			old:      base,
			new:      &Snapshot{RunID: "run-1", Generation: 1, Status: StatusRunning, CurEvent: e1, CurrentStep: 1, Events: Timeline{*e1}},
			wantDiff: nil,
		},
		{
			name: "Step Appended",
			old:  base,
			new:  &Snapshot{RunID: "run-1", Generation: 1, Status: StatusRunning, CurEvent: e2, CurrentStep: 2, Events: Timeline{*e1, *e2}},
			wantDiff: &SnapshotDiff{
				RunID:       "run-1",
				Generation:  1,
				CurrentStep: &[]int{2}[0],
				CurEvent:    e2,
				Appended:    Timeline{*e2},
			},
		},
		{
			name: "Halted",
			old:  base,
			new:  &Snapshot{RunID: "run-1", Generation: 1, Status: StatusHalted, CurEvent: e1, CurrentStep: 1, Events: Timeline{*e1}},
			wantDiff: &SnapshotDiff{
				RunID:      "run-1",
				Generation: 1,
				Status:     &halted,
			},
		},
		{
			name: "Restarted Run Resets",
			old:  base,
			new:  &Snapshot{RunID: "run-2", Generation: 2, Status: StatusRunning},
			wantDiff: &SnapshotDiff{
				RunID:       "run-2",
				Generation:  2,
				Reset:       true,
				Status:      &running,
				CurrentStep: &[]int{0}[0],
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			assert.Equal(t, tt.wantDiff, got)
		})
	}
}

func TestDiff_NilNew(t *testing.T) {
	assert.Nil(t, Diff(&Snapshot{}, nil))
}

func TestEvent_MarshalJSON(t *testing.T) {
	t.Run("Ordinary event keeps args", func(t *testing.T) {
		data, err := json.Marshal(Event{Name: "done"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"done","args":[]}`, string(data))
	})

	t.Run("Error sentinel exposes message", func(t *testing.T) {
		ev := StoredEvent{Event: Event{Name: EventError, Err: errors.New("boom")}, Step: 3}
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), `"error":"boom"`), string(data))
		assert.True(t, ev.IsError())
	})
}

func TestTimeline_At(t *testing.T) {
	tl := Timeline{{Step: 1}, {Step: 2}}

	ev, ok := tl.At(1)
	assert.True(t, ok)
	assert.Equal(t, 2, ev.Step)

	_, ok = tl.At(2)
	assert.False(t, ok)
	_, ok = tl.At(-1)
	assert.False(t, ok)
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnHalt: func(_ context.Context, _ *RunEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnHalt:  func(_ context.Context, _ *RunEvent) { calls = append(calls, "b") },
		OnStart: func(_ context.Context, _ *RunEvent) { calls = append(calls, "start") },
	}

	merged := a.Merge(b)
	merged.OnStart(context.Background(), &RunEvent{})
	merged.OnHalt(context.Background(), &RunEvent{})

	assert.Equal(t, []string{"start", "a", "b"}, calls)
	assert.Nil(t, merged.OnCheckpoint)
}
