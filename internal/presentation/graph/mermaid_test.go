package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/internal/presentation/graph"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/visualizers/turing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		program  string
		contains []string
	}{
		{
			name:    "Start And Halting Shapes",
			program: "start: q0\naccept: yes\nreject: no\nq0 1 -> yes 1 ^\n",
			contains: []string{
				`s_q0(("q0"))`,
				`s_yes((("yes")))`,
				`s_no((("no")))`,
				"class s_yes accept;",
				"class s_no reject;",
			},
		},
		{
			name:    "Rule Labels",
			program: "start: a\naccept: b\nreject: c\na 0 -> a 1 >\na _ -> b _ <\n",
			contains: []string{
				`s_a -- "0/1 >" --> s_a`,
				`s_a -- "_/_ <" --> s_b`,
			},
		},
		{
			name:    "ID Sanitization",
			program: "start: go-left\naccept: end\nreject: x.y\ngo-left 1 -> end 1 ^\n",
			contains: []string{
				`s_go_left(("go-left"))`,
				`s_end((("end")))`,
				`s_x_y((("x.y")))`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := turing.Parse(tt.program)
			require.NoError(t, err)

			got := graph.GenerateMermaid(p, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "classDef current")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	p, err := turing.Parse(turing.IncrementProgram)
	require.NoError(t, err)

	got := graph.GenerateMermaid(p, &graph.Overlay{
		VisitedStates: []string{"right", "right", "carry"},
		CurrentState:  "done",
	})
	assert.Equal(t, 1, strings.Count(got, "class s_right visited;"))
	assert.Contains(t, got, "class s_carry visited;")
	assert.Contains(t, got, "class s_done current;")
}

func TestOverlayFromSnapshot(t *testing.T) {
	assert.Nil(t, graph.OverlayFromSnapshot(nil))
	assert.Nil(t, graph.OverlayFromSnapshot(&domain.Snapshot{}))

	snap, err := algoviz.Replay(context.Background(), turing.Manifest.ID, map[string]any{"tape": "1011"})
	require.NoError(t, err)

	overlay := graph.OverlayFromSnapshot(snap)
	require.NotNil(t, overlay)
	assert.Contains(t, overlay.VisitedStates, "right")
	assert.Contains(t, overlay.VisitedStates, "carry")
	assert.Equal(t, "done", overlay.CurrentState)
}
