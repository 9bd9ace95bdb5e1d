package visualizers_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/visualizers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Catalog(t *testing.T) {
	ids := []string{}
	for _, m := range visualizers.Default().List() {
		ids = append(ids, m.ID)
		assert.NotEmpty(t, m.Name.En, m.ID)
		assert.NotEmpty(t, m.Events, m.ID)
	}
	assert.Equal(t, []string{"bubble-sort", "convolution2d", "dbscan", "k-means", "turing-machine", "viterbi"}, ids)
}

// Every visualizer must run to completion on its own defaults, and its
// default args must round-trip through the loose decoder.
func TestDefault_RunsOnDefaults(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, v := range visualizers.All() {
		t.Run(v.Manifest().ID, func(t *testing.T) {
			args, err := v.DefaultArgs()
			require.NoError(t, err)

			s := v.NewSession()
			require.NoError(t, s.Start(ctx, args, true))

			view := s.View()
			assert.Equal(t, domain.StatusHalted, view.Status)
			assert.Nil(t, view.Err)
			assert.NotEmpty(t, view.Events)
			for _, ev := range view.Events {
				assert.Contains(t, v.Manifest().Events, ev.Name)
				assert.NotEmpty(t, s.Describe(ev))
			}
		})
	}
}

func TestBubbleSort_FromJSONArgs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := visualizers.Default().NewSession("bubble-sort")
	require.NoError(t, err)

	require.NoError(t, s.Start(ctx, map[string]any{"array": []any{3.0, 1.0, 2.0}}, false))
	for s.View().Status == domain.StatusRunning {
		require.NoError(t, s.Next(ctx))
	}
	view := s.View()
	assert.Len(t, view.Events, 6)
	assert.Equal(t, []int{1, 2, 3}, view.CurState["array"])
}
