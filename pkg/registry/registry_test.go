package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countArgs struct {
	From  int    `mapstructure:"from"`
	To    int    `mapstructure:"to"`
	Label string `mapstructure:"label"`
	Extra []int  `mapstructure:"extra"`
}

func count(ctx context.Context, t replay.Tracer, args countArgs) error {
	i := args.From
	t.Bind("i", &i)
	t.Update("label", args.Label)
	for ; i <= args.To; i++ {
		if err := t.Here(ctx, "tick", i); err != nil {
			return err
		}
	}
	return nil
}

func counter() registry.Visualizer {
	return registry.Define(
		domain.Manifest{ID: "count", Name: domain.Localized{En: "Count"}, Events: []string{"tick"}},
		count,
		func() countArgs { return countArgs{From: 1, To: 3, Label: "default", Extra: []int{9, 9, 9}} },
		func(ev domain.StoredEvent) string { return "tick" },
	)
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRegistry_GetAndList(t *testing.T) {
	r := registry.New()
	r.Register(counter())
	r.Register(registry.Define(domain.Manifest{ID: "alpha"}, count, func() countArgs { return countArgs{} }, nil))

	v, err := r.Get("count")
	require.NoError(t, err)
	assert.Equal(t, "Count", v.Manifest().Name.En)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, domain.ErrVisualizerNotFound)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].ID)
	assert.Equal(t, "count", list[1].ID)
}

func TestSession_DefaultsWhenNoArgs(t *testing.T) {
	ctx := testCtx(t)
	s := counter().NewSession()

	require.NoError(t, s.Start(ctx, nil, true))
	view := s.View()
	assert.Len(t, view.Events, 3)
	assert.Equal(t, "default", view.CurState["label"])
	assert.Equal(t, "count", s.Manifest().ID)
}

func TestSession_DecodesLooseArgs(t *testing.T) {
	ctx := testCtx(t)
	s := counter().NewSession()

	// JSON numbers arrive as float64, CLI values as strings.
	require.NoError(t, s.Start(ctx, map[string]any{"from": float64(5), "to": "6"}, true))
	view := s.View()
	require.Len(t, view.Events, 2)
	assert.Equal(t, []any{5}, view.Events[0].Args)
	assert.Equal(t, "default", view.CurState["label"], "missing keys keep their defaults")
}

func TestSession_SlicesReplaceDefaults(t *testing.T) {
	var got []int
	v := registry.Define(
		domain.Manifest{ID: "extra"},
		func(ctx context.Context, t replay.Tracer, args countArgs) error {
			got = args.Extra
			return nil
		},
		func() countArgs { return countArgs{Extra: []int{9, 9, 9}} },
		nil,
	)

	require.NoError(t, v.NewSession().Start(testCtx(t), map[string]any{"extra": []any{1}}, true))
	assert.Equal(t, []int{1}, got)
}

func TestSession_RejectsUnknownArgs(t *testing.T) {
	s := counter().NewSession()

	err := s.Start(testCtx(t), map[string]any{"form": 1}, true)
	assert.ErrorIs(t, err, registry.ErrInvalidArgs)
	assert.Equal(t, domain.StatusIdle, s.View().Status)
}

func TestSession_Describe(t *testing.T) {
	s := counter().NewSession()
	assert.Equal(t, "tick", s.Describe(domain.StoredEvent{Event: domain.Event{Name: "tick"}}))

	failed := domain.StoredEvent{Event: domain.Event{Name: domain.EventError, Err: assert.AnError}}
	assert.Equal(t, "error: "+assert.AnError.Error(), s.Describe(failed))

	plain := registry.Define(domain.Manifest{ID: "plain"}, count, func() countArgs { return countArgs{} }, nil)
	assert.Equal(t, "tick [1 2]", plain.NewSession().Describe(domain.StoredEvent{Event: domain.Event{Name: "tick", Args: []any{1, 2}}}))
}

func TestVisualizer_DefaultArgs(t *testing.T) {
	args, err := counter().DefaultArgs()
	require.NoError(t, err)
	assert.Equal(t, 1, args["from"])
	assert.Equal(t, "default", args["label"])
	assert.Equal(t, []int{9, 9, 9}, args["extra"])
}

func TestRegistry_NewSession(t *testing.T) {
	r := registry.New()
	r.Register(counter())

	s, err := r.NewSession("count")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, s.View().Status)

	_, err = r.NewSession("nope")
	assert.ErrorIs(t, err, domain.ErrVisualizerNotFound)
}
