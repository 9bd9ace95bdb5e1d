package algoviz

import (
	"context"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/replay"
	"github.com/aretw0/algoviz/pkg/visualizers"
)

// Catalog returns a registry holding the built-in visualizers.
func Catalog() *registry.Registry {
	return visualizers.Default()
}

// Replay runs the built-in visualizer id to completion with loosely typed args
// and returns its final snapshot. A failing algorithm is reported through the
// snapshot (Failed, Err), not as an error.
func Replay(ctx context.Context, id string, args map[string]any, opts ...replay.Option) (*domain.Snapshot, error) {
	sess, err := Catalog().NewSession(id, opts...)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(ctx, args, true); err != nil {
		return nil, err
	}
	return sess.View(), nil
}
