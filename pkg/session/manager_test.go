package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/replay"
	"github.com/aretw0/algoviz/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticks struct {
	N int `mapstructure:"n"`
}

func newRegistry() *registry.Registry {
	r := registry.New()
	r.Register(registry.Define(
		domain.Manifest{ID: "ticks", Events: []string{"tick"}},
		func(ctx context.Context, t replay.Tracer, args ticks) error {
			for i := 0; i < args.N; i++ {
				t.Update("i", i)
				if err := t.Here(ctx, "tick", i); err != nil {
					return err
				}
			}
			return nil
		},
		func() ticks { return ticks{N: 4} },
		nil,
	))
	return r
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := testCtx(t)
	m := session.NewManager(newRegistry())

	s, err := m.Create(ctx, "ticks")
	require.NoError(t, err)
	assert.Equal(t, "ticks", s.Visualizer)
	assert.NotEmpty(t, s.ID)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	view, err := m.Start(ctx, s.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentStep)

	view, err = m.Next(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentStep)

	require.NoError(t, m.Delete(ctx, s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = m.Next(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UnknownVisualizer(t *testing.T) {
	m := session.NewManager(newRegistry())
	_, err := m.Create(testCtx(t), "nope")
	assert.ErrorIs(t, err, domain.ErrVisualizerNotFound)
	assert.Empty(t, m.List())
}

func TestManager_Navigation(t *testing.T) {
	ctx := testCtx(t)
	m := session.NewManager(newRegistry())
	s, err := m.Create(ctx, "ticks")
	require.NoError(t, err)

	_, err = m.Start(ctx, s.ID, map[string]any{"n": 5}, false)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = m.Next(ctx, s.ID)
		require.NoError(t, err)
	}

	frame, err := m.Seek(ctx, s.ID, 1)
	require.NoError(t, err)
	assert.False(t, frame.Live)
	assert.Equal(t, 1, frame.State["i"])

	frame, err = m.Back(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Index)

	frame, err = m.Forward(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Index)

	frame, err = m.Seek(ctx, s.ID, -1)
	require.NoError(t, err)
	assert.True(t, frame.Live)
	assert.Equal(t, 3, frame.Index)

	frame, err = m.Forward(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, frame.Live)
	assert.Equal(t, 4, frame.Index)
}

func TestManager_ConcurrentNext(t *testing.T) {
	ctx := testCtx(t)
	m := session.NewManager(newRegistry())
	s, err := m.Create(ctx, "ticks")
	require.NoError(t, err)

	_, err = m.Start(ctx, s.ID, map[string]any{"n": 50}, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Next(ctx, s.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Serialized resumes: every call advanced exactly one step.
	assert.Equal(t, 21, s.Store.View().CurrentStep)
}

func TestManager_MaxSessions(t *testing.T) {
	ctx := testCtx(t)
	m := session.NewManager(newRegistry(), session.WithMaxSessions(1))

	_, err := m.Create(ctx, "ticks")
	require.NoError(t, err)
	_, err = m.Create(ctx, "ticks")
	assert.ErrorIs(t, err, session.ErrTooManySessions)
}

func TestManager_StoreOptions(t *testing.T) {
	ctx := testCtx(t)
	var starts int
	m := session.NewManager(newRegistry(), session.WithStoreOptions(
		replay.WithLifecycleHooks(domain.LifecycleHooks{
			OnStart: func(context.Context, *domain.RunEvent) { starts++ },
		}),
	))
	s, err := m.Create(ctx, "ticks")
	require.NoError(t, err)

	_, err = m.Start(ctx, s.ID, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 1, starts)
}

func TestManager_ListAndClose(t *testing.T) {
	ctx := testCtx(t)
	m := session.NewManager(newRegistry())
	for i := 0; i < 3; i++ {
		s, err := m.Create(ctx, "ticks")
		require.NoError(t, err)
		_, err = m.Start(ctx, s.ID, nil, false)
		require.NoError(t, err)
	}

	list := m.List()
	require.Len(t, list, 3)
	assert.False(t, list[1].CreatedAt.Before(list[0].CreatedAt))

	require.NoError(t, m.Close(ctx))
	assert.Empty(t, m.List())
}
