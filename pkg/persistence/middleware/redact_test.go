package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/algoviz/pkg/adapters/memory"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/persistence/middleware"
	"github.com/aretw0/algoviz/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewTraceSink()
	mw, err := middleware.NewRedactionMiddleware([]string{"^secret$", "(?i)token"})
	require.NoError(t, err)
	sink := mw(underlying)

	original := domain.TraceEntry{
		RunID: "run-1",
		Name:  "tick",
		State: domain.State{
			"secret": "sauce",
			"count":  3,
			"nested": map[string]any{"apiToken": "abc", "keep": "me"},
		},
	}
	require.NoError(t, sink.Append(ctx, original))

	loaded, err := sink.Load(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	state := loaded[0].State
	assert.Equal(t, middleware.Mask, state["secret"])
	assert.Equal(t, 3, state["count"])
	assert.Equal(t, map[string]any{"apiToken": middleware.Mask, "keep": "me"}, state["nested"])

	assert.Equal(t, "sauce", original.State["secret"], "caller's state is not mutated")
	assert.Equal(t, "abc", original.State["nested"].(map[string]any)["apiToken"])
}

func TestRedactionMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewRedactionMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewTraceSink()

	redact, err := middleware.NewRedactionMiddleware([]string{"secret"})
	require.NoError(t, err)
	encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	sink := middleware.Chain(underlying, redact, encrypt)
	require.NoError(t, sink.Append(ctx, entry(1)))

	loaded, err := sink.Load(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, middleware.Mask, loaded[0].State["secret"])

	raw, err := underlying.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Contains(t, raw[0].State, middleware.EnvelopeKey)
}

func TestRedactionMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewRedactionMiddleware([]string{"password"})
	require.NoError(t, err)
	ports.RunTraceSinkContract(t, mw(memory.NewTraceSink()))
}
