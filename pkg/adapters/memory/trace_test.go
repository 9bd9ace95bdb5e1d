package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/algoviz/pkg/adapters/memory"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSink_Contract(t *testing.T) {
	ports.RunTraceSinkContract(t, memory.NewTraceSink())
}

func TestTraceSink_LoadIsIsolated(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewTraceSink()
	require.NoError(t, sink.Append(ctx, domain.TraceEntry{RunID: "r", Step: 1, Name: "a"}))

	loaded, err := sink.Load(ctx, "r")
	require.NoError(t, err)
	loaded[0].Name = "mutated"

	again, err := sink.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Name)
}
