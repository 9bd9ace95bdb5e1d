package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/algoviz/pkg/adapters/file"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSink_Contract(t *testing.T) {
	ports.RunTraceSinkContract(t, file.New(t.TempDir()))
}

func TestTraceSink_ListMissingDir(t *testing.T) {
	sink := file.New(filepath.Join(t.TempDir(), "absent"))
	runs, err := sink.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestTraceSink_TornLastLine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := file.New(dir)

	require.NoError(t, sink.Append(ctx, domain.TraceEntry{RunID: "r1", Step: 1, Name: "tick"}))

	f, err := os.OpenFile(filepath.Join(dir, "r1.jsonl"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"runId":"r1","st`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := sink.Load(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tick", entries[0].Name)
}

func TestTraceSink_RejectsPathLikeIDs(t *testing.T) {
	sink := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, sink.Append(ctx, domain.TraceEntry{RunID: "../escape"}))
	assert.Error(t, sink.Append(ctx, domain.TraceEntry{RunID: ""}))
	_, err := sink.Load(ctx, "a/b")
	assert.Error(t, err)
}
