package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/session"
	"github.com/aretw0/algoviz/pkg/visualizers"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mgr := session.NewManager(visualizers.Default())
	t.Cleanup(func() { mgr.Close(context.Background()) })
	return NewServer(mgr, nil)
}

func TestServer_ListsTools(t *testing.T) {
	s := newTestServer(t)

	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp := s.mcpServer.HandleMessage(context.Background(), raw)

	rpc, ok := resp.(mcp.JSONRPCResponse)
	require.True(t, ok, "unexpected response %#v", resp)
	result, ok := rpc.Result.(mcp.ListToolsResult)
	require.True(t, ok)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_visualizers", "start_run", "next_step", "get_snapshot", "seek_step", "end_run"}, names)
}

func TestServer_StepThroughBubbleSort(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	started, err := s.handleStartRun(ctx, mcp.CallToolRequest{}, startArgs{
		Visualizer: "bubble-sort",
		Args:       map[string]any{"array": []any{3, 1, 2}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, domain.StatusRunning, started.Status)
	assert.Equal(t, 1, started.Step)
	assert.Equal(t, "compare", started.Event.Name)
	assert.NotEmpty(t, started.Description)

	next, err := s.handleNextStep(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: started.SessionID})
	require.NoError(t, err)
	assert.Equal(t, 2, next.Step)
	assert.Equal(t, "swap", next.Event.Name)

	snap, err := s.handleGetSnapshot(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: started.SessionID})
	require.NoError(t, err)
	assert.Equal(t, next.Step, snap.Step, "reading does not resume")

	frame, err := s.handleSeekStep(ctx, mcp.CallToolRequest{}, seekArgs{SessionID: started.SessionID, Index: 0})
	require.NoError(t, err)
	assert.False(t, frame.Frame.Live)
	assert.Equal(t, 0, frame.Frame.Index)
	assert.Equal(t, "compare", frame.Frame.Event.Name)

	frame, err = s.handleSeekStep(ctx, mcp.CallToolRequest{}, seekArgs{SessionID: started.SessionID, Index: -1})
	require.NoError(t, err)
	assert.True(t, frame.Frame.Live)
}

func TestServer_StartErrors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStartRun(ctx, mcp.CallToolRequest{}, startArgs{})
	assert.Error(t, err)

	_, err = s.handleStartRun(ctx, mcp.CallToolRequest{}, startArgs{Visualizer: "nope"})
	assert.ErrorIs(t, err, domain.ErrVisualizerNotFound)

	_, err = s.handleStartRun(ctx, mcp.CallToolRequest{}, startArgs{
		Visualizer: "bubble-sort",
		Args:       map[string]any{"unknown": 1},
	})
	assert.Error(t, err)
	assert.Empty(t, s.sessions.List(), "failed starts do not leak sessions")

	_, err = s.handleNextStep(ctx, mcp.CallToolRequest{}, sessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_FailedRunReportsError(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleStartRun(context.Background(), mcp.CallToolRequest{}, startArgs{
		Visualizer: "k-means",
		Args:       map[string]any{"k": 0},
		NoStop:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHalted, resp.Status)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, domain.EventError, resp.Event.Name)
}

func TestServer_VisualizersResource(t *testing.T) {
	s := newTestServer(t)

	raw := []byte(`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"algoviz://visualizers"}}`)
	resp := s.mcpServer.HandleMessage(context.Background(), raw)

	rpc, ok := resp.(mcp.JSONRPCResponse)
	require.True(t, ok, "unexpected response %#v", resp)
	result, ok := rpc.Result.(mcp.ReadResourceResult)
	require.True(t, ok)
	require.Len(t, result.Contents, 1)

	text, ok := result.Contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	var manifests []domain.Manifest
	require.NoError(t, json.Unmarshal([]byte(text.Text), &manifests))
	assert.NotEmpty(t, manifests)
}
