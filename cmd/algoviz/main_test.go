package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/pkg/visualizers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with a config file inside a temp dir.
func execute(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "algoviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", path))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "bubble-sort")
	assert.Contains(t, out, "compare, swap, done")
}

func TestDescribeCommand(t *testing.T) {
	out, err := execute(t, "", "describe", "bubble-sort", "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "`bubble-sort`")
	assert.Contains(t, out, "array:")

	_, err = execute(t, "", "describe", "nope")
	assert.Error(t, err)
}

func TestRunAndTraceCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := "trace:\n  backend: file\n  dir: " + dir + "\n"

	out, err := execute(t, cfg, "run", "bubble-sort", "--arg", "array=[3,1,2]")
	require.NoError(t, err)
	assert.Contains(t, out, "finished in 6 steps")

	out, err = execute(t, cfg, "trace", "ls")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	runID := strings.TrimPrefix(lines[0], "- ")

	out, err = execute(t, cfg, "trace", "inspect", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "name: swap")

	out, err = execute(t, cfg, "trace", "rm", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed trace")

	out, err = execute(t, cfg, "trace", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No traces found.")
}

func TestTraceDisabled(t *testing.T) {
	_, err := execute(t, "", "trace", "ls")
	assert.ErrorContains(t, err, "tracing is disabled")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "algoviz "+strings.TrimSpace(algoviz.Version))
	assert.Contains(t, out, "api 1.0.0")
	assert.Contains(t, out, runtime.Version())

	out, err = execute(t, "", "version", "--json")
	require.NoError(t, err)
	t.Cleanup(func() { versionCmd.Flags().Set("json", "false") })

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, strings.TrimSpace(algoviz.Version), info["version"])
	assert.Equal(t, "1.0.0", info["apiVersion"])
	assert.EqualValues(t, len(visualizers.All()), info["visualizers"])
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "", "graph")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `s_right(("right"))`)
	assert.NotContains(t, out, "class s_done current;")

	out, err = execute(t, "", "graph", "--run", "--arg", "tape=1011")
	require.NoError(t, err)
	assert.Contains(t, out, "class s_carry visited;")
	assert.Contains(t, out, "class s_done current;")

	_, err = execute(t, "", "graph", "--arg", "program=nonsense")
	assert.Error(t, err)
}
