package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/algoviz/internal/config"
	"github.com/aretw0/algoviz/pkg/adapters/file"
	"github.com/aretw0/algoviz/pkg/adapters/memory"
	"github.com/aretw0/algoviz/pkg/adapters/redis"
	"github.com/aretw0/algoviz/pkg/observability"
	"github.com/aretw0/algoviz/pkg/persistence/middleware"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/visualizers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, id string) registry.Session {
	t.Helper()
	sess, err := visualizers.Default().NewSession(id)
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess
}

func TestReadAction(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("n\x1b[Cb\x1b[Dlxq"))
	var got []action
	for {
		act, err := readAction(r)
		require.NoError(t, err)
		got = append(got, act)
		if act == actQuit {
			break
		}
	}
	assert.Equal(t, []action{actForward, actForward, actBack, actBack, actLive, actNone, actQuit}, got)

	act, err := readAction(bufio.NewReader(strings.NewReader("")))
	assert.Error(t, err)
	assert.Equal(t, actQuit, act)
}

func TestStepper(t *testing.T) {
	var out bytes.Buffer
	s := &Stepper{
		Session: newSession(t, "bubble-sort"),
		In:      strings.NewReader("nnbq"),
		Out:     &out,
	}

	require.NoError(t, s.Run(context.Background(), map[string]any{"array": []int{3, 1, 2}}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5, out.String())
	assert.Contains(t, lines[1], "compare")
	assert.Contains(t, lines[2], "swap")
	assert.Contains(t, lines[3], "compare")
	assert.Contains(t, lines[4], "swap")
	assert.Contains(t, lines[4], "(history)")
	assert.Equal(t, 3, s.Session.View().CurrentStep, "stepping back does not resume the run")
}

func TestStepper_ReportsCompletionOnce(t *testing.T) {
	var out bytes.Buffer
	s := &Stepper{
		Session: newSession(t, "bubble-sort"),
		In:      strings.NewReader("nnnn"),
		Out:     &out,
	}

	require.NoError(t, s.Run(context.Background(), map[string]any{"array": []int{1}}))
	assert.Equal(t, 1, strings.Count(out.String(), "finished in 1 steps"))
}

func TestRun(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		err := Run(context.Background(), &out, newSession(t, "bubble-sort"), RunOptions{
			Args: map[string]any{"array": []int{3, 1, 2}},
		})
		require.NoError(t, err)
		// The event column follows the step position; descriptions say "swapped".
		swaps := 0
		for _, line := range strings.Split(out.String(), "\n") {
			if strings.Contains(line, "] swap ") {
				swaps++
			}
		}
		assert.Equal(t, 2, swaps)
		assert.Contains(t, out.String(), "finished in 6 steps")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		err := Run(context.Background(), &out, newSession(t, "bubble-sort"), RunOptions{
			Args: map[string]any{"array": []int{2, 1}},
			JSON: true,
		})
		require.NoError(t, err)

		var snap struct {
			Status   string `json:"status"`
			CurState struct {
				Array []int `json:"array"`
			} `json:"curState"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
		assert.Equal(t, "halted", snap.Status)
		assert.Equal(t, []int{1, 2}, snap.CurState.Array)
	})

	t.Run("algorithm failure is printed", func(t *testing.T) {
		var out bytes.Buffer
		err := Run(context.Background(), &out, newSession(t, "k-means"), RunOptions{
			Args: map[string]any{"k": 0},
		})
		require.NoError(t, err)
		assert.Contains(t, out.String(), "error")
		assert.Contains(t, out.String(), "failed after 0 steps")
	})

	t.Run("bad args", func(t *testing.T) {
		err := Run(context.Background(), &bytes.Buffer{}, newSession(t, "bubble-sort"), RunOptions{
			Args: map[string]any{"nope": 1},
		})
		assert.ErrorIs(t, err, registry.ErrInvalidArgs)
	})
}

func TestEnvironment_Sink(t *testing.T) {
	build := func(t *testing.T, mutate func(*config.Config)) *Environment {
		cfg := config.Default()
		mutate(&cfg)
		env, err := NewEnvironmentFromConfig(cfg)
		require.NoError(t, err)
		t.Cleanup(func() { env.Close() })
		return env
	}

	t.Run("none", func(t *testing.T) {
		sink, err := build(t, func(c *config.Config) {}).Sink()
		require.NoError(t, err)
		assert.Nil(t, sink)
	})

	t.Run("memory", func(t *testing.T) {
		sink, err := build(t, func(c *config.Config) { c.Trace.Backend = config.TraceMemory }).Sink()
		require.NoError(t, err)
		assert.IsType(t, &memory.TraceSink{}, sink)
	})

	t.Run("file", func(t *testing.T) {
		sink, err := build(t, func(c *config.Config) {
			c.Trace.Backend = config.TraceFile
			c.Trace.Dir = t.TempDir()
		}).Sink()
		require.NoError(t, err)
		assert.IsType(t, &file.TraceSink{}, sink)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		sink, err := build(t, func(c *config.Config) {
			c.Trace.Backend = config.TraceRedis
			c.Trace.Redis.Addr = mr.Addr()
		}).Sink()
		require.NoError(t, err)
		assert.IsType(t, &redis.TraceSink{}, sink)
	})

	t.Run("bad key", func(t *testing.T) {
		_, err := build(t, func(c *config.Config) {
			c.Trace.Backend = config.TraceMemory
			c.Trace.EncryptionKey = "c2hvcnQ="
		}).Sink()
		assert.Error(t, err)
	})
}

func TestEnvironment_EncryptedRedactedSink(t *testing.T) {
	cfg := config.Default()
	cfg.Trace.Backend = config.TraceFile
	cfg.Trace.Dir = t.TempDir()
	cfg.Trace.Redact = []string{"^array$"}
	cfg.Trace.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	env, err := NewEnvironmentFromConfig(cfg)
	require.NoError(t, err)
	defer env.Close()

	opts, err := env.StoreOptions(nil)
	require.NoError(t, err)
	sess, err := visualizers.Default().NewSession("bubble-sort", opts...)
	require.NoError(t, err)
	require.NoError(t, sess.Start(context.Background(), map[string]any{"array": []int{2, 1}}, true))

	sink, err := env.Sink()
	require.NoError(t, err)
	entries, err := sink.Load(context.Background(), sess.View().RunID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, middleware.Mask, entries[0].State["array"])

	plain := file.New(cfg.Trace.Dir)
	raw, err := plain.Load(context.Background(), sess.View().RunID)
	require.NoError(t, err)
	assert.Contains(t, raw[0].State, middleware.EnvelopeKey)
	assert.NotContains(t, raw[0].State, "array")
}

func TestEnvironment_StoreOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Trace.Backend = config.TraceFile
	cfg.Trace.Dir = t.TempDir()
	cfg.Log.File = filepath.Join(t.TempDir(), "logs", "algoviz.jsonl")
	env, err := NewEnvironmentFromConfig(cfg)
	require.NoError(t, err)
	defer env.Close()

	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	opts, err := env.StoreOptions(metrics)
	require.NoError(t, err)

	sess, err := visualizers.Default().NewSession("bubble-sort", opts...)
	require.NoError(t, err)
	require.NoError(t, sess.Start(context.Background(), map[string]any{"array": []int{2, 1}}, true))

	sink, err := env.Sink()
	require.NoError(t, err)
	entries, err := sink.Load(context.Background(), sess.View().RunID)
	require.NoError(t, err)
	assert.Len(t, entries, sess.View().CurrentStep)
}
