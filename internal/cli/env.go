package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/algoviz/internal/config"
	"github.com/aretw0/algoviz/internal/logging"
	"github.com/aretw0/algoviz/pkg/adapters/file"
	"github.com/aretw0/algoviz/pkg/adapters/memory"
	"github.com/aretw0/algoviz/pkg/adapters/redis"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/observability"
	"github.com/aretw0/algoviz/pkg/persistence/middleware"
	"github.com/aretw0/algoviz/pkg/ports"
	"github.com/aretw0/algoviz/pkg/replay"
)

// Environment holds what every command builds from algoviz.yaml.
type Environment struct {
	Config config.Config
	Logger *slog.Logger

	sink    ports.TraceSink
	closers []io.Closer
}

// NewEnvironment loads the config at path and sets up logging.
// debug forces debug level logging on stderr.
func NewEnvironment(path string, debug bool) (*Environment, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	return NewEnvironmentFromConfig(cfg)
}

// NewEnvironmentFromConfig sets up logging for an already loaded config.
func NewEnvironmentFromConfig(cfg config.Config) (*Environment, error) {
	env := &Environment{Config: cfg}

	level := logging.ParseLevel(cfg.Log.Level)
	switch {
	case cfg.Log.File != "":
		logger, closer, err := logging.NewWithFile(os.Stderr, level, cfg.Log.File)
		if err != nil {
			return nil, err
		}
		env.Logger = logger
		env.closers = append(env.closers, closer)
	default:
		env.Logger = logging.New(level)
	}
	return env, nil
}

// Sink returns the trace sink selected by the config, or nil when tracing is off.
func (e *Environment) Sink() (ports.TraceSink, error) {
	if e.sink != nil {
		return e.sink, nil
	}

	tc := e.Config.Trace
	switch tc.Backend {
	case "", config.TraceNone:
		return nil, nil
	case config.TraceMemory:
		e.sink = memory.NewTraceSink()
	case config.TraceFile:
		e.sink = file.New(tc.Dir)
	case config.TraceRedis:
		var opts []redis.Option
		if tc.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(tc.Redis.Prefix))
		}
		if tc.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(tc.Redis.TTL))
		}
		sink := redis.New(tc.Redis.Addr, tc.Redis.Password, tc.Redis.DB, opts...)
		e.sink = sink
		e.closers = append(e.closers, sink)
	default:
		return nil, fmt.Errorf("unknown trace backend %q", tc.Backend)
	}

	mws, err := sinkMiddlewares(tc)
	if err != nil {
		return nil, err
	}
	e.sink = middleware.Chain(e.sink, mws...)
	e.Logger.Debug("trace sink ready", "backend", tc.Backend, "redact", len(tc.Redact), "encrypted", tc.EncryptionKey != "")
	return e.sink, nil
}

// sinkMiddlewares redacts before encrypting, so ciphertext never holds masked keys.
func sinkMiddlewares(tc config.TraceConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(tc.Redact) > 0 {
		mw, err := middleware.NewRedactionMiddleware(tc.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if tc.EncryptionKey != "" {
		active, err := middleware.DecodeKey(tc.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("trace.encryption_key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range tc.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("trace.fallback_keys[%d]: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// StoreOptions assembles the store options shared by every command.
// metrics may be nil.
func (e *Environment) StoreOptions(metrics *observability.Metrics) ([]replay.Option, error) {
	opts := []replay.Option{
		replay.WithLogger(e.Logger),
		replay.WithConfig(e.Config.Retention),
		replay.WithLifecycleHooks(debugHooks(e.Logger)),
	}

	sink, err := e.Sink()
	if err != nil {
		return nil, err
	}
	if sink != nil {
		opts = append(opts, replay.WithLifecycleHooks(observability.TraceHooks(sink, e.Logger)))
	}
	if metrics != nil {
		opts = append(opts, replay.WithLifecycleHooks(metrics.Hooks()))
	}
	return opts, nil
}

// Close releases the log file and backend connections.
func (e *Environment) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("Run Start", "store", e.Store, "run_id", e.RunID, "no_stop", e.NoStop)
		},
		OnCheckpoint: func(ctx context.Context, e *domain.CheckpointEvent) {
			logger.Debug("Checkpoint", "store", e.Store, "step", e.Event.Step, "event", e.Event.Name)
		},
		OnHalt: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				logger.Debug("Run Halt (Error)", "store", e.Store, "steps", e.Steps, "err", e.Err)
			} else {
				logger.Debug("Run Halt", "store", e.Store, "steps", e.Steps, "duration", e.Duration)
			}
		},
	}
}

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() {
			signal.Stop(sc.sigCh)
		})
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}
