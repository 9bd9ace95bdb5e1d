package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/google/uuid"
)

// Algorithm is an instrumented function driven by a Store.
// It must return promptly when Here returns an error.
type Algorithm[A any] func(ctx context.Context, t Tracer, args A) error

// Tracer is the handle an algorithm uses to expose its working state and checkpoints.
type Tracer interface {
	// Bind installs or replaces a field of the working state.
	// Only reference-shaped values (maps, slices, pointers) keep reflecting later mutations.
	Bind(key string, value any)

	// Update writes a field of the working state.
	Update(key string, value any)

	// Here records a checkpoint and, unless the run is unattended, blocks until the host resumes it.
	Here(ctx context.Context, name string, args ...any) error
}

// Snapshot is a published view of a Store plus controls bound to the run it was taken in.
type Snapshot[A any] struct {
	domain.Snapshot
	store *Store[A]
}

// Next resumes the run this snapshot belongs to. It is a no-op once a newer run started.
func (s *Snapshot[A]) Next(ctx context.Context) error {
	return s.store.resume(ctx, s.Generation, true)
}

// Start begins a new run on the owning store.
func (s *Snapshot[A]) Start(ctx context.Context, args A, noStop bool) error {
	return s.store.Start(ctx, args, noStop)
}

// View returns the data part of the snapshot.
func (s *Snapshot[A]) View() *domain.Snapshot {
	return &s.Snapshot
}

type subscriber struct {
	id uint64
	fn func()
}

// Store is the runtime store of one algorithm. It is long-lived and safe for concurrent readers.
type Store[A any] struct {
	algo Algorithm[A]
	opts options

	mu          sync.Mutex
	generation  uint64
	current     *run[A]
	snapshot    *Snapshot[A]
	subscribers []subscriber
	nextSubID   uint64
}

// New creates a store for algo.
func New[A any](algo Algorithm[A], opts ...Option) *Store[A] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.name != "" {
		o.logger = o.logger.With("store", o.name)
	}

	s := &Store[A]{
		algo: algo,
		opts: o,
	}
	s.snapshot = &Snapshot[A]{
		Snapshot: domain.Snapshot{
			Status: domain.StatusIdle,
			Config: o.config,
		},
		store: s,
	}
	return s
}

// Name returns the label given with WithName.
func (s *Store[A]) Name() string {
	return s.opts.name
}

// Start resets the store and runs algo with args.
// It returns once the run parks at its first checkpoint or halts; with noStop that means completion.
// A run already in progress is superseded: its continuation is dropped and never invoked.
func (s *Store[A]) Start(ctx context.Context, args A, noStop bool) error {
	cfg := s.opts.config
	cfg.NoStop = noStop

	s.mu.Lock()
	if old := s.current; old != nil {
		old.retire()
		s.opts.logger.Debug("run superseded", "run_id", old.id, "generation", old.gen)
	}
	s.generation++
	r := newRun(s, s.generation, cfg)
	s.current = r
	wake := r.parked
	s.snapshot = s.snapshotOf(r, domain.StatusRunning)
	s.mu.Unlock()

	s.notify()

	s.opts.logger.Info("run started", "run_id", r.id, "generation", r.gen, "no_stop", noStop)
	if s.opts.hooks.OnStart != nil {
		s.opts.hooks.OnStart(r.ctx, &domain.RunEvent{
			RunID:      r.id,
			Store:      s.opts.name,
			Generation: r.gen,
			NoStop:     noStop,
		})
	}

	go r.execute(args)

	return await(ctx, wake)
}

// Next resumes the suspended algorithm exactly once and returns when it parks again or halts.
// Without a pending continuation it is a no-op.
func (s *Store[A]) Next(ctx context.Context) error {
	return s.resume(ctx, 0, false)
}

func (s *Store[A]) resume(ctx context.Context, gen uint64, bound bool) error {
	s.mu.Lock()
	r := s.current
	if r == nil || r.resume == nil || (bound && r.gen != gen) {
		s.mu.Unlock()
		return nil
	}
	cont := r.resume
	r.resume = nil
	wake := r.parked
	s.mu.Unlock()

	close(cont)
	return await(ctx, wake)
}

// Close abandons the current run and publishes an idle snapshot.
// The abandoned algorithm gets ErrSuperseded at its next checkpoint. The store may be started again.
func (s *Store[A]) Close() {
	s.mu.Lock()
	r := s.current
	if r == nil {
		s.mu.Unlock()
		return
	}
	r.retire()
	s.generation++
	s.current = nil
	s.snapshot = &Snapshot[A]{
		Snapshot: domain.Snapshot{
			Generation: s.generation,
			Status:     domain.StatusIdle,
			Config:     s.opts.config,
		},
		store: s,
	}
	s.mu.Unlock()

	s.notify()
	s.opts.logger.Debug("run closed", "run_id", r.id, "generation", r.gen)
}

// Wait blocks until the current run halts.
func (s *Store[A]) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published snapshot. The pointer changes on every observable change.
func (s *Store[A]) Snapshot() *Snapshot[A] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// View returns the data part of the latest snapshot.
func (s *Store[A]) View() *domain.Snapshot {
	return &s.Snapshot().Snapshot
}

// Status returns the lifecycle phase of the store.
func (s *Store[A]) Status() domain.Status {
	return s.Snapshot().Status
}

// Subscribe registers fn to be called after every published snapshot.
// The returned function removes the subscription.
func (s *Store[A]) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[A]) notify() {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}

// park publishes the checkpoint of r, notifies subscribers, then installs the
// continuation and hands control back to the driver.
// It returns false when r no longer owns the store.
func (s *Store[A]) park(r *run[A], resume chan struct{}) bool {
	s.mu.Lock()
	if r.gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.snapshot = s.snapshotOf(r, domain.StatusRunning)
	s.mu.Unlock()

	s.notify()

	s.mu.Lock()
	defer s.mu.Unlock()
	if r.gen != s.generation {
		return false
	}
	r.resume = resume
	r.wake()
	return true
}

// finish publishes the terminal snapshot of r, unless r was superseded.
func (s *Store[A]) finish(r *run[A], err error) {
	s.mu.Lock()
	if r.gen != s.generation {
		r.wake()
		s.mu.Unlock()
		s.opts.logger.Debug("superseded run exited", "run_id", r.id, "generation", r.gen, "err", err)
		return
	}

	r.resume = nil
	if err != nil {
		var algErr *domain.AlgorithmError
		if !errors.As(err, &algErr) {
			algErr = &domain.AlgorithmError{RunID: r.id, Step: r.step, Cause: err}
		}
		r.err = algErr
		r.last = &domain.StoredEvent{
			Event: domain.Event{Name: domain.EventError, Err: algErr},
			Step:  r.step,
			State: stateOf(r.last),
			At:    time.Now(),
		}
	}
	s.snapshot = s.snapshotOf(r, domain.StatusHalted)
	s.mu.Unlock()

	s.notify()

	if r.err != nil {
		s.opts.logger.Warn("run failed", "run_id", r.id, "steps", r.step, "err", r.err)
	} else {
		s.opts.logger.Info("run halted", "run_id", r.id, "steps", r.step)
	}
	if s.opts.hooks.OnHalt != nil {
		s.opts.hooks.OnHalt(context.WithoutCancel(r.ctx), &domain.RunEvent{
			RunID:      r.id,
			Store:      s.opts.name,
			Generation: r.gen,
			Steps:      r.step,
			NoStop:     r.config.NoStop,
			Err:        r.err,
			Duration:   time.Since(r.started),
		})
	}

	s.mu.Lock()
	r.wake()
	s.mu.Unlock()
}

// snapshotOf builds a snapshot of r. Caller holds s.mu.
func (s *Store[A]) snapshotOf(r *run[A], status domain.Status) *Snapshot[A] {
	snap := &Snapshot[A]{
		Snapshot: domain.Snapshot{
			RunID:       r.id,
			Generation:  r.gen,
			Status:      status,
			CurState:    stateOf(r.last),
			CurEvent:    r.last,
			CurrentStep: r.step,
			Config:      r.config,
			Err:         r.err,
		},
		store: s,
	}
	if r.config.StoreEvents {
		n := len(r.events)
		snap.Events = r.events[:n:n]
	}
	return snap
}

func stateOf(ev *domain.StoredEvent) domain.State {
	if ev == nil {
		return nil
	}
	return ev.State
}

func await(ctx context.Context, wake <-chan struct{}) error {
	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for algorithm: %w", ctx.Err())
	}
}

func newRunID() string {
	return uuid.NewString()
}
