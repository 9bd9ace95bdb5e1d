package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/algoviz/pkg/domain"
)

// run is one execution of the algorithm. It implements Tracer.
//
// state, step, events and last are owned by the algorithm goroutine; the driver
// only reads them through published snapshots. resume and parked are guarded by store.mu.
type run[A any] struct {
	store   *Store[A]
	id      string
	gen     uint64
	config  domain.Config
	started time.Time

	ctx    context.Context
	cancel context.CancelFunc

	state  domain.State
	step   int
	events domain.Timeline
	last   *domain.StoredEvent
	err    error

	// resume is the pending continuation, nil unless the algorithm is parked.
	resume chan struct{}
	// parked is closed (and replaced) every time the algorithm hands control back.
	parked chan struct{}
	done   chan struct{}
}

func newRun[A any](s *Store[A], gen uint64, cfg domain.Config) *run[A] {
	ctx, cancel := context.WithCancel(context.Background())
	r := &run[A]{
		store:   s,
		id:      newRunID(),
		gen:     gen,
		config:  cfg,
		started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
		state:   domain.State{},
		parked:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cfg.StoreEvents {
		r.events = domain.Timeline{}
	}
	return r
}

// retire orphans the run. Caller holds store.mu.
func (r *run[A]) retire() {
	r.resume = nil
	r.cancel()
}

// wake signals the driver that the algorithm handed control back. Caller holds store.mu.
func (r *run[A]) wake() {
	close(r.parked)
	r.parked = make(chan struct{})
}

func (r *run[A]) execute(args A) {
	defer close(r.done)
	defer r.cancel()

	err := r.invoke(args)
	r.store.finish(r, err)
}

func (r *run[A]) invoke(args A) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &domain.AlgorithmError{
				RunID:    r.id,
				Step:     r.step,
				Panicked: true,
				Cause:    fmt.Errorf("%v", p),
			}
		}
	}()
	return r.store.algo(r.ctx, r, args)
}

func (r *run[A]) Bind(key string, value any) {
	if !isReference(value) {
		r.store.opts.logger.Warn("bound value is not a reference and will not be watched for changes; pass it to Here or use Update",
			"key", key,
			"type", fmt.Sprintf("%T", value),
		)
	}
	r.state[key] = value
}

func (r *run[A]) Update(key string, value any) {
	r.state[key] = value
}

func (r *run[A]) Here(ctx context.Context, name string, args ...any) error {
	if name == domain.EventError {
		return domain.ErrReservedEvent
	}
	if r.ctx.Err() != nil {
		return domain.ErrSuperseded
	}

	r.step++
	ev := domain.StoredEvent{
		Event: domain.Event{Name: name, Args: cloneArgs(args)},
		Step:  r.step,
		At:    time.Now(),
	}
	if r.config.StoreStates {
		ev.State = cloneState(r.state)
	}
	if r.config.StoreEvents {
		r.events = append(r.events, ev)
	}
	r.last = &ev

	if hook := r.store.opts.hooks.OnCheckpoint; hook != nil {
		hook(ctx, &domain.CheckpointEvent{
			RunID:      r.id,
			Store:      r.store.opts.name,
			Generation: r.gen,
			Event:      ev,
			Suspended:  !r.config.NoStop,
		})
	}
	r.store.opts.logger.Debug("checkpoint", "run_id", r.id, "step", r.step, "event", name)

	if r.config.NoStop {
		return nil
	}

	resume := make(chan struct{})
	if !r.store.park(r, resume) {
		return domain.ErrSuperseded
	}

	select {
	case <-resume:
		return nil
	case <-r.ctx.Done():
		return domain.ErrSuperseded
	case <-ctx.Done():
		// ctx is usually r.ctx itself, so both cases may be ready at once.
		if r.ctx.Err() != nil {
			return domain.ErrSuperseded
		}
		return ctx.Err()
	}
}
