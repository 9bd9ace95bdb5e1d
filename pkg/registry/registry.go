// Package registry keeps the catalog of visualizers and erases their argument
// types so hosts can start them from loosely typed input.
package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/replay"
	"github.com/mitchellh/mapstructure"
)

// Describer renders a recorded step as one line of text.
type Describer func(ev domain.StoredEvent) string

// Visualizer is a registered algorithm together with its manifest.
type Visualizer interface {
	Manifest() domain.Manifest

	// DefaultArgs returns the arguments a start form is seeded with.
	DefaultArgs() (map[string]any, error)

	// NewSession creates an idle store for the algorithm.
	NewSession(opts ...replay.Option) Session
}

// Session is a store whose arguments are decoded from a map.
type Session interface {
	Manifest() domain.Manifest
	Start(ctx context.Context, args map[string]any, noStop bool) error
	Next(ctx context.Context) error
	View() *domain.Snapshot
	Subscribe(fn func()) func()
	Wait(ctx context.Context) error
	Close()
	Describe(ev domain.StoredEvent) string
}

// Registry manages the available visualizers.
type Registry struct {
	mu          sync.RWMutex
	visualizers map[string]Visualizer
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		visualizers: make(map[string]Visualizer),
	}
}

// Register adds a visualizer to the registry.
// If a visualizer with the same ID exists, it is overwritten.
func (r *Registry) Register(v Visualizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visualizers[v.Manifest().ID] = v
}

// Get looks up a visualizer by ID.
func (r *Registry) Get(id string) (Visualizer, error) {
	r.mu.RLock()
	v, ok := r.visualizers[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrVisualizerNotFound, id)
	}
	return v, nil
}

// List returns the manifests of all visualizers, sorted by ID.
func (r *Registry) List() []domain.Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Manifest, 0, len(r.visualizers))
	for _, v := range r.visualizers {
		out = append(out, v.Manifest())
	}
	slices.SortFunc(out, func(a, b domain.Manifest) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// NewSession creates a session of the visualizer id.
func (r *Registry) NewSession(id string, opts ...replay.Option) (Session, error) {
	v, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return v.NewSession(opts...), nil
}

// Define builds a Visualizer from a typed algorithm.
// defaults seeds every decode; describe may be nil.
func Define[A any](m domain.Manifest, algo replay.Algorithm[A], defaults func() A, describe Describer) Visualizer {
	return &definition[A]{
		manifest: m,
		algo:     algo,
		defaults: defaults,
		describe: describe,
	}
}

type definition[A any] struct {
	manifest domain.Manifest
	algo     replay.Algorithm[A]
	defaults func() A
	describe Describer
}

func (d *definition[A]) Manifest() domain.Manifest {
	return d.manifest
}

func (d *definition[A]) DefaultArgs() (map[string]any, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(d.defaults(), &out); err != nil {
		return nil, fmt.Errorf("failed to encode default args of %s: %w", d.manifest.ID, err)
	}
	return out, nil
}

func (d *definition[A]) NewSession(opts ...replay.Option) Session {
	opts = append([]replay.Option{replay.WithName(d.manifest.ID)}, opts...)
	return &session[A]{
		def:   d,
		store: replay.New(d.algo, opts...),
	}
}

// decode overlays raw on the default arguments.
// Strings are sanitized first. Unknown keys are rejected; numbers and strings are converted loosely.
func (d *definition[A]) decode(raw map[string]any) (A, error) {
	args := d.defaults()
	if len(raw) == 0 {
		return args, nil
	}
	raw, err := sanitizeArgs(raw)
	if err != nil {
		return args, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &args,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return args, err
	}
	if err := dec.Decode(raw); err != nil {
		return args, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return args, nil
}

type session[A any] struct {
	def   *definition[A]
	store *replay.Store[A]
}

func (s *session[A]) Manifest() domain.Manifest {
	return s.def.manifest
}

func (s *session[A]) Start(ctx context.Context, raw map[string]any, noStop bool) error {
	args, err := s.def.decode(raw)
	if err != nil {
		return err
	}
	return s.store.Start(ctx, args, noStop)
}

func (s *session[A]) Next(ctx context.Context) error {
	return s.store.Next(ctx)
}

func (s *session[A]) View() *domain.Snapshot {
	return s.store.View()
}

func (s *session[A]) Subscribe(fn func()) func() {
	return s.store.Subscribe(fn)
}

func (s *session[A]) Wait(ctx context.Context) error {
	return s.store.Wait(ctx)
}

func (s *session[A]) Close() {
	s.store.Close()
}

func (s *session[A]) Describe(ev domain.StoredEvent) string {
	if ev.IsError() {
		return "error: " + ev.Message()
	}
	if s.def.describe == nil {
		return fmt.Sprintf("%s %v", ev.Name, ev.Args)
	}
	return s.def.describe(ev)
}
