package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/algoviz/internal/logging"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/navigation"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/replay"
	"github.com/google/uuid"
)

// Session is a live visualizer session.
type Session struct {
	ID         string    `json:"id"`
	Visualizer string    `json:"visualizer"`
	CreatedAt  time.Time `json:"createdAt"`

	Store     registry.Session      `json:"-"`
	Navigator *navigation.Navigator `json:"-"`
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	registry *registry.Registry

	mu    sync.Mutex            // Global lock for the maps
	locks map[string]*lockEntry // Map of active locks

	sessions map[string]*Session

	storeOpts   []replay.Option
	maxSessions int
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStoreOptions applies opts to every store the Manager creates.
func WithStoreOptions(opts ...replay.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

// WithMaxSessions caps the number of live sessions. Zero means unlimited.
func WithMaxSessions(n int) Option {
	return func(m *Manager) {
		m.maxSessions = n
	}
}

// NewManager creates a new Session Manager over the visualizers of reg.
func NewManager(reg *registry.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: reg,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*Session),
		logger:   logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the visualizer registry.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create starts tracking a new idle session of the visualizer id.
func (m *Manager) Create(ctx context.Context, visualizerID string) (*Session, error) {
	id := uuid.NewString()
	opts := append(slices.Clip(m.storeOpts), replay.WithLogger(m.logger.With("session_id", id)))
	store, err := m.registry.NewSession(visualizerID, opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         id,
		Visualizer: visualizerID,
		CreatedAt:  time.Now(),
		Store:      store,
		Navigator:  navigation.New(store),
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %d sessions", ErrTooManySessions, m.maxSessions)
	}
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id, "visualizer", visualizerID)
	return s, nil
}

// Get returns the session id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b *Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return out
}

// Delete abandons the session's run and forgets it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context, s *Session) error {
		s.Store.Close()

		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()

		m.logger.Info("session deleted", "session_id", id)
		return nil
	})
}

// Close deletes every session.
func (m *Manager) Close(ctx context.Context) error {
	for _, s := range m.List() {
		if err := m.Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context, *Session) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}

// Start begins a new run of the session with loosely typed args.
func (m *Manager) Start(ctx context.Context, id string, args map[string]any, noStop bool) (*domain.Snapshot, error) {
	var view *domain.Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context, s *Session) error {
		if err := s.Store.Start(ctx, args, noStop); err != nil {
			return err
		}
		view = s.Store.View()
		return nil
	})
	return view, err
}

// Next resumes the live run of the session once.
func (m *Manager) Next(ctx context.Context, id string) (*domain.Snapshot, error) {
	var view *domain.Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context, s *Session) error {
		if err := s.Store.Next(ctx); err != nil {
			return err
		}
		view = s.Store.View()
		return nil
	})
	return view, err
}

// Forward steps the session's navigator ahead.
func (m *Manager) Forward(ctx context.Context, id string) (navigation.Frame, error) {
	var frame navigation.Frame
	err := m.WithLock(ctx, id, func(ctx context.Context, s *Session) error {
		if err := s.Navigator.Forward(ctx); err != nil {
			return err
		}
		frame = s.Navigator.Current()
		return nil
	})
	return frame, err
}

// Back steps the session's navigator into history.
func (m *Manager) Back(ctx context.Context, id string) (navigation.Frame, error) {
	var frame navigation.Frame
	err := m.WithLock(ctx, id, func(ctx context.Context, s *Session) error {
		s.Navigator.Back()
		frame = s.Navigator.Current()
		return nil
	})
	return frame, err
}

// Seek moves the session's navigator to timeline index i. A negative i returns to the live step.
func (m *Manager) Seek(ctx context.Context, id string, i int) (navigation.Frame, error) {
	var frame navigation.Frame
	err := m.WithLock(ctx, id, func(ctx context.Context, s *Session) error {
		if i < 0 {
			s.Navigator.Live()
		} else {
			s.Navigator.Seek(i)
		}
		frame = s.Navigator.Current()
		return nil
	})
	return frame, err
}
