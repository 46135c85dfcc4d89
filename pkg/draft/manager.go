package draft

import (
	"context"
	"sync"
)

// Manager owns the active Session. Opening a session closes the previous one
// first, so timers and writes never leak across sessions.
type Manager struct {
	source Source
	sink   Sink
	opts   []Option

	mu       sync.Mutex
	active   *Session
	shutdown bool
}

func NewManager(source Source, sink Sink, opts ...Option) *Manager {
	return &Manager{source: source, sink: sink, opts: opts}
}

// Open closes the active session, running its exit reconciliation, then opens
// a session for id.
func (m *Manager) Open(ctx context.Context, id int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return nil, ErrShutdown
	}
	m.closeActiveLocked(ctx)
	return m.openLocked(ctx, id)
}

// Create asks the sink for a new blank entry and opens a session for it.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	creator, ok := m.sink.(Creator)
	if !ok {
		return nil, ErrNoCreator
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shutdown {
		return nil, ErrShutdown
	}
	m.closeActiveLocked(ctx)
	e, err := creator.Create(ctx)
	if err != nil {
		return nil, err
	}
	return m.openLocked(ctx, e.ID)
}

// Active returns the live session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Close closes the active session. Without one it reports OutcomeNone.
func (m *Manager) Close(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeActiveLocked(ctx)
}

// Shutdown closes the active session and refuses further opens.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = true
	_, err := m.closeActiveLocked(ctx)
	return err
}

func (m *Manager) openLocked(ctx context.Context, id int64) (*Session, error) {
	s, err := Open(ctx, id, m.source, m.sink, m.opts...)
	if err != nil {
		return nil, err
	}
	m.active = s
	return s, nil
}

func (m *Manager) closeActiveLocked(ctx context.Context) (Outcome, error) {
	if m.active == nil {
		return OutcomeNone, nil
	}
	s := m.active
	m.active = nil
	outcome, err := s.Close(ctx)
	if err != nil {
		s.log.Error(ctx, "closing draft", "outcome", outcome, "err", err)
	}
	return outcome, err
}
