package app

import (
	"context"
	"errors"
	"fmt"

	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/draft"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/feed"
	"tableflip.dev/journal/pkg/logging"
	"tableflip.dev/journal/pkg/store"
)

// Service provides high-level operations for journal entries.
// It wraps persistence and live feeds so the TUI and the CLI share logic.
type Service struct {
	Persistence store.Persistence
	Logger      logging.Logger
	Clock       clock.Clock
}

var ErrNoPersistence = errors.New("app: no persistence configured")

// EntryFeed follows one entry. A nil value means the entry does not exist.
type EntryFeed = feed.Feed[*entry.Entry]

// ListFeed follows the ordered list of non-empty entries.
type ListFeed = feed.Feed[[]*entry.Entry]

func (s *Service) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Nop()
	}
	return s.Logger
}

func (s *Service) now() clock.Clock {
	if s.Clock == nil {
		return clock.Real{}
	}
	return s.Clock
}

// Get returns the entry with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*entry.Entry, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	return s.Persistence.Get(ctx, id)
}

// Entries lists entries newest first. With all set, empty drafts are included.
func (s *Service) Entries(ctx context.Context, all bool) ([]*entry.Entry, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	if all {
		return s.Persistence.ListAll(ctx)
	}
	return s.Persistence.List(ctx)
}

// Watch subscribes to persistence change events.
func (s *Service) Watch(ctx context.Context) (<-chan store.Event, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	return s.Persistence.Watch(ctx)
}

// Insert stores a new entry and returns its id.
func (s *Service) Insert(ctx context.Context, e *entry.Entry) (int64, error) {
	if s.Persistence == nil {
		return 0, ErrNoPersistence
	}
	id, err := s.Persistence.Insert(ctx, e)
	if err != nil {
		return 0, err
	}
	s.logger().Debug(ctx, "entry inserted", "id", id)
	return id, nil
}

// Update rewrites an existing entry.
func (s *Service) Update(ctx context.Context, e *entry.Entry) error {
	if s.Persistence == nil {
		return ErrNoPersistence
	}
	if err := s.Persistence.Update(ctx, e); err != nil {
		return err
	}
	s.logger().Debug(ctx, "entry updated", "id", e.ID)
	return nil
}

// Upsert inserts e when it has no id, otherwise updates it.
func (s *Service) Upsert(ctx context.Context, e *entry.Entry) error {
	if s.Persistence == nil {
		return ErrNoPersistence
	}
	if err := s.Persistence.Upsert(ctx, e); err != nil {
		return err
	}
	s.logger().Debug(ctx, "entry saved", "id", e.ID)
	return nil
}

// Delete removes an entry permanently.
func (s *Service) Delete(ctx context.Context, e *entry.Entry) error {
	if s.Persistence == nil {
		return ErrNoPersistence
	}
	if err := s.Persistence.Delete(ctx, e); err != nil {
		return err
	}
	if e != nil {
		s.logger().Debug(ctx, "entry deleted", "id", e.ID)
	}
	return nil
}

// DeleteID removes the entry with the given id, failing when it is missing.
func (s *Service) DeleteID(ctx context.Context, id int64) (*entry.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a blank draft entry so it can be opened in the editor.
func (s *Service) Create(ctx context.Context) (*entry.Entry, error) {
	e := entry.NewDraft()
	if _, err := s.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Prune deletes every empty entry, typically drafts left behind when an
// editor did not exit cleanly. It returns how many were removed.
func (s *Service) Prune(ctx context.Context) (int, error) {
	all, err := s.Entries(ctx, true)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range all {
		if !e.Empty() {
			continue
		}
		if err := s.Persistence.Delete(ctx, e); err != nil {
			return removed, fmt.Errorf("app: prune %d: %w", e.ID, err)
		}
		removed++
	}
	if removed > 0 {
		s.logger().Info(ctx, "pruned empty entries", "count", removed)
	}
	return removed, nil
}

// Subscribe follows a single entry. The feed emits the current value first
// and then every change; a missing entry is delivered as nil.
func (s *Service) Subscribe(ctx context.Context, id int64) (*EntryFeed, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	load := func(ctx context.Context) (*entry.Entry, error) {
		e, err := s.Persistence.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return e, err
	}
	return feed.Start[*entry.Entry](ctx, s.signals(func(ev store.Event) bool { return ev.Affects(id) }), load,
		feed.WithEqual((*entry.Entry).Equal),
		feed.WithLogger[*entry.Entry](s.logger().With("feed", "entry", "id", id)))
}

// SubscribeAll follows the ordered list of non-empty entries.
func (s *Service) SubscribeAll(ctx context.Context) (*ListFeed, error) {
	if s.Persistence == nil {
		return nil, ErrNoPersistence
	}
	return feed.Start[[]*entry.Entry](ctx, s.signals(nil), s.Persistence.List,
		feed.WithEqual(sameList),
		feed.WithLogger[[]*entry.Entry](s.logger().With("feed", "list")))
}

func (s *Service) signals(match func(store.Event) bool) feed.SignalSource {
	return func(ctx context.Context) (<-chan struct{}, error) {
		events, err := s.Persistence.Watch(ctx)
		if err != nil {
			return nil, err
		}
		return feed.Coalesce(events, match), nil
	}
}

func sameList(a, b []*entry.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// DraftSource adapts Subscribe for draft sessions.
func (s *Service) DraftSource() draft.Source {
	return draft.SourceFunc(func(ctx context.Context, id int64) (draft.Feed, error) {
		f, err := s.Subscribe(ctx, id)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
}

// Drafts returns a draft manager writing through this service.
func (s *Service) Drafts(opts ...draft.Option) *draft.Manager {
	opts = append([]draft.Option{draft.WithClock(s.now()), draft.WithLogger(s.logger())}, opts...)
	return draft.NewManager(s.DraftSource(), s, opts...)
}
