package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/logging"
)

// ErrNotFound is returned when no entry is stored under the requested id.
var ErrNotFound = errors.New("store: entry not found")

// Persistence defines the persistence contract for journal entries.
//
// Insert, Update and Upsert stamp the entry's Timestamp with the store clock
// and write the assigned id and timestamps back into the argument.
type Persistence interface {
	Get(ctx context.Context, id int64) (*entry.Entry, error)
	// List returns non-empty entries, newest first.
	List(ctx context.Context) ([]*entry.Entry, error)
	// ListAll returns every entry including empty drafts, newest first.
	ListAll(ctx context.Context) ([]*entry.Entry, error)
	Insert(ctx context.Context, e *entry.Entry) (int64, error)
	Update(ctx context.Context, e *entry.Entry) error
	// Upsert inserts when the id is unset or unknown, otherwise updates.
	Upsert(ctx context.Context, e *entry.Entry) error
	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, e *entry.Entry) error
	Watch(ctx context.Context) (<-chan Event, error)
	Close() error
}

const (
	DriverDiskv  = "diskv"
	DriverSQLite = "sqlite"
)

// Option customises a Persistence created by Load.
type Option func(*options)

type options struct {
	clock  clock.Clock
	logger logging.Logger
}

// WithClock overrides the clock used to stamp entries.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger used for unreadable records and watcher errors.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Load creates the Persistence selected by cfg.Driver. A nil cfg loads the
// configuration from file and environment.
func Load(cfg Config, opts ...Option) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	o := options{clock: clock.Real{}, logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	switch strings.ToLower(cfg.Driver()) {
	case "", DriverDiskv:
		return openDiskv(cfg.BasePath(), cfg.WatchFiles(), o)
	case DriverSQLite:
		return openSQLite(cfg.BasePath(), cfg.WatchFiles(), o)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver())
	}
}
