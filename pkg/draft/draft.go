// Package draft keeps the editable copy of one journal entry in step with the
// store while it is being edited.
//
// A Session loads the entry once, debounces edits into background upserts and,
// when closed, either saves the final text, deletes the entry when it was left
// blank, or does nothing. A Manager owns at most one live Session and is the
// single place sessions are torn down.
package draft

import (
	"context"
	"errors"

	"tableflip.dev/journal/pkg/entry"
)

var (
	// ErrLoading is returned for edits made before the entry was loaded.
	ErrLoading = errors.New("draft: entry is still loading")
	// ErrClosed is returned for edits made after the session was closed.
	ErrClosed = errors.New("draft: session closed")
	// ErrShutdown is returned by a Manager that no longer opens sessions.
	ErrShutdown = errors.New("draft: manager shut down")
	// ErrNoCreator is returned by Manager.Create when the sink cannot create
	// entries.
	ErrNoCreator = errors.New("draft: sink cannot create entries")
)

// Feed is a live view of one stored entry. A nil value means the entry is
// absent. Updates must be closed once Unsubscribe returns.
type Feed interface {
	Updates() <-chan *entry.Entry
	Unsubscribe()
}

// Source opens a Feed for an entry id.
type Source interface {
	Subscribe(ctx context.Context, id int64) (Feed, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, id int64) (Feed, error)

func (f SourceFunc) Subscribe(ctx context.Context, id int64) (Feed, error) {
	return f(ctx, id)
}

// Sink persists session writes.
type Sink interface {
	Upsert(ctx context.Context, e *entry.Entry) error
	Delete(ctx context.Context, e *entry.Entry) error
}

// Creator is implemented by sinks that can create a new blank entry.
type Creator interface {
	Create(ctx context.Context) (*entry.Entry, error)
}

// State is the lifecycle position of a Session.
type State int

const (
	// Loading waits for the first stored value.
	Loading State = iota
	// Prefilled holds the stored text, not yet edited.
	Prefilled
	// Editing has accepted at least one edit.
	Editing
	// Closed is terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Prefilled:
		return "prefilled"
	case Editing:
		return "editing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Outcome is the action taken when a Session closed.
type Outcome int

const (
	// OutcomeNone means the entry was never loaded, or vanished.
	OutcomeNone Outcome = iota
	// OutcomeDeleted means the entry was left blank and removed.
	OutcomeDeleted
	// OutcomeSaved means a final upsert carried unsaved text.
	OutcomeSaved
	// OutcomeUnchanged means the store already held the final text.
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeDeleted:
		return "deleted"
	case OutcomeSaved:
		return "saved"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}
