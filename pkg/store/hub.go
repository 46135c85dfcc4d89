package store

import (
	"context"
	"sync"
)

// EventType describes the nature of a persistence change notification.
type EventType int

const (
	// EventEntryChanged indicates the entry with the given id was inserted or
	// updated.
	EventEntryChanged EventType = iota

	// EventEntryDeleted indicates the entry with the given id was removed.
	EventEntryDeleted

	// EventEntriesInvalidated signals that changes could not be attributed to
	// a single entry (or some were dropped) and callers should refresh their
	// full view.
	EventEntriesInvalidated
)

func (t EventType) String() string {
	switch t {
	case EventEntryChanged:
		return "changed"
	case EventEntryDeleted:
		return "deleted"
	case EventEntriesInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Event is emitted by Persistence.Watch when underlying storage changes.
type Event struct {
	Type EventType
	ID   int64
}

// Affects reports whether a subscriber interested in id should reload.
func (e Event) Affects(id int64) bool {
	return e.Type == EventEntriesInvalidated || e.ID == id
}

const watchBuffer = 64

// hub fans store changes out to Watch subscribers in-process. Both local
// writes and the filesystem watcher publish into it.
type hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]*hubSub
	closed bool
}

type hubSub struct {
	ch chan Event
	// lost is set when an event was dropped for a slow consumer; the next
	// publish sends an invalidation first so the consumer resyncs.
	lost bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]*hubSub)}
}

func (h *hub) subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, watchBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	id := h.next
	h.next++
	h.subs[id] = &hubSub{ch: ch}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}()
	return ch
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if sub.lost {
			select {
			case sub.ch <- Event{Type: EventEntriesInvalidated}:
				sub.lost = false
			default:
				continue
			}
		}
		select {
		case sub.ch <- ev:
		default:
			// Drop rather than block the writer; the consumer gets an
			// invalidation once it catches up.
			sub.lost = true
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}
