package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tableflip.dev/journal/pkg/entry"
)

type fakeFeed struct {
	updates chan *entry.Entry
	once    sync.Once
	stopped chan struct{}
}

func newFakeFeed(initial ...*entry.Entry) *fakeFeed {
	f := &fakeFeed{updates: make(chan *entry.Entry, 16), stopped: make(chan struct{})}
	for _, e := range initial {
		f.updates <- e.Copy()
	}
	return f
}

func (f *fakeFeed) Updates() <-chan *entry.Entry { return f.updates }

func (f *fakeFeed) Unsubscribe() {
	f.once.Do(func() {
		close(f.stopped)
		close(f.updates)
	})
}

func (f *fakeFeed) send(e *entry.Entry) {
	f.updates <- e.Copy()
}

func (f *fakeFeed) unsubscribed() bool {
	select {
	case <-f.stopped:
		return true
	default:
		return false
	}
}

// feeds hands out prepared feeds per id.
type feeds struct {
	mu    sync.Mutex
	byID  map[int64]*fakeFeed
	calls []int64
}

func newFeeds() *feeds {
	return &feeds{byID: make(map[int64]*fakeFeed)}
}

func (fs *feeds) set(id int64, f *fakeFeed) *fakeFeed {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.byID[id] = f
	return f
}

func (fs *feeds) Subscribe(_ context.Context, id int64) (Feed, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, id)
	f, ok := fs.byID[id]
	if !ok {
		f = newFakeFeed()
		fs.byID[id] = f
	}
	return f, nil
}

type write struct {
	kind    string
	id      int64
	title   string
	content string
}

func (w write) String() string {
	return fmt.Sprintf("%s(%d %q %q)", w.kind, w.id, w.title, w.content)
}

type fakeSink struct {
	mu     sync.Mutex
	writes []write
	// failures makes the next n writes fail.
	failures int
	attempts int
	nextID   int64
}

var errDiskFull = errors.New("disk full")

func (s *fakeSink) record(kind string, e *entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failures > 0 {
		s.failures--
		return errDiskFull
	}
	s.writes = append(s.writes, write{kind: kind, id: e.ID, title: e.Title, content: e.Content})
	return nil
}

func (s *fakeSink) Upsert(_ context.Context, e *entry.Entry) error { return s.record("upsert", e) }
func (s *fakeSink) Delete(_ context.Context, e *entry.Entry) error { return s.record("delete", e) }

func (s *fakeSink) all() []write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]write(nil), s.writes...)
}

// creatingSink also satisfies Creator.
type creatingSink struct {
	fakeSink
	feeds *feeds
}

func (s *creatingSink) Create(context.Context) (*entry.Entry, error) {
	s.mu.Lock()
	s.nextID++
	e := &entry.Entry{ID: s.nextID, Draft: true}
	s.mu.Unlock()
	s.feeds.set(e.ID, newFakeFeed(e))
	return e, nil
}

func expectWrites(t *testing.T, sink *fakeSink, want ...write) {
	t.Helper()
	got := sink.all()
	if len(got) != len(want) {
		t.Fatalf("expected writes %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("write %d: expected %v, got %v (all %v)", i, want[i], got[i], got)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func flush(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Flush(ctx); err != nil && errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("flush: %v", err)
	}
}

func closeSession(t *testing.T, s *Session) (Outcome, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.Close(ctx)
}
