package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/entry"
)

const window = DefaultDebounce

type harness struct {
	clock *clock.Fake
	feeds *feeds
	sink  *fakeSink
}

func newHarness() *harness {
	return &harness{clock: clock.Fixed(), feeds: newFeeds(), sink: &fakeSink{}}
}

func (h *harness) open(t *testing.T, id int64, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithClock(h.clock), WithBackoff(time.Millisecond)}, opts...)
	s, err := Open(context.Background(), id, h.feeds, h.sink, opts...)
	if err != nil {
		t.Fatalf("open %d: %v", id, err)
	}
	return s
}

func stored(id int64, title, content string) *entry.Entry {
	return &entry.Entry{ID: id, Title: title, Content: content}
}

func TestOpenPrefillsFromFeed(t *testing.T) {
	h := newHarness()
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)
	defer closeSession(t, s)

	if s.State() != Prefilled {
		t.Fatalf("expected prefilled, got %s", s.State())
	}
	select {
	case <-s.Loaded():
	default:
		t.Fatal("Loaded should be closed after prefill")
	}
	if title, content := s.Buffer(); title != "A" || content != "B" {
		t.Fatalf("buffer %q %q", title, content)
	}
}

func TestEditsRejectedWhileLoading(t *testing.T) {
	h := newHarness()
	f := h.feeds.set(4, newFakeFeed())
	s := h.open(t, 4)
	defer closeSession(t, s)

	if err := s.SetTitle("too early"); !errors.Is(err, ErrLoading) {
		t.Fatalf("expected ErrLoading, got %v", err)
	}

	f.send(stored(4, "late", ""))
	select {
	case <-s.Loaded():
	case <-time.After(2 * time.Second):
		t.Fatal("session never loaded")
	}
	if err := s.SetTitle("now"); err != nil {
		t.Fatalf("edit after load: %v", err)
	}
	if s.State() != Editing {
		t.Fatalf("expected editing, got %s", s.State())
	}
}

func TestNotFoundStaysLoading(t *testing.T) {
	h := newHarness()
	f := h.feeds.set(9, newFakeFeed(nil))
	s := h.open(t, 9)

	f.send(nil)
	h.clock.Advance(time.Hour)
	if s.State() != Loading {
		t.Fatalf("expected loading, got %s", s.State())
	}
	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeNone {
		t.Fatalf("close: %s %v", outcome, err)
	}
	expectWrites(t, h.sink)
}

func TestNoWriteWhenBufferMatchesStored(t *testing.T) {
	h := newHarness()
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)

	_ = s.SetTitle("A changed")
	h.clock.Advance(window / 2)
	_ = s.SetTitle("A")
	h.clock.Advance(window)
	flush(t, s)
	expectWrites(t, h.sink)

	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeUnchanged {
		t.Fatalf("close: %s %v", outcome, err)
	}
	expectWrites(t, h.sink)
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	h := newHarness()
	h.feeds.set(1, newFakeFeed(stored(1, "", "")))
	s := h.open(t, 1)
	defer closeSession(t, s)

	for _, title := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		if err := s.SetTitle(title); err != nil {
			t.Fatalf("edit: %v", err)
		}
		h.clock.Advance(100 * time.Millisecond)
	}
	_ = s.SetContent("world")
	h.clock.Advance(window - time.Millisecond)
	flush(t, s)
	expectWrites(t, h.sink)

	h.clock.Advance(time.Millisecond)
	flush(t, s)
	expectWrites(t, h.sink, write{"upsert", 1, "Hello", "world"})
	if h.clock.Pending() != 0 {
		t.Fatalf("no timer should remain, %d pending", h.clock.Pending())
	}
}

func TestSettledValueWrittenOnce(t *testing.T) {
	h := newHarness()
	h.feeds.set(5, newFakeFeed(stored(5, "t", "")))
	s := h.open(t, 5)
	defer closeSession(t, s)

	_ = s.SetContent("one")
	h.clock.Advance(window)
	_ = s.SetContent("two")
	h.clock.Advance(window)
	_ = s.SetContent("three")
	_ = s.SetContent("two")
	h.clock.Advance(window)
	flush(t, s)

	expectWrites(t, h.sink,
		write{"upsert", 5, "t", "one"},
		write{"upsert", 5, "t", "two"},
	)
}

// Typing a title into a fresh draft saves after the window; leaving right
// away finds nothing left to save.
func TestTypeTitleThenLeave(t *testing.T) {
	h := newHarness()
	h.feeds.set(1, newFakeFeed(&entry.Entry{ID: 1, Draft: true}))
	s := h.open(t, 1)

	_ = s.SetTitle("Hello")
	h.clock.Advance(window + 10*time.Millisecond)
	flush(t, s)
	expectWrites(t, h.sink, write{"upsert", 1, "Hello", ""})

	outcome, err := closeSession(t, s)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if outcome != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome)
	}
	expectWrites(t, h.sink, write{"upsert", 1, "Hello", ""})
}

func TestUntouchedDraftIsDeleted(t *testing.T) {
	h := newHarness()
	h.feeds.set(2, newFakeFeed(&entry.Entry{ID: 2, Draft: true}))
	s := h.open(t, 2)

	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeDeleted {
		t.Fatalf("close: %s %v", outcome, err)
	}
	expectWrites(t, h.sink, write{"delete", 2, "", ""})
}

func TestSupersededEditNeverWritten(t *testing.T) {
	h := newHarness()
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)
	defer closeSession(t, s)

	_ = s.SetContent("B2")
	h.clock.Advance(window - time.Millisecond)
	_ = s.SetContent("B3")
	h.clock.Advance(window)
	flush(t, s)

	expectWrites(t, h.sink, write{"upsert", 3, "A", "B3"})
}

func TestBlankExitDeletesAndCancelsPendingSave(t *testing.T) {
	h := newHarness()
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)

	_ = s.SetText(" ", "\t")
	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeDeleted {
		t.Fatalf("close: %s %v", outcome, err)
	}
	h.clock.Advance(10 * window)
	flush(t, s)

	expectWrites(t, h.sink, write{"delete", 3, "A", "B"})
}

func TestExitSavesLatestBufferBeforeDebounce(t *testing.T) {
	h := newHarness()
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)

	_ = s.SetContent("B2")
	h.clock.Advance(window)
	_ = s.SetContent("B2 and more")
	h.clock.Advance(window / 4)

	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeSaved {
		t.Fatalf("close: %s %v", outcome, err)
	}
	h.clock.Advance(10 * window)

	expectWrites(t, h.sink,
		write{"upsert", 3, "A", "B2"},
		write{"upsert", 3, "A", "B2 and more"},
	)
}

func TestRemoteChangesDoNotOverwriteBuffer(t *testing.T) {
	h := newHarness()
	f := h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)

	_ = s.SetTitle("mine")
	f.send(stored(3, "theirs", "B"))
	waitFor(t, "remote value", func() bool {
		e, ok := s.Stored()
		return ok && e.Title == "theirs"
	})

	if title, _ := s.Buffer(); title != "mine" {
		t.Fatalf("buffer overwritten by remote change: %q", title)
	}
	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeSaved {
		t.Fatalf("close: %s %v", outcome, err)
	}
	expectWrites(t, h.sink, write{"upsert", 3, "mine", "B"})
}

func TestRemoteChangeMatchingBufferSkipsSave(t *testing.T) {
	h := newHarness()
	f := h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)

	_ = s.SetContent("same")
	f.send(stored(3, "A", "same"))
	waitFor(t, "remote value", func() bool {
		e, _ := s.Stored()
		return e != nil && e.Content == "same"
	})
	h.clock.Advance(window)
	flush(t, s)
	expectWrites(t, h.sink)

	if outcome, _ := closeSession(t, s); outcome != OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", outcome)
	}
}

func TestEntryVanishingAfterPrefill(t *testing.T) {
	h := newHarness()
	f := h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)

	f.send(nil)
	waitFor(t, "absent value", func() bool {
		_, ok := s.Stored()
		return !ok
	})
	_ = s.SetTitle("")
	_ = s.SetContent("")
	h.clock.Advance(window)

	outcome, err := closeSession(t, s)
	if err != nil || outcome != OutcomeNone {
		t.Fatalf("close: %s %v", outcome, err)
	}
	expectWrites(t, h.sink)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness()
	f := h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3)
	_ = s.SetTitle("A2")

	first, err := closeSession(t, s)
	if err != nil || first != OutcomeSaved {
		t.Fatalf("first close: %s %v", first, err)
	}
	second, err := closeSession(t, s)
	if err != nil || second != first {
		t.Fatalf("second close: %s %v", second, err)
	}
	if s.State() != Closed {
		t.Fatalf("expected closed, got %s", s.State())
	}
	if err := s.SetTitle("late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if !f.unsubscribed() {
		t.Fatal("feed should be unsubscribed on close")
	}
	expectWrites(t, h.sink, write{"upsert", 3, "A2", "B"})
}

func TestDraftMarkerClearedByFirstText(t *testing.T) {
	h := newHarness()
	h.feeds.set(1, newFakeFeed(&entry.Entry{ID: 1, Draft: true}))
	s := h.open(t, 1)
	defer closeSession(t, s)

	_ = s.SetContent("body")
	h.clock.Advance(window)
	flush(t, s)
	e, ok := s.Stored()
	if !ok || e.Draft {
		t.Fatalf("stored entry should no longer be a draft: %+v", e)
	}
}

func TestWriteRetriedUntilSuccess(t *testing.T) {
	h := newHarness()
	h.sink.failures = 2
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3, WithRetries(3))

	_ = s.SetTitle("retry me")
	h.clock.Advance(window)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	expectWrites(t, h.sink, write{"upsert", 3, "retry me", "B"})
	if h.sink.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", h.sink.attempts)
	}
	if _, err := closeSession(t, s); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFailedExitWriteIsReported(t *testing.T) {
	h := newHarness()
	h.sink.failures = 100
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3, WithRetries(1))

	_ = s.SetTitle("lost")
	outcome, err := closeSession(t, s)
	if outcome != OutcomeSaved {
		t.Fatalf("expected saved outcome, got %s", outcome)
	}
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected disk full from close, got %v", err)
	}
	if !errors.Is(s.Err(), errDiskFull) {
		t.Fatalf("expected Err to report the failure, got %v", s.Err())
	}
	if h.sink.attempts != 2 {
		t.Fatalf("expected one try plus one retry, got %d", h.sink.attempts)
	}
}

func TestFailedAutosaveIsRetriedOnExit(t *testing.T) {
	h := newHarness()
	h.sink.failures = 2
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3, WithRetries(1))

	_ = s.SetTitle("typed")
	h.clock.Advance(window)
	if err := s.Flush(context.Background()); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected disk full from flush, got %v", err)
	}
	expectWrites(t, h.sink)
	if got, _ := s.Stored(); got == nil || got.Title != "A" {
		t.Fatalf("expected stored to fall back to the confirmed entry, got %v", got)
	}

	outcome, err := closeSession(t, s)
	if outcome != OutcomeSaved || err != nil {
		t.Fatalf("expected saved outcome without error, got %s, %v", outcome, err)
	}
	expectWrites(t, h.sink, write{"upsert", 3, "typed", "B"})
}

func TestFailedAutosaveIsRetriedOnNextSettle(t *testing.T) {
	h := newHarness()
	h.sink.failures = 2
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3, WithRetries(1))

	_ = s.SetTitle("typed")
	h.clock.Advance(window)
	_ = s.Flush(context.Background())

	_ = s.SetContent("B!")
	h.clock.Advance(window)
	if err := s.Flush(context.Background()); err != nil && !errors.Is(err, errDiskFull) {
		t.Fatalf("flush: %v", err)
	}
	expectWrites(t, h.sink, write{"upsert", 3, "typed", "B!"})
	if outcome, err := closeSession(t, s); outcome != OutcomeUnchanged || err != nil {
		t.Fatalf("expected unchanged outcome, got %s, %v", outcome, err)
	}
}

func TestCustomDebounce(t *testing.T) {
	h := newHarness()
	h.feeds.set(3, newFakeFeed(stored(3, "A", "B")))
	s := h.open(t, 3, WithDebounce(2*time.Second))
	defer closeSession(t, s)

	_ = s.SetTitle("slow")
	h.clock.Advance(window)
	flush(t, s)
	expectWrites(t, h.sink)

	h.clock.Advance(2 * time.Second)
	flush(t, s)
	expectWrites(t, h.sink, write{"upsert", 3, "slow", "B"})
}
