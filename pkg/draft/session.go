package draft

import (
	"context"
	"fmt"
	"sync"

	"github.com/sethvargo/go-retry"

	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/logging"
)

// Session edits one entry. All methods are safe for concurrent use; feed
// deliveries, edits, timer callbacks and Close are serialised on one lock.
type Session struct {
	id   int64
	sink Sink
	opts options
	log  logging.Logger

	// ctx outlives the caller of Open: the session ends through Close only.
	ctx    context.Context
	cancel context.CancelFunc

	feed     Feed
	feedDone chan struct{}
	queue    *writeQueue
	loaded   chan struct{}

	mu    sync.Mutex
	state State
	// title and content are the live buffer.
	title   string
	content string
	// settled is the last pair that survived a debounce window.
	settledTitle   string
	settledContent string
	// stored is the last known stored entry, nil when unknown or absent. It
	// runs ahead of the store while writes are pending.
	stored *entry.Entry
	// confirmed is the last entry the store is known to hold: read from the
	// feed or acknowledged by a successful write.
	confirmed *entry.Entry
	// pending counts writes issued and not yet applied.
	pending int
	timer   clock.Timer
	gen     uint64
	outcome Outcome
	exitErr error
	lastErr error
}

// Open subscribes to the entry with the given id and starts a session in
// Loading. If the feed already holds a value the session is prefilled before
// Open returns.
func Open(ctx context.Context, id int64, source Source, sink Sink, opts ...Option) (*Session, error) {
	if source == nil || sink == nil {
		return nil, fmt.Errorf("draft: open %d: source and sink are required", id)
	}
	o := newOptions(opts)
	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f, err := source.Subscribe(sctx, id)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("draft: subscribe %d: %w", id, err)
	}

	s := &Session{
		id:       id,
		sink:     sink,
		opts:     o,
		log:      o.logger.With("entry", id),
		ctx:      sctx,
		cancel:   cancel,
		feed:     f,
		feedDone: make(chan struct{}),
		queue:    newWriteQueue(),
		loaded:   make(chan struct{}),
	}

	updates := f.Updates()
	select {
	case e, ok := <-updates:
		if ok {
			s.deliver(e)
		}
	default:
	}
	go s.follow(updates)
	go func() {
		s.queue.run(s.apply)
		s.cancel()
	}()
	return s, nil
}

func (s *Session) ID() int64 { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loaded is closed once the buffer has been prefilled.
func (s *Session) Loaded() <-chan struct{} { return s.loaded }

// Done is closed once the session has closed and its writes have drained.
func (s *Session) Done() <-chan struct{} { return s.queue.drained }

// Buffer returns the live title and content.
func (s *Session) Buffer() (title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title, s.content
}

// Stored returns a copy of the last known stored entry.
func (s *Session) Stored() (*entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stored.Copy(), s.stored != nil
}

// Err returns the most recent write error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) follow(updates <-chan *entry.Entry) {
	defer close(s.feedDone)
	for e := range updates {
		s.deliver(e)
	}
}

func (s *Session) deliver(e *entry.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == Closed:
		return
	case s.pending > 0:
		// Values read while our own writes are in flight are stale.
		return
	case e == nil:
		if s.state != Loading {
			s.stored = nil
			s.confirmed = nil
		}
		return
	}
	if s.state == Loading {
		s.title, s.content = e.Title, e.Content
		s.settledTitle, s.settledContent = e.Title, e.Content
		s.state = Prefilled
		close(s.loaded)
		s.log.Debug(s.ctx, "draft prefilled")
	}
	s.stored = e.Copy()
	s.confirmed = e.Copy()
}

func (s *Session) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(title, s.content)
}

func (s *Session) SetContent(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(s.title, content)
}

// SetText replaces both fields in one edit.
func (s *Session) SetText(title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(title, content)
}

func (s *Session) editLocked(title, content string) error {
	switch s.state {
	case Loading:
		return ErrLoading
	case Closed:
		return ErrClosed
	}
	if title == s.title && content == s.content {
		return nil
	}
	s.title, s.content = title, content
	s.state = Editing

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.opts.clock.AfterFunc(s.opts.debounce, func() { s.settle(gen) })
	return nil
}

// settle runs when the buffer has been quiet for the debounce window.
func (s *Session) settle(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state == Closed {
		return
	}
	s.timer = nil

	title, content := s.title, s.content
	if title == s.settledTitle && content == s.settledContent {
		return
	}
	s.settledTitle, s.settledContent = title, content
	if s.stored == nil || s.stored.SameText(title, content) {
		return
	}
	s.issueLocked(op{kind: opUpsert, entry: s.stored.WithText(title, content)})
}

// issueLocked queues a write and records its result as the known stored
// state right away.
func (s *Session) issueLocked(o op) bool {
	if !s.queue.push(o) {
		return false
	}
	s.pending++
	if o.kind == opDelete {
		s.stored = nil
	} else {
		s.stored = o.entry.Copy()
	}
	return true
}

func (s *Session) apply(o op) {
	if o.kind == opBarrier {
		o.done <- nil
		return
	}
	// The queue owns o.entry; the sink may stamp it.
	err := s.write(o)

	s.mu.Lock()
	s.pending--
	switch {
	case err != nil:
		s.lastErr = err
		s.log.Error(s.ctx, "draft write failed", "op", o.kind, "err", err)
		if s.pending == 0 && s.state != Closed {
			s.rollbackLocked()
		}
	case o.kind == opDelete:
		s.confirmed = nil
	default:
		s.confirmed = o.entry.Copy()
		if s.pending == 0 && s.state != Closed {
			s.stored = o.entry.Copy()
		}
	}
	if o.exit {
		s.exitErr = err
	}
	s.mu.Unlock()

	if o.done != nil {
		o.done <- err
	}
}

// rollbackLocked forgets text the store never received, so the next settle
// or the exit reconciliation issues it again.
func (s *Session) rollbackLocked() {
	s.stored = s.confirmed.Copy()
	if s.confirmed != nil {
		s.settledTitle, s.settledContent = s.confirmed.Title, s.confirmed.Content
	}
}

func (s *Session) write(o op) error {
	b := retry.WithMaxRetries(uint64(s.opts.retries), retry.NewExponential(s.opts.backoff))
	attempt := 0
	return retry.Do(s.ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		switch o.kind {
		case opUpsert:
			err = s.sink.Upsert(ctx, o.entry)
		case opDelete:
			err = s.sink.Delete(ctx, o.entry)
		}
		if err != nil {
			s.log.Warn(ctx, "draft write attempt failed", "op", o.kind, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		s.log.Debug(ctx, "draft written", "op", o.kind)
		return nil
	})
}

// Flush waits until every write issued so far has been applied and returns
// the most recent write error.
func (s *Session) Flush(ctx context.Context) error {
	done := make(chan error, 1)
	if !s.queue.push(op{kind: opBarrier, done: done}) {
		if err := s.waitDrained(ctx); err != nil {
			return err
		}
		return s.Err()
	}
	select {
	case <-done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session and runs exit reconciliation against the latest
// buffer: a blank entry is deleted, unsaved text gets one final upsert and
// anything else is left alone. Only the first call reconciles; every call
// waits, bounded by ctx, for the session's writes to drain and returns the
// first outcome with the error of the final write.
func (s *Session) Close(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.state != Closed {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.gen++
		s.state = Closed
		s.outcome = s.reconcileLocked()
		s.queue.close()
		s.log.Debug(s.ctx, "draft closed", "outcome", s.outcome)
	}
	s.mu.Unlock()

	s.feed.Unsubscribe()
	if err := s.waitDrained(ctx); err != nil {
		return s.outcome, err
	}
	<-s.feedDone

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.exitErr
}

func (s *Session) reconcileLocked() Outcome {
	if s.stored == nil {
		return OutcomeNone
	}
	title, content := s.title, s.content
	switch {
	case entry.Blank(title) && entry.Blank(content):
		s.issueLocked(op{kind: opDelete, entry: s.stored.Copy(), exit: true})
		return OutcomeDeleted
	case !s.stored.SameText(title, content):
		s.issueLocked(op{kind: opUpsert, entry: s.stored.WithText(title, content), exit: true})
		return OutcomeSaved
	default:
		return OutcomeUnchanged
	}
}

func (s *Session) waitDrained(ctx context.Context) error {
	select {
	case <-s.queue.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k opKind) String() string {
	switch k {
	case opUpsert:
		return "upsert"
	case opDelete:
		return "delete"
	default:
		return "barrier"
	}
}
