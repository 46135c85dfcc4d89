// Package feed provides a live "latest value" subscription: a value is loaded
// once on start and reloaded whenever a signal arrives. Consumers only see
// changes, and a slow consumer only ever sees the newest value.
package feed

import (
	"context"
	"errors"
	"sync"

	"tableflip.dev/journal/pkg/logging"
)

// Loader produces the current value.
type Loader[T any] func(ctx context.Context) (T, error)

// SignalSource starts delivering reload signals tied to ctx. The returned
// channel must be closed once ctx is done.
type SignalSource func(ctx context.Context) (<-chan struct{}, error)

type options[T any] struct {
	equal  func(a, b T) bool
	logger logging.Logger
}

// Option customises a Feed.
type Option[T any] func(*options[T])

// WithEqual sets the comparison used to suppress unchanged values. Without it
// every reload is pushed.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(o *options[T]) { o.equal = eq }
}

// WithLogger sets the logger that receives load errors.
func WithLogger[T any](l logging.Logger) Option[T] {
	return func(o *options[T]) { o.logger = l }
}

// Feed is a running subscription. The zero value is not usable; see Start.
type Feed[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
	opts    options[T]

	mu     sync.Mutex
	latest T
	has    bool

	once sync.Once
}

// Start subscribes to signals and performs the first load before returning.
// The first value is always pushed.
func Start[T any](ctx context.Context, signals SignalSource, load Loader[T], opts ...Option[T]) (*Feed[T], error) {
	if load == nil {
		return nil, errors.New("feed: nil loader")
	}
	o := options[T]{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	var sig <-chan struct{}
	if signals != nil {
		var err error
		if sig, err = signals(ctx); err != nil {
			cancel()
			return nil, err
		}
	}

	f := &Feed[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		opts:    o,
	}
	first, err := load(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	f.push(first)

	go f.run(ctx, sig, load)
	return f, nil
}

func (f *Feed[T]) run(ctx context.Context, sig <-chan struct{}, load Loader[T]) {
	defer close(f.done)
	defer close(f.updates)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sig:
			if !ok {
				return
			}
			v, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				f.opts.logger.Warn(ctx, "feed reload failed", "err", err)
				continue
			}
			f.push(v)
		}
	}
}

// push records v and hands it to the consumer, replacing any value the
// consumer has not picked up yet.
func (f *Feed[T]) push(v T) {
	f.mu.Lock()
	if f.has && f.opts.equal != nil && f.opts.equal(f.latest, v) {
		f.mu.Unlock()
		return
	}
	f.latest = v
	f.has = true
	f.mu.Unlock()

	select {
	case <-f.updates:
	default:
	}
	f.updates <- v
}

// Updates delivers changed values. It is closed after Unsubscribe or when the
// signal source ends.
func (f *Feed[T]) Updates() <-chan T {
	return f.updates
}

// Latest returns the most recently loaded value.
func (f *Feed[T]) Latest() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.has
}

// Unsubscribe stops the feed and waits for its loop to exit. Safe to call
// more than once.
func (f *Feed[T]) Unsubscribe() {
	f.once.Do(func() {
		f.cancel()
		<-f.done
	})
}

// Coalesce forwards one signal per burst of matching events: while a signal
// is pending further matches are dropped. The returned channel is closed
// when events is closed.
func Coalesce[E any](events <-chan E, match func(E) bool) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for ev := range events {
			if match != nil && !match(ev) {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}
