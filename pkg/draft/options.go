package draft

import (
	"time"

	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/logging"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultRetries  = 3
	DefaultBackoff  = 50 * time.Millisecond
)

type options struct {
	clock    clock.Clock
	debounce time.Duration
	retries  int
	backoff  time.Duration
	logger   logging.Logger
}

// Option customises sessions and managers.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		clock:    clock.Real{},
		debounce: DefaultDebounce,
		retries:  DefaultRetries,
		backoff:  DefaultBackoff,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock sets the clock that drives the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDebounce sets how long the buffer must stay unchanged before it is
// saved.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithRetries sets how many times a failed write is retried. Zero disables
// retries.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithBackoff sets the base delay of the exponential retry backoff.
func WithBackoff(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.backoff = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
