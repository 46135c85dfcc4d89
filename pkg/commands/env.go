package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/clock"
	"tableflip.dev/journal/pkg/draft"
	"tableflip.dev/journal/pkg/logging"
	"tableflip.dev/journal/pkg/store"
)

// uiLogFile is used by the TUI when log.file is not configured, so log lines
// never land on the screen.
const uiLogFile = "journal.log"

// environment is the configured service shared by every command.
type environment struct {
	cfg     *store.FileConfig
	service *app.Service
	closers []io.Closer
}

// loadEnv reads configuration, opens the logger and the store. interactive
// forces logging to a file.
func loadEnv(interactive bool) (*environment, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	logFile := cfg.LogFile
	if logFile == "" && interactive {
		logFile = filepath.Join(cfg.BasePath(), uiLogFile)
	}
	logger, logCloser, err := logging.Open(logFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	p, err := store.Load(cfg, store.WithLogger(logger))
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	logger.Debug(context.Background(), "store loaded", "path", cfg.BasePath(), "driver", cfg.Driver())
	return &environment{
		cfg: cfg,
		service: &app.Service{
			Persistence: p,
			Logger:      logger,
			Clock:       clock.Real{},
		},
		closers: []io.Closer{p, logCloser},
	}, nil
}

// draftOptions maps the draft.* configuration onto session options.
func (e *environment) draftOptions() []draft.Option {
	return []draft.Option{
		draft.WithDebounce(e.cfg.Debounce),
		draft.WithRetries(e.cfg.Retries),
		draft.WithBackoff(e.cfg.Backoff),
	}
}

func (e *environment) Close() {
	for _, c := range e.closers {
		_ = c.Close()
	}
}

// withEnv runs fn against a loaded environment and routes its error through
// the output options. An interrupt cancels fn's context.
func withEnv(interactive bool, fn func(ctx context.Context, env *environment) error) error {
	env, err := loadEnv(interactive)
	if err != nil {
		return oo.HandleError(err)
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return oo.HandleError(fn(ctx, env))
}
