package ui

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/draft"
	teaui "tableflip.dev/journal/pkg/tui/app"
)

// ErrNotTerminal is returned when stdin or stdout is not a terminal.
var ErrNotTerminal = errors.New("journal ui needs an interactive terminal")

// UI opens the interactive journal.
type UI struct {
	Service *app.Service
	Options []draft.Option

	// isTerminal is replaced in tests.
	isTerminal func(fd uintptr) bool
	run        func(*app.Service, ...draft.Option) error
}

func (u *UI) Do(ctx context.Context) error {
	if u.Service == nil {
		return app.ErrNoPersistence
	}
	isTerminal := u.isTerminal
	if isTerminal == nil {
		isTerminal = terminal
	}
	if !isTerminal(os.Stdin.Fd()) || !isTerminal(os.Stdout.Fd()) {
		return ErrNotTerminal
	}
	run := u.run
	if run == nil {
		run = teaui.Run
	}
	if u.Service.Logger != nil {
		u.Service.Logger.Info(ctx, "starting ui")
	}
	return run(u.Service, u.Options...)
}

func terminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
