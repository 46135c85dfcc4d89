package watch

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/printers"
	"tableflip.dev/journal/pkg/store"
)

// Watch streams store changes until ctx is done.
type Watch struct {
	Service *app.Service
	JSON    bool
	Out     io.Writer
}

type jsonEvent struct {
	Type  string      `json:"type"`
	ID    int64       `json:"id,omitempty"`
	Entry interface{} `json:"entry,omitempty"`
}

func (w *Watch) Do(ctx context.Context) error {
	events, err := w.Service.Watch(ctx)
	if err != nil {
		return err
	}
	out := w.Out
	if out == nil {
		out = color.Output
	}
	faint := color.New(color.Faint)
	if !w.JSON {
		_, _ = faint.Fprintln(out, "watching for changes, ctrl+c to stop")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := w.print(ctx, out, ev); err != nil {
				return err
			}
		}
	}
}

func (w *Watch) print(ctx context.Context, out io.Writer, ev store.Event) error {
	var title string
	var current interface{}
	if ev.Type == store.EventEntryChanged {
		if e, err := w.Service.Get(ctx, ev.ID); err == nil {
			title = printers.DisplayTitle(e)
			current = e
		}
	}
	if w.JSON {
		return printers.JSON(out, jsonEvent{Type: ev.Type.String(), ID: ev.ID, Entry: current})
	}
	switch ev.Type {
	case store.EventEntriesInvalidated:
		_, _ = color.New(color.FgHiYellow).Fprintln(out, "entries changed")
	default:
		_, _ = fmt.Fprintf(out, "%-8s #%d %s\n", ev.Type, ev.ID, title)
	}
	return nil
}
