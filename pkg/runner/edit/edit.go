package edit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/draft"
	"tableflip.dev/journal/pkg/printers"
)

// DefaultLoadTimeout bounds the wait for the entry to load.
const DefaultLoadTimeout = 5 * time.Second

// Edit runs one draft session without a terminal: the entry is loaded, the
// given fields replace the buffer and the session is closed, so a blank result
// deletes the entry.
type Edit struct {
	Service *app.Service
	ID      int64

	// Title and Content are applied when non-nil.
	Title   *string
	Content *string

	Options     []draft.Option
	LoadTimeout time.Duration
	JSON        bool
	Out         io.Writer
}

type result struct {
	ID      int64  `json:"id"`
	Outcome string `json:"outcome"`
}

func (e *Edit) Do(ctx context.Context) error {
	if e.Service == nil {
		return app.ErrNoPersistence
	}
	m := e.Service.Drafts(e.Options...)
	defer func() { _ = m.Shutdown(context.Background()) }()

	s, err := m.Open(ctx, e.ID)
	if err != nil {
		return err
	}

	timeout := e.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	select {
	case <-s.Loaded():
	case <-time.After(timeout):
		return fmt.Errorf("entry %d not found", e.ID)
	case <-ctx.Done():
		return ctx.Err()
	}

	title, content := s.Buffer()
	if e.Title != nil {
		title = *e.Title
	}
	if e.Content != nil {
		content = *e.Content
	}
	if err := s.SetText(title, content); err != nil {
		return err
	}

	outcome, err := m.Close(ctx)
	if err != nil {
		return err
	}
	return e.print(ctx, outcome)
}

func (e *Edit) print(ctx context.Context, outcome draft.Outcome) error {
	if e.JSON {
		return printers.JSON(e.Out, result{ID: e.ID, Outcome: outcome.String()})
	}
	out := e.Out
	if out == nil {
		out = color.Output
	}
	faint := color.New(color.Faint)
	switch outcome {
	case draft.OutcomeDeleted:
		_, _ = faint.Fprintf(out, "entry %d was left blank and has been deleted\n", e.ID)
	case draft.OutcomeUnchanged:
		_, _ = faint.Fprintf(out, "entry %d unchanged\n", e.ID)
	case draft.OutcomeNone:
		_, _ = faint.Fprintf(out, "entry %d no longer exists\n", e.ID)
	default:
		saved, err := e.Service.Get(ctx, e.ID)
		if err != nil {
			_, _ = faint.Fprintf(out, "entry %d saved\n", e.ID)
			return nil
		}
		pp := printers.PrettyPrint{ShowID: true, Out: out}
		pp.NewLine()
		pp.Entries(saved)
	}
	return nil
}
