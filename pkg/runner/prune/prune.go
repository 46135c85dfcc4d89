package prune

import (
	"context"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/printers"
)

// Prune removes empty entries left behind by interrupted edits.
type Prune struct {
	Service *app.Service
	JSON    bool
	Out     io.Writer
}

func (p *Prune) Do(ctx context.Context) error {
	n, err := p.Service.Prune(ctx)
	if err != nil {
		return err
	}
	if p.JSON {
		return printers.JSON(p.Out, map[string]int{"pruned": n})
	}
	out := p.Out
	if out == nil {
		out = color.Output
	}
	switch n {
	case 0:
		_, _ = color.New(color.Faint).Fprintln(out, "nothing to prune")
	case 1:
		_, _ = color.New(color.Faint).Fprintln(out, "pruned 1 empty entry")
	default:
		_, _ = color.New(color.Faint).Fprintf(out, "pruned %d empty entries\n", n)
	}
	return nil
}
