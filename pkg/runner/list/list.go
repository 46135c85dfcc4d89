package list

import (
	"context"
	"io"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/printers"
)

// List prints entries newest first.
type List struct {
	Service *app.Service
	All     bool
	ShowID  bool
	JSON    bool
	Out     io.Writer
}

func (l *List) Do(ctx context.Context) error {
	all, err := l.Service.Entries(ctx, l.All)
	if err != nil {
		return err
	}
	if l.JSON {
		return printers.JSON(l.Out, all)
	}
	pp := printers.PrettyPrint{ShowID: l.ShowID, Out: l.Out}
	pp.NewLine()
	pp.TitleWithCount("Journal", len(all))
	pp.Entries(all...)
	return nil
}
