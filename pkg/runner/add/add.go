package add

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/printers"
)

// Add stores a new entry and prints it.
type Add struct {
	Service *app.Service
	Title   string
	Content string
	JSON    bool
	Out     io.Writer
}

func (a *Add) Do(ctx context.Context) error {
	e := entry.New(a.Title, a.Content)
	if e.Empty() {
		return errors.New("can not add an empty entry, give a title or content")
	}
	if _, err := a.Service.Insert(ctx, e); err != nil {
		return err
	}
	if a.JSON {
		return printers.JSON(a.Out, e)
	}
	pp := printers.PrettyPrint{ShowID: true, Out: a.Out}
	pp.NewLine()
	pp.Entries(e)
	return nil
}
