package remove

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/printers"
	"tableflip.dev/journal/pkg/store"
)

// Remove deletes an entry by id.
type Remove struct {
	Service *app.Service
	ID      int64
	JSON    bool
	Out     io.Writer
}

func (r *Remove) Do(ctx context.Context) error {
	e, err := r.Service.DeleteID(ctx, r.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("entry %d not found", r.ID)
	}
	if err != nil {
		return err
	}
	if r.JSON {
		return printers.JSON(r.Out, map[string]interface{}{"deleted": e.ID})
	}
	out := r.Out
	if out == nil {
		out = color.Output
	}
	_, _ = color.New(color.Faint).Fprintf(out, "deleted %s\n", e)
	return nil
}
