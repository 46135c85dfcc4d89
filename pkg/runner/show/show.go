package show

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/printers"
	"tableflip.dev/journal/pkg/store"
)

// Show prints a single entry.
type Show struct {
	Service *app.Service
	ID      int64
	ShowID  bool
	JSON    bool
	Out     io.Writer
}

func (s *Show) Do(ctx context.Context) error {
	e, err := s.Service.Get(ctx, s.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("entry %d not found", s.ID)
	}
	if err != nil {
		return err
	}
	if s.JSON {
		return printers.JSON(s.Out, e)
	}
	pp := printers.PrettyPrint{ShowID: s.ShowID, Out: s.Out}
	pp.NewLine()
	pp.Entry(e)
	return nil
}
