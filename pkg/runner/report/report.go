package report

import (
	"context"
	"io"
	"time"

	"tableflip.dev/journal/pkg/app"
	"tableflip.dev/journal/pkg/entry"
	"tableflip.dev/journal/pkg/printers"
)

// Report prints the entries changed within a window, grouped by day.
type Report struct {
	Service *app.Service
	Since   time.Time
	Until   time.Time
	ShowID  bool
	JSON    bool
	Out     io.Writer
}

type jsonSection struct {
	Day     string         `json:"day"`
	Entries []*entry.Entry `json:"entries"`
}

func (r *Report) Do(ctx context.Context) error {
	res, err := r.Service.Report(ctx, r.Since, r.Until)
	if err != nil {
		return err
	}
	if r.JSON {
		sections := make([]jsonSection, 0, len(res.Sections))
		for _, s := range res.Sections {
			sections = append(sections, jsonSection{Day: s.Day.Format("2006-01-02"), Entries: s.Entries})
		}
		return printers.JSON(r.Out, map[string]interface{}{
			"since":    entry.FormatTime(res.Since),
			"until":    entry.FormatTime(res.Until),
			"total":    res.Total,
			"sections": sections,
		})
	}

	pp := printers.PrettyPrint{ShowID: r.ShowID, Out: r.Out}
	pp.NewLine()
	if len(res.Sections) == 0 {
		pp.TitleWithCount("Since "+printers.DayLabel(res.Since), 0)
		pp.Entries()
		return nil
	}
	for _, s := range res.Sections {
		pp.Day(printers.DayLabel(s.Day), s.Entries...)
	}
	return nil
}
