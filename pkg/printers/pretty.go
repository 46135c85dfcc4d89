package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/journal/pkg/entry"
)

const (
	layoutDay   = "Mon Jan 2, 2006"
	layoutStamp = "2006-01-02 15:04"
	previewLen  = 48
	bodyWidth   = 80
)

// PrettyPrint writes entries for humans. Out defaults to color.Output.
type PrettyPrint struct {
	ShowID bool
	Out    io.Writer
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " entry")
	default:
		_, _ = c.Fprintln(pp.out(), " entries")
	}
}

// Entries renders a table of entries, one row each.
func (pp *PrettyPrint) Entries(entries ...*entry.Entry) {
	if len(entries) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range entries {
		row := make([]interface{}, 0, 4)
		if pp.ShowID {
			row = append(row, y.Sprint(e.ID))
		}
		row = append(row,
			faint.Sprint(e.Timestamp.Local().Format(layoutStamp)),
			bold.Sprint(DisplayTitle(e)),
			Preview(e.Content, previewLen),
		)
		tbl.AddRow(row...)
	}
	if pp.ShowID {
		tbl.RightAlign(0)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Entry renders one entry in full.
func (pp *PrettyPrint) Entry(e *entry.Entry) {
	faint := color.New(color.Faint)
	pp.Title(DisplayTitle(e))
	if pp.ShowID {
		_, _ = faint.Fprintf(pp.out(), "#%d  ", e.ID)
	}
	_, _ = faint.Fprintf(pp.out(), "created %s, last change %s\n",
		e.Created.Local().Format(layoutStamp), e.Timestamp.Local().Format(layoutStamp))
	pp.NewLine()
	if !entry.Blank(e.Content) {
		_, _ = fmt.Fprintln(pp.out(), wordwrap.String(e.Content, bodyWidth))
		pp.NewLine()
	}
}

// Day renders a day heading followed by its entries.
func (pp *PrettyPrint) Day(day string, entries ...*entry.Entry) {
	pp.TitleWithCount(day, len(entries))
	pp.Entries(entries...)
}

// DisplayTitle is the title shown in listings; untitled entries fall back to
// the start of their content.
func DisplayTitle(e *entry.Entry) string {
	if !entry.Blank(e.Title) {
		return strings.TrimSpace(e.Title)
	}
	if p := Preview(e.Content, previewLen); p != "" {
		return p
	}
	return "(untitled)"
}

// Preview returns the first non-blank line of s, truncated to width cells.
func Preview(s string, width int) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return truncate.StringWithTail(line, uint(width), "…")
	}
	return ""
}

// DayLabel formats a report day heading.
func DayLabel(day time.Time) string {
	return day.Format(layoutDay)
}
