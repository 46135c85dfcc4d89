package options

import (
	"time"

	"github.com/spf13/cobra"
)

const (
	layoutISO      = "2006-1-2"
	layoutISOShort = "1/2"
)

// SinceOptions
type SinceOptions struct {
	SinceString string
	Days        int
	Last        string
}

func AddSinceArgs(cmd *cobra.Command, o *SinceOptions) {
	cmd.Flags().StringVar(&o.SinceString, "since", "",
		`Start date, example: --since="2020-2-28" or --since="2/28".`)
	cmd.Flags().IntVarP(&o.Days, "days", "d", 7,
		"Number of days to look back when --since is not set.")
	cmd.Flags().StringVar(&o.Last, "last", "",
		`Look-back window instead of whole days, example: --last=1w2d or --last=12h.`)
}

// GetSince resolves the start of the window relative to now.
func (o *SinceOptions) GetSince(now time.Time) (time.Time, error) {
	if o.Last != "" {
		window, err := ParseWindow(o.Last)
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(-window), nil
	}
	if o.SinceString == "" {
		y, m, d := now.AddDate(0, 0, -o.Days).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation(layoutISO, o.SinceString, now.Location())
	if err != nil {
		// Let the year be the same.
		t, err = time.ParseInLocation(layoutISOShort, o.SinceString, now.Location())
		if err != nil {
			return time.Time{}, err
		}
		t = t.AddDate(now.Year(), 0, 0)
		// A date later this year means last year.
		if t.After(now) {
			t = t.AddDate(-1, 0, 0)
		}
	}
	return t, nil
}
