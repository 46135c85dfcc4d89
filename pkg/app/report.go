package app

import (
	"context"
	"time"

	"tableflip.dev/journal/pkg/entry"
)

// ReportSection groups the entries last changed on one calendar day.
type ReportSection struct {
	Day     time.Time
	Entries []*entry.Entry
}

// ReportResult encapsulates the entries changed within a time window.
type ReportResult struct {
	Since    time.Time
	Until    time.Time
	Sections []ReportSection
	Total    int
}

// Report returns non-empty entries whose timestamp falls between the provided
// bounds, grouped by day in the location of since, newest day first.
func (s *Service) Report(ctx context.Context, since, until time.Time) (ReportResult, error) {
	if since.After(until) {
		since, until = until, since
	}
	all, err := s.Entries(ctx, false)
	if err != nil {
		return ReportResult{}, err
	}

	result := ReportResult{Since: since, Until: until}
	loc := since.Location()
	var current *ReportSection
	// all is already newest first, so days arrive in order.
	for _, e := range all {
		at := e.Timestamp.Time
		if at.Before(since) || at.After(until) {
			continue
		}
		day := startOfDay(at.In(loc))
		if current == nil || !current.Day.Equal(day) {
			result.Sections = append(result.Sections, ReportSection{Day: day})
			current = &result.Sections[len(result.Sections)-1]
		}
		current.Entries = append(current.Entries, e)
		result.Total++
	}
	return result, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
