package options

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var (
	windowSegment = regexp.MustCompile(`^(\d+)([a-z]+)`)
	windowUnits   = map[string]time.Duration{
		"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
		"d": day, "day": day, "days": day,
		"w": 7 * day, "week": 7 * day, "weeks": 7 * day,
	}
)

// ParseWindow reads a look-back window such as "3d", "1w" or "1w2d12h".
func ParseWindow(input string) (time.Duration, error) {
	rest := strings.ToLower(strings.ReplaceAll(input, " ", ""))
	if rest == "" {
		return 0, fmt.Errorf("empty window")
	}
	var total time.Duration
	for rest != "" {
		m := windowSegment.FindStringSubmatch(rest)
		if m == nil {
			return 0, fmt.Errorf("invalid window segment %q", rest)
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid window value %q: %w", m[1], err)
		}
		unit, ok := windowUnits[m[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported window unit %q", m[2])
		}
		total += time.Duration(n) * unit
		rest = rest[len(m[0]):]
	}
	if total <= 0 {
		return 0, fmt.Errorf("window must be greater than zero")
	}
	return total, nil
}

// FormatWindow renders d with w/d/h tokens, dropping anything finer.
func FormatWindow(d time.Duration) string {
	var b strings.Builder
	for _, u := range []struct {
		label string
		size  time.Duration
	}{{"w", 7 * day}, {"d", day}, {"h", time.Hour}} {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.label)
			d -= n * u.size
		}
	}
	if b.Len() == 0 {
		return "0h"
	}
	return b.String()
}
