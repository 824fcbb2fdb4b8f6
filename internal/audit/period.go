package audit

import (
	"strings"
	"time"
)

// Period is a closed interval of wall-clock time in UTC.
type Period struct {
	Start time.Time
	End   time.Time
}

// PreviousMonth returns the calendar month immediately preceding now, from
// the first instant of its first day through 23:59:59.999999 on its last
// day. Each call samples its own "now": a run that straddles a month
// rollover may audit different windows for different citizens, which is
// accepted behavior.
func PreviousMonth(now time.Time) Period {
	now = now.UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Start: currentMonth.AddDate(0, -1, 0),
		End:   currentMonth.Add(-time.Microsecond),
	}
}

// Contains reports whether t falls inside the period, inclusive on both ends.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Joblog timestamp layouts observed on the wire: the ISO 8601 family with
// either separator, with or without fractional seconds and offset, plus
// bare dates. Offset-naive values read as UTC; dates read as midnight UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp normalizes a wire timestamp. A trailing literal "Z" reads
// as UTC. Absent or unparseable values collapse to the zero time, which the
// inclusive window lower bound then excludes.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
