package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// PeriodSuite tests the prior-month window and timestamp normalization.
//
// Justification: an off-by-one on either window boundary silently moves
// citizens between compliant and non-compliant; boundary behavior must be
// pinned to the microsecond.
type PeriodSuite struct {
	suite.Suite
}

func TestPeriodSuite(t *testing.T) {
	suite.Run(t, new(PeriodSuite))
}

func (s *PeriodSuite) TestPreviousMonth() {
	s.Run("mid-month sample", func() {
		now := time.Date(2025, time.March, 15, 11, 30, 0, 0, time.UTC)
		p := PreviousMonth(now)
		s.Equal(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), p.Start)
		s.Equal(time.Date(2025, time.February, 28, 23, 59, 59, 999999000, time.UTC), p.End)
	})

	s.Run("january wraps to december of prior year", func() {
		now := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
		p := PreviousMonth(now)
		s.Equal(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), p.Start)
		s.Equal(time.Date(2024, time.December, 31, 23, 59, 59, 999999000, time.UTC), p.End)
	})

	s.Run("leap february", func() {
		now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		p := PreviousMonth(now)
		s.Equal(time.Date(2024, time.February, 29, 23, 59, 59, 999999000, time.UTC), p.End)
	})

	s.Run("non-utc sample normalizes", func() {
		loc := time.FixedZone("CEST", 2*60*60)
		now := time.Date(2025, time.June, 1, 1, 0, 0, 0, loc) // May 31 23:00 UTC
		p := PreviousMonth(now)
		s.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), p.Start)
	})
}

func (s *PeriodSuite) TestContainsIsInclusive() {
	p := PreviousMonth(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

	s.Run("exact start counts", func() {
		s.True(p.Contains(p.Start))
	})

	s.Run("one microsecond before start does not", func() {
		s.False(p.Contains(p.Start.Add(-time.Microsecond)))
	})

	s.Run("exact end counts", func() {
		s.True(p.Contains(p.End))
	})

	s.Run("one microsecond after end does not", func() {
		s.False(p.Contains(p.End.Add(time.Microsecond)))
	})
}

func (s *PeriodSuite) TestParseTimestamp() {
	s.Run("rfc3339 with trailing Z is utc", func() {
		t := parseTimestamp("2025-02-10T08:15:00Z")
		s.Equal(time.Date(2025, time.February, 10, 8, 15, 0, 0, time.UTC), t)
	})

	s.Run("explicit offset converts to utc", func() {
		t := parseTimestamp("2025-02-10T09:15:00+01:00")
		s.Equal(time.Date(2025, time.February, 10, 8, 15, 0, 0, time.UTC), t)
	})

	s.Run("fractional seconds survive", func() {
		t := parseTimestamp("2025-02-10T08:15:00.123456Z")
		s.Equal(123456000, t.Nanosecond())
	})

	s.Run("offset-naive reads as utc", func() {
		t := parseTimestamp("2025-02-10T08:15:00")
		s.Equal(time.Date(2025, time.February, 10, 8, 15, 0, 0, time.UTC), t)
	})

	s.Run("space separator reads as utc", func() {
		t := parseTimestamp("2025-02-10 08:15:00")
		s.Equal(time.Date(2025, time.February, 10, 8, 15, 0, 0, time.UTC), t)
	})

	s.Run("space separator with offset converts to utc", func() {
		t := parseTimestamp("2025-02-10 09:15:00+01:00")
		s.Equal(time.Date(2025, time.February, 10, 8, 15, 0, 0, time.UTC), t)
	})

	s.Run("date-only reads as midnight utc", func() {
		t := parseTimestamp("2025-02-10")
		s.Equal(time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), t)
	})

	s.Run("date-only entry lands in its month's window", func() {
		p := PreviousMonth(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
		s.True(p.Contains(parseTimestamp("2025-02-10")))
	})

	s.Run("absent value collapses to zero time", func() {
		t := parseTimestamp("")
		s.True(t.IsZero())
	})

	s.Run("garbage collapses to zero time", func() {
		t := parseTimestamp("not a date")
		s.True(t.IsZero())
	})

	s.Run("zero time never lands in a window", func() {
		p := PreviousMonth(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
		s.False(p.Contains(parseTimestamp("")))
	})
}
