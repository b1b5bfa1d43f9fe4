// Package stats computes totals, averages and chart series over punch
// records. Everything here is a pure function of its inputs: no store
// handle, no caching, ranges are derived from a caller-supplied clock.
package stats

import (
	"math"
	"strconv"
	"time"

	"github.com/mahimrahman/monheure/internal/store"
)

// TimeStats summarizes completed work over a range, rounded to 2 decimals.
type TimeStats struct {
	TotalHours         float64
	DaysWorked         int
	AverageHoursPerDay float64
}

// Point is one chart entry: a day label and the hours completed that day.
type Point struct {
	Label string
	Hours float64
}

// Granularity selects the label style of a chart series.
type Granularity int

const (
	GranularityWeek  Granularity = iota // weekday abbreviation
	GranularityMonth                    // day of month
	GranularityYear                     // month abbreviation
)

// Range is an inclusive start/end day pair plus the natural chart
// granularity for it. Start and End are midnight-truncated.
type Range struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// StartDate and EndDate render the bounds as store date keys.
func (r Range) StartDate() string { return r.Start.Format(store.DateFormat) }
func (r Range) EndDate() string   { return r.End.Format(store.DateFormat) }

// Compute aggregates the completed records in the set. Open records (missing
// either timestamp) do not count toward any figure.
func Compute(records []store.PunchRecord) TimeStats {
	var total float64
	days := make(map[string]struct{})
	for i := range records {
		r := &records[i]
		if r.PunchIn == nil || r.PunchOut == nil {
			continue
		}
		total += r.PunchOut.Sub(*r.PunchIn).Hours()
		days[r.Date] = struct{}{}
	}

	st := TimeStats{
		TotalHours: round2(total),
		DaysWorked: len(days),
	}
	if st.DaysWorked > 0 {
		st.AverageHoursPerDay = round2(total / float64(st.DaysWorked))
	}
	return st
}

// Series produces one point per calendar day in the inclusive range,
// zero-filled for days without completed records and summed across multiple
// completed records on the same day.
func Series(records []store.PunchRecord, r Range) []Point {
	byDay := make(map[string]float64)
	for i := range records {
		rec := &records[i]
		if rec.PunchIn == nil || rec.PunchOut == nil {
			continue
		}
		byDay[rec.Date] += rec.PunchOut.Sub(*rec.PunchIn).Hours()
	}

	var points []Point
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		points = append(points, Point{
			Label: dayLabel(d, r.Granularity),
			Hours: round2(byDay[d.Format(store.DateFormat)]),
		})
	}
	return points
}

func dayLabel(d time.Time, g Granularity) string {
	switch g {
	case GranularityMonth:
		return strconv.Itoa(d.Day())
	case GranularityYear:
		return d.Format("Jan")
	default:
		return d.Format("Mon")
	}
}

// ThisWeek is the week containing now, from the configured week start.
func ThisWeek(now time.Time, weekStart time.Weekday) Range {
	today := midnight(now)
	back := (int(today.Weekday()) - int(weekStart) + 7) % 7
	start := today.AddDate(0, 0, -back)
	return Range{Start: start, End: start.AddDate(0, 0, 6), Granularity: GranularityWeek}
}

// LastTwoWeeks covers the 14 days ending today.
func LastTwoWeeks(now time.Time) Range {
	today := midnight(now)
	return Range{Start: today.AddDate(0, 0, -13), End: today, Granularity: GranularityMonth}
}

// ThisMonth runs from the 1st through today.
func ThisMonth(now time.Time) Range {
	today := midnight(now)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return Range{Start: start, End: today, Granularity: GranularityMonth}
}

// ThisYear runs from January 1st through today.
func ThisYear(now time.Time) Range {
	today := midnight(now)
	start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	return Range{Start: start, End: today, Granularity: GranularityYear}
}

// Day is the single-day range containing now.
func Day(now time.Time) Range {
	today := midnight(now)
	return Range{Start: today, End: today, Granularity: GranularityWeek}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
