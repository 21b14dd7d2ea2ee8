package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"radmon-server/internal/modules/readings/types"
)

// ChartSeries is the aggregated trend output: three parallel slices of equal
// length, ordered by the earliest timestamp seen in each bucket.
type ChartSeries struct {
	Labels []string  `json:"labels"`
	CPM    []float64 `json:"cpm"`
	ACPM   []float64 `json:"acpm"`
}

// Aggregate buckets the filtered readings and averages cpm/acpm per bucket.
// With the minute bucket and no explicit range, the effective range narrows
// to the trailing 24 hours so the series stays bounded; the caller's range is
// untouched for every other bucket.
func (s *Service) Aggregate(filter types.DateRange, bucket types.Bucket) (ChartSeries, error) {
	effective := filter
	if bucket == types.BucketMinute && filter.IsZero() {
		now := s.now().UTC()
		effective = types.DateRange{From: now.Add(-24 * time.Hour), To: now}
	}

	rows, err := s.repo.List(effective, 0)
	if err != nil {
		return ChartSeries{}, err
	}
	return bucketize(rows, bucket), nil
}

type group struct {
	label    string
	earliest time.Time
	cpmSum   float64
	acpmSum  float64
	count    int
}

func bucketize(rows []types.Reading, bucket types.Bucket) ChartSeries {
	groups := make(map[string]*group)
	for _, r := range rows {
		key := bucketKey(r.Timestamp.UTC(), bucket)
		g, ok := groups[key]
		if !ok {
			g = &group{label: key, earliest: r.Timestamp}
			groups[key] = g
		}
		if r.Timestamp.Before(g.earliest) {
			g.earliest = r.Timestamp
		}
		g.cpmSum += coerce(r.CPM)
		g.acpmSum += coerce(r.ACPM)
		g.count++
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	// Earliest-first, not lexical: the weekly key would misorder across a
	// year boundary.
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].earliest.Before(ordered[j].earliest)
	})

	out := ChartSeries{
		Labels: make([]string, 0, len(ordered)),
		CPM:    make([]float64, 0, len(ordered)),
		ACPM:   make([]float64, 0, len(ordered)),
	}
	for _, g := range ordered {
		out.Labels = append(out.Labels, g.label)
		out.CPM = append(out.CPM, round2(g.cpmSum/float64(g.count)))
		out.ACPM = append(out.ACPM, round2(g.acpmSum/float64(g.count)))
	}
	return out
}

func bucketKey(t time.Time, bucket types.Bucket) string {
	switch bucket {
	case types.BucketHourly:
		return t.Format("2006-01-02 15") + ":00"
	case types.BucketDaily:
		return t.Format("2006-01-02")
	case types.BucketWeekly:
		return fmt.Sprintf("%d-W%02d", t.Year(), weekOfYear(t))
	case types.BucketMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// weekOfYear is the zero-based Monday-first week number: all days before the
// year's first Monday fall in week 00.
func weekOfYear(t time.Time) int {
	monday := (int(t.Weekday()) + 6) % 7
	return (t.YearDay() - 1 - monday + 7) / 7
}

// coerce reads a device-supplied numeric field; non-numeric text counts as
// zero rather than poisoning the average.
func coerce(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
