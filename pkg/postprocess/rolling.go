package postprocess

import (
	"slices"
	"strconv"
	"strings"
	"time"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
	"github.com/Ramsey-B/fern/pkg/params"
)

// rollingDateColumn picks the first date column of the aggregation present in
// the frame, else the frame's first daily date column, else its first date
// column of any resolution.
func rollingDateColumn(f *frame.Frame, dateColumns []string) string {
	for _, c := range dateColumns {
		if frame.IsDateColumn(c) && f.Has(c) {
			return c
		}
	}
	for _, c := range f.Columns {
		if frame.IsDailyDateColumn(c) {
			return c
		}
	}
	for _, c := range f.Columns {
		if frame.IsDateColumn(c) {
			return c
		}
	}
	return ""
}

// resolution is the spacing between consecutive points of a date column.
type resolution int

const (
	daily resolution = iota
	monthly
	yearly
)

func resolutionOf(column string) resolution {
	switch {
	case strings.HasSuffix(column, "_month"):
		return monthly
	case strings.HasSuffix(column, "_year"):
		return yearly
	default:
		return daily
	}
}

func (r resolution) truncate(t time.Time) time.Time {
	t = params.Today(t)
	switch r {
	case monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// index counts the points from first to t; both must be truncated.
func (r resolution) index(first, t time.Time) int {
	switch r {
	case monthly:
		return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
	case yearly:
		return t.Year() - first.Year()
	default:
		return int(t.Sub(first).Hours() / 24)
	}
}

func (r resolution) point(first time.Time, idx int) time.Time {
	switch r {
	case monthly:
		return first.AddDate(0, idx, 0)
	case yearly:
		return first.AddDate(idx, 0, 0)
	default:
		return first.AddDate(0, 0, idx)
	}
}

// undated counts the rows Roll drops because their rolling date is missing.
func undated(f *frame.Frame, dateColumns []string) int {
	column := rollingDateColumn(f, dateColumns)
	if column == "" {
		return 0
	}
	n := 0
	for _, row := range f.Rows {
		if _, ok := row[column].(time.Time); !ok {
			n++
		}
	}
	return n
}

type series struct {
	facets frame.Row
	points map[time.Time][]sum
}

// Roll replaces every value column by its trailing mean over window points of
// the rolling date column, at that column's resolution (day, month or year).
// Each series (one per combination of non-date, non-value columns) is
// re-indexed to every point between the frame's first and last date, missing
// points count as zero, and the first window-1 points of the range are null.
// Rows without a rolling date and other date columns are dropped.
func Roll(f *frame.Frame, dateColumns []string, window int) (*frame.Frame, error) {
	if window <= 0 || f.Empty() {
		return f, nil
	}
	dateColumn := rollingDateColumn(f, dateColumns)
	if dateColumn == "" {
		return nil, pipelineerrors.InvalidParameter(params.RollingDays, strconv.Itoa(window), "rolling requires a date column; add one to aggregate_by")
	}
	res := resolutionOf(dateColumn)

	values := f.ColumnsWhere(frame.IsValueColumn)
	facets := f.ColumnsWhere(func(c string) bool { return !frame.IsDateColumn(c) && !frame.IsValueColumn(c) })

	var order []string
	groups := map[string]*series{}
	var first, last time.Time
	for _, row := range f.Rows {
		date, ok := row[dateColumn].(time.Time)
		if !ok {
			continue
		}
		at := res.truncate(date)
		if first.IsZero() || at.Before(first) {
			first = at
		}
		if at.After(last) {
			last = at
		}

		key := frame.Key(row, facets)
		g, ok := groups[key]
		if !ok {
			g = &series{facets: copyCells(row, facets), points: map[time.Time][]sum{}}
			groups[key] = g
			order = append(order, key)
		}
		sums, ok := g.points[at]
		if !ok {
			sums = make([]sum, len(values))
			g.points[at] = sums
		}
		for i, c := range values {
			sums[i].add(row[c])
		}
	}

	span := res.index(first, last) + 1
	out := &frame.Frame{Columns: f.ColumnsWhere(func(c string) bool {
		return c == dateColumn || slices.Contains(facets, c) || slices.Contains(values, c)
	})}
	if len(order) == 0 {
		return out, nil
	}

	for _, key := range order {
		g := groups[key]
		points := make([][]float64, len(values))
		for i := range values {
			points[i] = make([]float64, span)
		}
		for at, sums := range g.points {
			idx := res.index(first, at)
			for i, s := range sums {
				points[i][idx] = s.value
			}
		}

		for idx := 0; idx < span; idx++ {
			row := copyCells(g.facets, facets)
			row[dateColumn] = res.point(first, idx)
			for i, c := range values {
				row[c] = trailingMean(points[i], idx, window)
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// trailingMean averages points idx-window+1..idx, or returns nil when the
// series has fewer than window points up to idx.
func trailingMean(points []float64, idx, window int) any {
	if idx+1 < window {
		return nil
	}
	total := 0.0
	for _, p := range points[idx-window+1 : idx+1] {
		total += p
	}
	return total / float64(window)
}
