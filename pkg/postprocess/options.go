// Package postprocess reshapes a query result frame in a fixed order of
// steps: rolling mean, currency spread, sort, limit, pivot, projection,
// totals, postcompute and translation.
package postprocess

import (
	"github.com/Ramsey-B/fern/pkg/params"
)

// Options are the post-processing parameters of one request.
type Options struct {
	// Endpoint labels stage metrics.
	Endpoint string
	// DateColumns are the aggregation's date columns in request order; the
	// rolling mean prefers the first daily one.
	DateColumns       []string
	RollingDays       int
	KeepZeros         bool
	SortBy            []string
	Limit             int
	LimitBy           []string
	PivotBy           []string
	PivotValue        []string
	Select            []string
	AddTotalCommodity bool
	AddTotalRegion    bool
	Postcompute       string
	Language          string
}

func OptionsFrom(endpoint string, values params.Values, dateColumns []string) Options {
	rolling, _ := values.Int(params.RollingDays)
	limit, _ := values.Int(params.Limit)
	keepZeros := true
	if _, ok := values[params.KeepZeros]; ok {
		keepZeros = values.Bool(params.KeepZeros)
	}
	return Options{
		Endpoint:          endpoint,
		DateColumns:       dateColumns,
		RollingDays:       rolling,
		KeepZeros:         keepZeros,
		SortBy:            values.Strings(params.SortBy),
		Limit:             limit,
		LimitBy:           values.Strings(params.LimitBy),
		PivotBy:           values.Strings(params.PivotBy),
		PivotValue:        values.Strings(params.PivotValue),
		Select:            values.Strings(params.Select),
		AddTotalCommodity: values.Bool(params.AddTotalCommodity),
		AddTotalRegion:    values.Bool(params.AddTotalRegion),
		Postcompute:       values.String(params.Postcompute),
		Language:          values.String(params.Language),
	}
}
