package query

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

type filterKind int

const (
	inList filterKind = iota
	overlaps
)

// Filter restricts a SQL expression by a list parameter.
type Filter struct {
	Param string
	Expr  string
	kind  filterKind
}

// In keeps rows whose expr is one of the parameter's values.
func In(param, expr string) Filter {
	return Filter{Param: param, Expr: expr, kind: inList}
}

// Overlaps keeps rows whose array expr shares an element with the parameter.
func Overlaps(param, expr string) Filter {
	return Filter{Param: param, Expr: expr, kind: overlaps}
}

func (f Filter) apply(sb *database.SelectBuilder, values params.Values) {
	list := values.Strings(f.Param)
	if len(list) == 0 {
		return
	}
	switch f.kind {
	case overlaps:
		sb.Where(fmt.Sprintf("%s && %s", f.Expr, sb.Var(pq.Array(list))))
	default:
		sb.Where(sb.In(f.Expr, sqlbuilder.Flatten(list)...))
	}
}

func applyFilters(sb *database.SelectBuilder, values params.Values, filters []Filter) {
	for _, f := range filters {
		f.apply(sb, values)
	}
}

// applyDateRange bounds expr by date_from and date_to, both inclusive days.
func applyDateRange(sb *database.SelectBuilder, values params.Values, expr string) {
	if from, ok := values.Date(params.DateFrom); ok {
		sb.Where(sb.GreaterEqualThan(expr, from))
	}
	if to, ok := values.Date(params.DateTo); ok {
		sb.Where(sb.LessThan(expr, params.Today(to).AddDate(0, 0, 1)))
	}
}

// withinCountry matches facts that start and end in the same country.
func withinCountry(originExpr, destinationExpr string) string {
	return fmt.Sprintf("(%[2]s IS NOT NULL AND %[2]s = %[1]s)", originExpr, destinationExpr)
}

// filtered restricts a relation on its output columns. Filters whose
// parameter is absent are skipped.
func filtered(inner sqlbuilder.Builder, values params.Values, filters []Filter) sqlbuilder.Builder {
	active := false
	for _, f := range filters {
		if len(values.Strings(f.Param)) > 0 {
			active = true
			break
		}
	}
	if !active {
		return inner
	}

	sb := database.NewSelectBuilder()
	sb.Select("*").From(sb.BuilderAs(inner, "filtered"))
	applyFilters(sb, values, filters)
	return sb
}

func isoList(name, help string) params.Spec {
	return params.Spec{Name: name, Type: params.List, Upper: true, Validate: "dive,iso3166_1_alpha2", Help: help}
}

func textList(name, help string, choices ...string) params.Spec {
	return params.Spec{Name: name, Type: params.List, Help: help, Choices: choices}
}
