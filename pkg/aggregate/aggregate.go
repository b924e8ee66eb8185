package aggregate

import (
	"slices"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
)

// Plan is the resolved aggregation for one request against one base query.
type Plan struct {
	Tokens []Token
	// Dropped are requested tokens the base query has no columns for.
	Dropped []Token
	Columns []Column
	Sums    []string
}

// NewPlan resolves requested tokens against the base query's columns. The
// must tokens are appended when the base query exposes them. A nil plan
// means no aggregation was requested.
func NewPlan(requested, must []Token, available []string) *Plan {
	if len(requested) == 0 {
		return nil
	}

	plan := &Plan{}
	seen := map[string]bool{}
	add := func(token Token, forced bool) {
		if slices.Contains(plan.Tokens, token) {
			return
		}
		var columns []Column
		for _, column := range expansions[token] {
			if slices.Contains(available, column.Source) {
				columns = append(columns, column)
			}
		}
		if len(columns) == 0 {
			if !forced {
				plan.Dropped = append(plan.Dropped, token)
			}
			return
		}
		plan.Tokens = append(plan.Tokens, token)
		for _, column := range columns {
			if !seen[column.Name] {
				seen[column.Name] = true
				plan.Columns = append(plan.Columns, column)
			}
		}
	}

	for _, token := range requested {
		add(token, false)
	}
	for _, token := range must {
		add(token, true)
	}
	for _, value := range ValueColumns {
		if slices.Contains(available, value) {
			plan.Sums = append(plan.Sums, value)
		}
	}
	return plan
}

// ColumnNames lists the output columns: groups then sums.
func (p *Plan) ColumnNames() []string {
	names := make([]string, 0, len(p.Columns)+len(p.Sums))
	for _, column := range p.Columns {
		names = append(names, column.Name)
	}
	return append(names, p.Sums...)
}

// DateColumns lists the output columns produced by date tokens, in request order.
func (p *Plan) DateColumns() []string {
	var out []string
	for _, token := range p.Tokens {
		if !token.IsDate() {
			continue
		}
		for _, column := range expansions[token] {
			out = append(out, column.Name)
		}
	}
	return out
}

// Wrap groups the base query by the plan's columns and sums its values.
func (p *Plan) Wrap(base sqlbuilder.Builder) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()

	selected := make([]string, 0, len(p.Columns)+len(p.Sums))
	groups := make([]string, 0, len(p.Columns))
	names := make([]string, 0, len(p.Columns))
	for _, column := range p.Columns {
		if column.Expr == column.Name {
			selected = append(selected, column.Name)
		} else {
			selected = append(selected, sb.As(column.Expr, column.Name))
		}
		groups = append(groups, column.Expr)
		names = append(names, column.Name)
	}
	for _, value := range p.Sums {
		selected = append(selected, sb.As("SUM("+value+")", value))
	}

	sb.Select(selected...)
	sb.From(sb.BuilderAs(base, "base"))
	if len(groups) > 0 {
		sb.GroupBy(groups...)
		sb.OrderBy(names...)
	}
	return sb
}
