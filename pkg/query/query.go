// Package query builds the per-endpoint base queries: one row per fact,
// pricing scenario and currency, ready for aggregation.
package query

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
	"github.com/Ramsey-B/fern/pkg/pricing"
)

// Builder produces an endpoint's base query.
type Builder interface {
	// Schema is the endpoint's full parameter schema.
	Schema() params.Schema
	// Columns lists the base query's output columns in order.
	Columns() []string
	// MustGroupBy are aggregation tokens kept whatever the request asks for.
	MustGroupBy() []aggregate.Token
	Base(values params.Values, prices *Prices) sqlbuilder.Builder
}

// Priced builders value their facts with prices chosen by the pricing
// Selector. Legs is the relation CandidateQuery reads.
type Priced interface {
	Builder
	Legs(values params.Values) sqlbuilder.Builder
}

// Gated builders need a credential for some parameter combinations.
type Gated interface {
	Privileged(values params.Values) bool
}

// Prices carries the selected price of every (fact, scenario) back into a
// base query as parallel arrays.
type Prices struct {
	ids       []int64
	subs      []int64
	scenarios []string
	values    []decimal.NullDecimal
}

func NewPrices(choices []pricing.Choice) *Prices {
	p := &Prices{
		ids:       make([]int64, 0, len(choices)),
		subs:      make([]int64, 0, len(choices)),
		scenarios: make([]string, 0, len(choices)),
		values:    make([]decimal.NullDecimal, 0, len(choices)),
	}
	for _, c := range choices {
		p.ids = append(p.ids, c.Key.Fact.ID)
		p.subs = append(p.subs, c.Key.Fact.Sub)
		p.scenarios = append(p.scenarios, c.Key.Scenario)
		p.values = append(p.values, c.Price.EurPerTonne)
	}
	return p
}

func (p *Prices) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ids)
}

// Relation renders the prices as chosen(fact_id, fact_sub, scenario, eur_per_tonne).
func (p *Prices) Relation() sqlbuilder.Builder {
	if p == nil {
		p = NewPrices(nil)
	}
	return sqlbuilder.Buildf(
		"SELECT * FROM unnest(%v::bigint[], %v::bigint[], %v::text[], %v::numeric[]) AS chosen(fact_id, fact_sub, scenario, eur_per_tonne)",
		pq.Array(p.ids), pq.Array(p.subs), pq.Array(p.scenarios), pq.Array(p.values),
	)
}

type field struct {
	name string
	expr string
}

type fields []field

func (f fields) names() []string {
	out := make([]string, len(f))
	for i, fl := range f {
		out[i] = fl.name
	}
	return out
}

func (f fields) selectList(sb *database.SelectBuilder) []string {
	out := make([]string, len(f))
	for i, fl := range f {
		if fl.expr == fl.name {
			out[i] = fl.name
		} else {
			out[i] = sb.As(fl.expr, fl.name)
		}
	}
	return out
}

// regionExpr labels a country row's region. With useEU, EU members report
// "EU" and GB "United Kingdom"; otherwise the legacy EU28 membership applies.
func regionExpr(alias string, useEU bool) string {
	if useEU {
		return fmt.Sprintf("CASE WHEN 'EU' = ANY(%[1]s.regions) THEN 'EU' WHEN %[1]s.iso2 = 'GB' THEN 'United Kingdom' ELSE %[1]s.region END", alias)
	}
	return fmt.Sprintf("CASE WHEN 'EU28' = ANY(%[1]s.regions) THEN 'EU28' ELSE %[1]s.region END", alias)
}

// place returns the iso2, country and region fields of a country join.
func place(prefix, iso2Expr, alias string, useEU bool) fields {
	return fields{
		{prefix + "_iso2", iso2Expr},
		{prefix + "_country", alias + ".name"},
		{prefix + "_region", regionExpr(alias, useEU)},
	}
}

// commodityFields are the facets of the commodity view c and its equivalent ce.
var commodityFields = fields{
	{"commodity", "f.commodity"},
	{"commodity_name", "f.commodity_name"},
	{"commodity_group", "f.commodity_group"},
	{"commodity_group_name", "f.commodity_group_name"},
	{"commodity_equivalent", "f.commodity_equivalent"},
	{"commodity_equivalent_name", "f.commodity_equivalent_name"},
	{"commodity_equivalent_group", "f.commodity_equivalent_group"},
	{"commodity_equivalent_group_name", "f.commodity_equivalent_group_name"},
}

// selectCommodity adds the commodity view joins and facets to a facts builder.
// idExpr is the fact's commodity id.
func selectCommodity(sb *database.SelectBuilder, grouping, idExpr string) {
	sb.SelectMore(
		sb.As("c.id", "commodity"),
		sb.As("c.name", "commodity_name"),
		sb.As(`c."group"`, "commodity_group"),
		sb.As("c.group_name", "commodity_group_name"),
		sb.As("c.equivalent_id", "commodity_equivalent"),
		sb.As("ce.name", "commodity_equivalent_name"),
		sb.As(`ce."group"`, "commodity_equivalent_group"),
		sb.As("ce.group_name", "commodity_equivalent_group_name"),
	)
	sb.Join(sb.BuilderAs(commodity.View(grouping), "c"), "c.id = "+idExpr)
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.BuilderAs(commodity.View(grouping), "ce"), "ce.id = c.equivalent_id")
}

func orDefault(values []string, fallback ...string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

func commoditySpec(taxonomy *commodity.Taxonomy) params.Spec {
	spec := textList(Commodity, "commodity id")
	if taxonomy != nil {
		spec.Choices = taxonomy.IDs()
	}
	return spec
}

func equivalentSpec(taxonomy *commodity.Taxonomy) params.Spec {
	spec := textList(CommodityEquivalent, "coarse commodity class")
	if taxonomy != nil {
		spec.Choices = taxonomy.Equivalents()
	}
	return spec
}

func groupingSpec(taxonomy *commodity.Taxonomy) params.Spec {
	spec := params.Spec{Name: params.CommodityGrouping, Type: params.Enum, Default: commodity.DefaultGrouping, Help: "commodity grouping"}
	if taxonomy != nil {
		spec.Choices = taxonomy.Groupings()
	} else {
		spec.Choices = []string{commodity.DefaultGrouping}
	}
	return spec
}
