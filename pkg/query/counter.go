package query

import (
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

// Counter serves /v0/counter: the precomputed daily import series. Values
// are stored in EUR per scenario, so only currency conversion happens here.
type Counter struct {
	taxonomy *commodity.Taxonomy
}

func NewCounter(taxonomy *commodity.Taxonomy) *Counter {
	return &Counter{taxonomy: taxonomy}
}

func (c *Counter) Schema() params.Schema {
	return params.Shared().With(
		isoList(DestinationISO2, "importing country"),
		textList(DestinationRegion, "importing region"),
		commoditySpec(c.taxonomy),
		textList(CommodityGroup, "commodity group"),
		equivalentSpec(c.taxonomy),
		groupingSpec(c.taxonomy),
	)
}

func (c *Counter) MustGroupBy() []aggregate.Token {
	return []aggregate.Token{aggregate.Currency, aggregate.PricingScenario}
}

func (c *Counter) facts(values params.Values) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(
		sb.As("ct.date", "leg_date"),
		"ct.date", "ct.destination_iso2", "ct.pricing_scenario", "ct.value_tonne", "ct.value_eur",
	)
	sb.From("counter ct")
	selectCommodity(sb, values.String(params.CommodityGrouping), "ct.commodity")

	applyDateRange(sb, values, "ct.date")
	sb.Where(sb.In("ct.pricing_scenario", sqlbuilder.Flatten(orDefault(values.Strings(params.PricingScenario), "default"))...))
	applyFilters(sb, values, []Filter{
		In(DestinationISO2, "ct.destination_iso2"),
		In(Commodity, "c.id"),
		In(CommodityGroup, `c."group"`),
		In(CommodityEquivalent, "c.equivalent_id"),
	})
	return sb
}

func (c *Counter) fields(useEU bool) fields {
	out := fields{{"date", "f.date"}}
	out = append(out, place("destination", "f.destination_iso2", "dc", useEU)...)
	out = append(out, commodityFields...)
	out = append(out,
		field{"pricing_scenario", "f.pricing_scenario"},
		field{"value_tonne", "f.value_tonne"},
		field{"value_eur", "f.value_eur"},
	)
	return append(out, currencyFields("f.value_eur")...)
}

func (c *Counter) Columns() []string {
	return c.fields(true).names()
}

func (c *Counter) Base(values params.Values, _ *Prices) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.From("facts f")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dc", "dc.iso2 = f.destination_iso2")
	joinCurrency(sb, values)
	sb.Select(c.fields(values.Bool(params.UseEU)).selectList(sb)...)
	sb.OrderBy("f.date")

	base := sqlbuilder.Buildf("WITH facts AS (%v)\n%v", c.facts(values), sb)
	return filtered(base, values, []Filter{In(DestinationRegion, "destination_region")})
}
