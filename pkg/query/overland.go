package query

import (
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

const CommodityDestinationRegion = "commodity_destination_region"

// Overland serves /v0/overland: pipeline, rail and road flows between countries.
// Flows carry no ships, so only prices without owner or insurer restrictions apply.
type Overland struct {
	taxonomy *commodity.Taxonomy
}

func NewOverland(taxonomy *commodity.Taxonomy) *Overland {
	return &Overland{taxonomy: taxonomy}
}

func (o *Overland) Schema() params.Schema {
	return params.Shared().With(
		isoList(DepartureISO2, "country the flow leaves"),
		isoList(DestinationISO2, "country the flow enters"),
		isoList(CommodityOriginISO2, "country the commodity was produced in"),
		isoList(CommodityDestISO2, "country the commodity is consumed in"),
		textList(DepartureRegion, "departure region"),
		textList(DestinationRegion, "destination region"),
		textList(CommodityOriginRegion, "region the commodity was produced in"),
		textList(CommodityDestinationRegion, "region the commodity is consumed in"),
		commoditySpec(o.taxonomy),
		textList(CommodityGroup, "commodity group"),
		equivalentSpec(o.taxonomy),
		groupingSpec(o.taxonomy),
		params.Spec{Name: ExcludeWithinCountry, Type: params.Boolean, Default: true, Help: "drop flows consumed in their country of origin"},
	)
}

func (o *Overland) MustGroupBy() []aggregate.Token {
	return []aggregate.Token{aggregate.Currency, aggregate.PricingScenario}
}

const (
	overlandCommodityOrigin      = "coalesce(pf.commodity_origin_iso2, pf.departure_iso2)"
	overlandCommodityDestination = "coalesce(pf.commodity_destination_iso2, pf.destination_iso2)"
)

func (o *Overland) facts(values params.Values) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(
		sb.As("pf.id", "fact_id"),
		sb.As("0::bigint", "fact_sub"),
		sb.As("pf.date", "leg_date"),
		"pf.id", "pf.date", "pf.departure_iso2", "pf.destination_iso2", "pf.value_tonne", "pf.value_m3",
		sb.As(overlandCommodityOrigin, "commodity_origin_iso2"),
		sb.As(overlandCommodityDestination, "commodity_destination_iso2"),
		sb.As("c.pricing_commodity", "pricing_commodity"),
	)
	sb.From("pipeline_flow pf")
	selectCommodity(sb, values.String(params.CommodityGrouping), "pf.commodity")

	applyDateRange(sb, values, "pf.date")
	applyFilters(sb, values, []Filter{
		In(DepartureISO2, "pf.departure_iso2"),
		In(DestinationISO2, "pf.destination_iso2"),
		In(CommodityOriginISO2, overlandCommodityOrigin),
		In(CommodityDestISO2, overlandCommodityDestination),
		In(Commodity, "c.id"),
		In(CommodityGroup, `c."group"`),
		In(CommodityEquivalent, "c.equivalent_id"),
	})
	if values.Bool(ExcludeWithinCountry) {
		sb.Where("NOT " + withinCountry(overlandCommodityOrigin, "pf.destination_iso2"))
	}
	return sb
}

func (o *Overland) fields(useEU bool) fields {
	out := fields{
		{"id", "f.id"},
		{"date", "f.date"},
	}
	out = append(out, place("departure", "f.departure_iso2", "dpc", useEU)...)
	out = append(out, place("commodity_origin", "f.commodity_origin_iso2", "coc", useEU)...)
	out = append(out, place("destination", "f.destination_iso2", "dc", useEU)...)
	out = append(out, place("commodity_destination", "f.commodity_destination_iso2", "cdc", useEU)...)
	return append(out, commodityFields...)
}

func (o *Overland) Columns() []string {
	return append(o.fields(true).names(), valuationColumns...)
}

func (o *Overland) Legs(values params.Values) sqlbuilder.Builder {
	return shiplessLegQuery(o.facts(values))
}

func (o *Overland) Base(values params.Values, prices *Prices) sqlbuilder.Builder {
	useEU := values.Bool(params.UseEU)

	sb := database.NewSelectBuilder()
	selected := o.fields(useEU)
	sb.From("facts f")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dpc", "dpc.iso2 = f.departure_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country coc", "coc.iso2 = f.commodity_origin_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dc", "dc.iso2 = f.destination_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country cdc", "cdc.iso2 = f.commodity_destination_iso2")
	joinValuation(sb, values)
	selected = append(selected, valuationFields...)
	sb.Select(selected.selectList(sb)...)
	sb.OrderBy("f.date", "f.id")

	return filtered(shiplessBase(o.facts(values), prices, sb), values, []Filter{
		In(DepartureRegion, "departure_region"),
		In(DestinationRegion, "destination_region"),
		In(CommodityOriginRegion, "commodity_origin_region"),
		In(CommodityDestinationRegion, "commodity_destination_region"),
	})
}
