package query

import (
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

const FlowType = "type"

var EntsogFlowTypes = []string{"crossborder", "production", "consumption", "distribution", "storage"}

// EntsogFlow serves /v0/entsogflow: daily gas-grid flows by type.
type EntsogFlow struct {
	taxonomy *commodity.Taxonomy
}

func NewEntsogFlow(taxonomy *commodity.Taxonomy) *EntsogFlow {
	return &EntsogFlow{taxonomy: taxonomy}
}

func (e *EntsogFlow) Schema() params.Schema {
	return params.Shared().With(
		params.Spec{Name: params.PivotValue, Type: params.List, Default: []string{"value_m3"}, Help: "value columns to pivot"},
		textList(FlowType, "flow type", EntsogFlowTypes...),
		isoList(DepartureISO2, "country the gas leaves"),
		isoList(DestinationISO2, "country the gas enters"),
		textList(DepartureRegion, "departure region"),
		textList(DestinationRegion, "destination region"),
		groupingSpec(e.taxonomy),
	)
}

func (e *EntsogFlow) MustGroupBy() []aggregate.Token {
	return []aggregate.Token{aggregate.Currency, aggregate.PricingScenario, aggregate.Type}
}

func (e *EntsogFlow) facts(values params.Values) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(
		sb.As("ef.id", "fact_id"),
		sb.As("0::bigint", "fact_sub"),
		sb.As("ef.date", "leg_date"),
		"ef.id", "ef.date", "ef.type", "ef.departure_iso2", "ef.destination_iso2", "ef.value_tonne", "ef.value_m3",
		sb.As("c.pricing_commodity", "pricing_commodity"),
	)
	sb.From("entsog_flow ef")
	selectCommodity(sb, values.String(params.CommodityGrouping), "ef.commodity")

	applyDateRange(sb, values, "ef.date")
	applyFilters(sb, values, []Filter{
		In(FlowType, "ef.type"),
		In(DepartureISO2, "ef.departure_iso2"),
		In(DestinationISO2, "ef.destination_iso2"),
	})
	return sb
}

func (e *EntsogFlow) fields(useEU bool) fields {
	out := fields{
		{"id", "f.id"},
		{"date", "f.date"},
		{"type", "f.type"},
	}
	out = append(out, place("departure", "f.departure_iso2", "dpc", useEU)...)
	out = append(out, place("destination", "f.destination_iso2", "dc", useEU)...)
	return append(out, commodityFields...)
}

func (e *EntsogFlow) Columns() []string {
	return append(e.fields(true).names(), valuationColumns...)
}

func (e *EntsogFlow) Legs(values params.Values) sqlbuilder.Builder {
	return shiplessLegQuery(e.facts(values))
}

func (e *EntsogFlow) Base(values params.Values, prices *Prices) sqlbuilder.Builder {
	useEU := values.Bool(params.UseEU)

	sb := database.NewSelectBuilder()
	selected := e.fields(useEU)
	sb.From("facts f")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dpc", "dpc.iso2 = f.departure_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dc", "dc.iso2 = f.destination_iso2")
	joinValuation(sb, values)
	selected = append(selected, valuationFields...)
	sb.Select(selected.selectList(sb)...)
	sb.OrderBy("f.date", "f.id")

	return filtered(shiplessBase(e.facts(values), prices, sb), values, []Filter{
		In(DepartureRegion, "departure_region"),
		In(DestinationRegion, "destination_region"),
	})
}
