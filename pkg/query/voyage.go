package query

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

const (
	DepartureISO2     = "departure_iso2"
	DepartureRegion   = "departure_region"
	DeparturePortID   = "departure_port_id"
	ArrivalISO2       = "arrival_iso2"
	ShipIMO           = "ship_imo"
	CommodityDestISO2 = "commodity_destination_iso2"
)

var VoyageStatuses = []string{"ongoing", "completed"}

// Voyage serves /v0/voyage: single-ship voyages with departure and arrival ports.
type Voyage struct {
	taxonomy *commodity.Taxonomy
}

func NewVoyage(taxonomy *commodity.Taxonomy) *Voyage {
	return &Voyage{taxonomy: taxonomy}
}

func (v *Voyage) Schema() params.Schema {
	return params.Shared().With(
		isoList(DepartureISO2, "departure country"),
		isoList(ArrivalISO2, "arrival port country"),
		isoList(DestinationISO2, "final destination country"),
		textList(DepartureRegion, "departure region"),
		textList(DestinationRegion, "final destination region"),
		params.Spec{Name: DeparturePortID, Type: params.List, Validate: "dive,numeric", Help: "departure port id"},
		commoditySpec(v.taxonomy),
		textList(CommodityGroup, "commodity group"),
		equivalentSpec(v.taxonomy),
		groupingSpec(v.taxonomy),
		textList(Status, "voyage status", VoyageStatuses...),
		textList(ShipIMO, "ship imo"),
		isoList(ShipOwnerISO2, "nationality of the ship owner"),
		isoList(ShipInsurerISO2, "nationality of the ship insurer"),
	)
}

func (v *Voyage) MustGroupBy() []aggregate.Token {
	return []aggregate.Token{aggregate.Currency, aggregate.PricingScenario}
}

func (v *Voyage) facts(values params.Values) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	pricingCommodity := fmt.Sprintf(
		"CASE WHEN c.equivalent_id = 'crude_oil' AND dp.iso2 = 'RU' "+
			"THEN CASE WHEN dp.name ~ %s THEN 'crude_oil_espo' ELSE 'crude_oil_urals' END "+
			"ELSE c.pricing_commodity END",
		sb.Var(espoPorts),
	)

	sb.Select(
		sb.As("v.id", "fact_id"),
		sb.As("0::bigint", "fact_sub"),
		sb.As("v.departure_date", "leg_date"),
		"v.id", "v.status", "v.departure_date", "v.arrival_date", "v.ship_imo", "v.value_tonne", "v.value_m3",
		sb.As("sh.name", "ship_name"),
		sb.As("dp.id", "departure_port_id"),
		sb.As("dp.name", "departure_port_name"),
		sb.As("dp.iso2", "departure_iso2"),
		sb.As("ap.id", "arrival_port_id"),
		sb.As("ap.name", "arrival_port_name"),
		sb.As("ap.iso2", "arrival_iso2"),
		sb.As("coalesce(v.destination_iso2, ap.iso2)", "destination_iso2"),
		sb.As(pricingCommodity, "pricing_commodity"),
	)
	sb.From("voyage v")
	sb.Join("port dp", "dp.id = v.departure_port_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "port ap", "ap.id = v.arrival_port_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "ship sh", "sh.imo = v.ship_imo")
	selectCommodity(sb, values.String(params.CommodityGrouping), "v.commodity")

	applyDateRange(sb, values, "v.departure_date")
	applyFilters(sb, values, []Filter{
		In(DepartureISO2, "dp.iso2"),
		In(ArrivalISO2, "ap.iso2"),
		In(DestinationISO2, "coalesce(v.destination_iso2, ap.iso2)"),
		In(DeparturePortID, "dp.id"),
		In(Commodity, "c.id"),
		In(CommodityGroup, `c."group"`),
		In(CommodityEquivalent, "c.equivalent_id"),
		In(Status, "v.status"),
		In(ShipIMO, "v.ship_imo"),
	})
	return sb
}

const voyageShips = "SELECT f.fact_id, f.fact_sub, 1 AS ship_order, f.ship_imo, f.leg_date FROM facts f WHERE f.ship_imo IS NOT NULL"

func (v *Voyage) fields(useEU bool) fields {
	out := fields{
		{"id", "f.id"},
		{"status", "f.status"},
		{"departure_date", "f.departure_date"},
		{"arrival_date", "f.arrival_date"},
		{"departure_port_id", "f.departure_port_id"},
		{"departure_port_name", "f.departure_port_name"},
	}
	out = append(out, place("departure", "f.departure_iso2", "dpc", useEU)...)
	out = append(out,
		field{"arrival_port_id", "f.arrival_port_id"},
		field{"arrival_port_name", "f.arrival_port_name"},
	)
	out = append(out, place("arrival", "f.arrival_iso2", "apc", useEU)...)
	out = append(out, place("destination", "f.destination_iso2", "dc", useEU)...)
	out = append(out, commodityFields...)
	out = append(out, field{"ship_imo", "f.ship_imo"}, field{"ship_name", "f.ship_name"})
	return append(out, shipPartyFields...)
}

func (v *Voyage) Columns() []string {
	return append(v.fields(true).names(), valuationColumns...)
}

func (v *Voyage) Legs(values params.Values) sqlbuilder.Builder {
	return shippedLegQuery(v.facts(values), voyageShips, values.Bool(params.UseEU))
}

func (v *Voyage) Base(values params.Values, prices *Prices) sqlbuilder.Builder {
	useEU := values.Bool(params.UseEU)

	sb := database.NewSelectBuilder()
	selected := v.fields(useEU)
	sb.From("facts f")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dpc", "dpc.iso2 = f.departure_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country apc", "apc.iso2 = f.arrival_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dc", "dc.iso2 = f.destination_iso2")
	joinShipParties(sb)
	joinValuation(sb, values)
	selected = append(selected, valuationFields...)
	sb.Select(selected.selectList(sb)...)
	sb.OrderBy("f.departure_date", "f.id")

	base := shippedBase(v.facts(values), voyageShips, useEU, prices, sb)
	return filtered(base, values, []Filter{
		In(DepartureRegion, "departure_region"),
		In(DestinationRegion, "destination_region"),
		Overlaps(ShipOwnerISO2, "ship_owner_iso2s"),
		Overlaps(ShipInsurerISO2, "ship_insurer_iso2s"),
	})
}
