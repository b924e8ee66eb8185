package query

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

// Trade parameter names.
const (
	OriginISO2            = "origin_iso2"
	DestinationISO2       = "destination_iso2"
	CommodityOriginISO2   = "commodity_origin_iso2"
	OriginRegion          = "origin_region"
	DestinationRegion     = "destination_region"
	CommodityOriginRegion = "commodity_origin_region"
	Commodity             = "commodity"
	CommodityGroup        = "commodity_group"
	CommodityEquivalent   = "commodity_equivalent"
	Grade                 = "grade"
	Status                = "status"
	TradeIDs              = "trade_ids"
	Buyer                 = "buyer"
	Seller                = "seller"
	ShipOwnerISO2         = "ship_owner_iso2"
	ShipInsurerISO2       = "ship_insurer_iso2"
	ExcludeWithinCountry  = "exclude_within_country"
)

var TradeStatuses = []string{"ongoing", "completed", "undetected_arrival"}

// Russian crude is priced on the ESPO curve when it leaves a Pacific port and
// on Urals otherwise. Kazakh blends shipped through Russia keep their own price.
const (
	crudeGroupName = "Crude/Co"
	espoPorts      = "^(Nakhodka|De Kast|Prigorod)"
)

var kazakhGrades = []string{"CPC Kazakhstan", "KEBCO"}

// Trade serves /v1/kpler_trade: one row per Kpler trade flow.
type Trade struct {
	taxonomy *commodity.Taxonomy
}

func NewTrade(taxonomy *commodity.Taxonomy) *Trade {
	return &Trade{taxonomy: taxonomy}
}

func (t *Trade) Schema() params.Schema {
	return params.Shared().With(
		isoList(OriginISO2, "departure country"),
		isoList(DestinationISO2, "arrival country"),
		isoList(CommodityOriginISO2, "country the commodity was produced in"),
		textList(OriginRegion, "departure region"),
		textList(DestinationRegion, "arrival region"),
		textList(CommodityOriginRegion, "region the commodity was produced in"),
		commoditySpec(t.taxonomy),
		textList(CommodityGroup, "commodity group"),
		equivalentSpec(t.taxonomy),
		groupingSpec(t.taxonomy),
		textList(Grade, "product grade"),
		textList(Status, "trade status", TradeStatuses...),
		params.Spec{Name: TradeIDs, Type: params.List, Validate: "dive,numeric", Help: "trade ids (requires api_key)"},
		textList(Buyer, "buyer name (requires api_key)"),
		textList(Seller, "seller name (requires api_key)"),
		isoList(ShipOwnerISO2, "nationality of any ship owner"),
		isoList(ShipInsurerISO2, "nationality of any ship insurer"),
		params.Spec{Name: ExcludeWithinCountry, Type: params.Boolean, Default: false, Help: "drop trades ending in their departure country"},
	)
}

// Privileged reports whether the request identifies trades or counterparties.
func (t *Trade) Privileged(values params.Values) bool {
	return values.Has(TradeIDs) || values.Has(Buyer) || values.Has(Seller)
}

func (t *Trade) MustGroupBy() []aggregate.Token {
	return []aggregate.Token{aggregate.Currency, aggregate.PricingScenario}
}

func (t *Trade) facts(values params.Values) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()

	commodityOrigin := fmt.Sprintf("CASE WHEN %s THEN 'KZ' ELSE oz.country_iso2 END",
		sb.In("coalesce(p.grade_name, '')", sqlbuilder.Flatten(kazakhGrades)...))
	pricingCommodity := fmt.Sprintf(
		"CASE WHEN p.group_name = '%s' AND oz.country_iso2 = 'RU' AND %s "+
			"THEN CASE WHEN oz.port_name ~ %s THEN 'crude_oil_espo' ELSE 'crude_oil_urals' END "+
			"ELSE c.pricing_commodity END",
		crudeGroupName,
		sb.NotIn("coalesce(p.grade_name, '')", sqlbuilder.Flatten(kazakhGrades)...),
		sb.Var(espoPorts),
	)

	sb.Select(
		sb.As("t.trade_id", "fact_id"),
		sb.As("t.flow_id", "fact_sub"),
		sb.As("t.origin_date", "leg_date"),
		"t.trade_id", "t.flow_id", "t.status", "t.origin_date", "t.destination_date",
		"t.vessel_imos", "t.buyer_names", "t.seller_names", "t.value_tonne", "t.value_m3",
		sb.As("oz.id", "origin_zone_id"),
		sb.As("oz.name", "origin_zone_name"),
		sb.As("oz.port_id", "origin_port_id"),
		sb.As("oz.port_name", "origin_port_name"),
		sb.As("oz.country_iso2", "origin_iso2"),
		sb.As(commodityOrigin, "commodity_origin_iso2"),
		sb.As("dz.id", "destination_zone_id"),
		sb.As("dz.name", "destination_zone_name"),
		sb.As("dz.port_id", "destination_port_id"),
		sb.As("dz.port_name", "destination_port_name"),
		sb.As("dz.country_iso2", "destination_iso2"),
		sb.As("p.grade_name", "grade"),
		sb.As("p.family_name", "family"),
		sb.As(pricingCommodity, "pricing_commodity"),
	)
	sb.From("kpler_trade t")
	sb.Join("kpler_product p", "p.id = t.product_id")
	sb.Join("kpler_zone oz", "oz.id = t.origin_zone_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "kpler_zone dz", "dz.id = t.destination_zone_id")
	selectCommodity(sb, values.String(params.CommodityGrouping), commodity.IDExpression("coalesce(p.commodity_name, p.group_name)"))

	sb.Where("t.is_valid")
	applyDateRange(sb, values, "t.origin_date")
	applyFilters(sb, values, []Filter{
		In(OriginISO2, "oz.country_iso2"),
		In(DestinationISO2, "dz.country_iso2"),
		In(CommodityOriginISO2, commodityOrigin),
		In(Commodity, "c.id"),
		In(CommodityGroup, `c."group"`),
		In(CommodityEquivalent, "c.equivalent_id"),
		In(Grade, "p.grade_name"),
		In(Status, "t.status"),
		In(TradeIDs, "t.trade_id"),
		Overlaps(Buyer, "t.buyer_names"),
		Overlaps(Seller, "t.seller_names"),
	})
	if values.Bool(ExcludeWithinCountry) {
		sb.Where("NOT " + withinCountry("oz.country_iso2", "dz.country_iso2"))
	}
	return sb
}

const tradeShips = "SELECT f.fact_id, f.fact_sub, s.ship_order::int AS ship_order, s.ship_imo, f.leg_date " +
	"FROM facts f CROSS JOIN LATERAL unnest(f.vessel_imos) WITH ORDINALITY AS s(ship_imo, ship_order)"

func (t *Trade) fields(useEU bool) fields {
	out := fields{
		{"trade_id", "f.trade_id"},
		{"flow_id", "f.flow_id"},
		{"status", "f.status"},
		{"origin_date", "f.origin_date"},
		{"destination_date", "f.destination_date"},
		{"origin_zone_id", "f.origin_zone_id"},
		{"origin_zone_name", "f.origin_zone_name"},
		{"origin_port_id", "f.origin_port_id"},
		{"origin_port_name", "f.origin_port_name"},
	}
	out = append(out, place("origin", "f.origin_iso2", "oc", useEU)...)
	out = append(out, place("commodity_origin", "f.commodity_origin_iso2", "coc", useEU)...)
	out = append(out,
		field{"destination_zone_id", "f.destination_zone_id"},
		field{"destination_zone_name", "f.destination_zone_name"},
		field{"destination_port_id", "f.destination_port_id"},
		field{"destination_port_name", "f.destination_port_name"},
	)
	out = append(out, place("destination", "f.destination_iso2", "dc", useEU)...)
	out = append(out, field{"grade", "f.grade"}, field{"family", "f.family"})
	out = append(out, commodityFields...)
	out = append(out,
		field{"buyer_names", "f.buyer_names"},
		field{"seller_names", "f.seller_names"},
		field{"vessel_imos", "f.vessel_imos"},
	)
	return append(out, shipPartyFields...)
}

func (t *Trade) Columns() []string {
	return append(t.fields(true).names(), valuationColumns...)
}

func (t *Trade) Legs(values params.Values) sqlbuilder.Builder {
	return shippedLegQuery(t.facts(values), tradeShips, values.Bool(params.UseEU))
}

func (t *Trade) Base(values params.Values, prices *Prices) sqlbuilder.Builder {
	useEU := values.Bool(params.UseEU)

	sb := database.NewSelectBuilder()
	selected := t.fields(useEU)
	sb.From("facts f")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country oc", "oc.iso2 = f.origin_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country coc", "coc.iso2 = f.commodity_origin_iso2")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "country dc", "dc.iso2 = f.destination_iso2")
	joinShipParties(sb)
	joinValuation(sb, values)
	selected = append(selected, valuationFields...)
	sb.Select(selected.selectList(sb)...)
	sb.OrderBy("f.origin_date", "f.trade_id", "f.flow_id")

	base := shippedBase(t.facts(values), tradeShips, useEU, prices, sb)
	return filtered(base, values, []Filter{
		In(OriginRegion, "origin_region"),
		In(DestinationRegion, "destination_region"),
		In(CommodityOriginRegion, "commodity_origin_region"),
		Overlaps(ShipOwnerISO2, "ship_owner_iso2s"),
		Overlaps(ShipInsurerISO2, "ship_insurer_iso2s"),
	})
}
