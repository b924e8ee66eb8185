package aggregate

import "fmt"

// Column is one output column of an aggregation. Source is the base-query
// column it reads; Expr is the grouping expression over Source.
type Column struct {
	Name   string
	Source string
	Expr   string
}

func plain(names ...string) []Column {
	out := make([]Column, len(names))
	for i, name := range names {
		out[i] = Column{Name: name, Source: name, Expr: name}
	}
	return out
}

func day(source string) []Column {
	return []Column{{Name: source, Source: source, Expr: fmt.Sprintf("%s::date", source)}}
}

func truncated(name, source, unit string) []Column {
	return []Column{{Name: name, Source: source, Expr: fmt.Sprintf("date_trunc('%s', %s)::date", unit, source)}}
}

func place(prefix string) []Column {
	return plain(prefix+"_iso2", prefix+"_country", prefix+"_region")
}

func port(prefix string) []Column {
	return plain(prefix+"_port_id", prefix+"_port_name", prefix+"_iso2", prefix+"_country")
}

var expansions = map[Token][]Column{
	Date:             day("date"),
	Month:            truncated("month", "date", "month"),
	Year:             truncated("year", "date", "year"),
	OriginDate:       day("origin_date"),
	OriginMonth:      truncated("origin_month", "origin_date", "month"),
	OriginYear:       truncated("origin_year", "origin_date", "year"),
	DestinationDate:  day("destination_date"),
	DestinationMonth: truncated("destination_month", "destination_date", "month"),
	DestinationYear:  truncated("destination_year", "destination_date", "year"),
	DepartureDate:    day("departure_date"),
	DepartureMonth:   truncated("departure_month", "departure_date", "month"),
	DepartureYear:    truncated("departure_year", "departure_date", "year"),
	ArrivalDate:      day("arrival_date"),
	ArrivalMonth:     truncated("arrival_month", "arrival_date", "month"),
	ArrivalYear:      truncated("arrival_year", "arrival_date", "year"),

	OriginCountry:               place("origin"),
	OriginRegion:                plain("origin_region"),
	OriginPort:                  port("origin"),
	CommodityOriginCountry:      place("commodity_origin"),
	CommodityOriginRegion:       plain("commodity_origin_region"),
	DestinationCountry:          place("destination"),
	DestinationRegion:           plain("destination_region"),
	DestinationPort:             port("destination"),
	CommodityDestinationCountry: place("commodity_destination"),
	CommodityDestinationRegion:  plain("commodity_destination_region"),
	DepartureCountry:            place("departure"),
	DepartureRegion:             plain("departure_region"),
	DeparturePort:               port("departure"),
	ArrivalCountry:              place("arrival"),
	ArrivalRegion:               plain("arrival_region"),
	ArrivalPort:                 port("arrival"),
	Port:                        port("port"),
	Country:                     plain("iso2", "country", "region"),

	Commodity:           plain("commodity", "commodity_name", "commodity_group", "commodity_group_name"),
	CommodityGroup:      plain("commodity_group", "commodity_group_name"),
	CommodityEquivalent: plain("commodity_equivalent", "commodity_equivalent_name", "commodity_equivalent_group", "commodity_equivalent_group_name"),
	Grade:               plain("grade", "commodity", "commodity_name", "commodity_group", "commodity_group_name"),
	Family:              plain("family"),
	PricingCommodity:    plain("pricing_commodity"),
	PricingScenario:     plain("pricing_scenario"),
	Currency:            plain("currency"),

	ShipOwner:   plain("ship_owner_names", "ship_owner_iso2s", "ship_owner_regions"),
	ShipInsurer: plain("ship_insurer_names", "ship_insurer_iso2s", "ship_insurer_regions"),
	Ship:        plain("ship_imo", "ship_name"),
	Buyer:       plain("buyer_names"),
	Seller:      plain("seller_names"),
	Status:      plain("status"),
	Trade:       plain("trade_id", "flow_id"),
	Type:        plain("type"),
	MoveType:    plain("move_type"),
	LoadStatus:  plain("load_status"),
	Facility:    plain("facility_id", "facility_name", "facility_type", "geometry"),
}

// Expand returns the columns a token groups by.
func Expand(token Token) []Column {
	return expansions[token]
}

// ValueColumns are summed by every aggregation that exposes them.
var ValueColumns = []string{"value_tonne", "value_m3", "value_eur", "value_currency"}
