// Package aggregate turns aggregate_by tokens into a GROUP BY over a base query.
package aggregate

import (
	"slices"
	"strings"
)

// Token is a semantic aggregation key. The set is closed: every token has an
// entry in expansions.
type Token string

const (
	Date             Token = "date"
	Month            Token = "month"
	Year             Token = "year"
	OriginDate       Token = "origin_date"
	OriginMonth      Token = "origin_month"
	OriginYear       Token = "origin_year"
	DestinationDate  Token = "destination_date"
	DestinationMonth Token = "destination_month"
	DestinationYear  Token = "destination_year"
	DepartureDate    Token = "departure_date"
	DepartureMonth   Token = "departure_month"
	DepartureYear    Token = "departure_year"
	ArrivalDate      Token = "arrival_date"
	ArrivalMonth     Token = "arrival_month"
	ArrivalYear      Token = "arrival_year"

	OriginCountry               Token = "origin_country"
	OriginRegion                Token = "origin_region"
	OriginPort                  Token = "origin_port"
	CommodityOriginCountry      Token = "commodity_origin_country"
	CommodityOriginRegion       Token = "commodity_origin_region"
	DestinationCountry          Token = "destination_country"
	DestinationRegion           Token = "destination_region"
	DestinationPort             Token = "destination_port"
	CommodityDestinationCountry Token = "commodity_destination_country"
	CommodityDestinationRegion  Token = "commodity_destination_region"
	DepartureCountry            Token = "departure_country"
	DepartureRegion             Token = "departure_region"
	DeparturePort               Token = "departure_port"
	ArrivalCountry              Token = "arrival_country"
	ArrivalRegion               Token = "arrival_region"
	ArrivalPort                 Token = "arrival_port"
	Port                        Token = "port"
	Country                     Token = "country"

	Commodity           Token = "commodity"
	CommodityGroup      Token = "commodity_group"
	CommodityEquivalent Token = "commodity_equivalent"
	Grade               Token = "grade"
	Family              Token = "family"
	PricingCommodity    Token = "pricing_commodity"
	PricingScenario     Token = "pricing_scenario"
	Currency            Token = "currency"

	ShipOwner   Token = "ship_owner"
	ShipInsurer Token = "ship_insurer"
	Ship        Token = "ship"
	Buyer       Token = "buyer"
	Seller      Token = "seller"
	Status      Token = "status"
	Trade       Token = "trade"
	Type        Token = "type"
	MoveType    Token = "move_type"
	LoadStatus  Token = "load_status"
	Facility    Token = "facility"
)

// IsDate reports whether the token truncates a date column.
func (t Token) IsDate() bool {
	s := string(t)
	return t == Date || t == Month || t == Year ||
		strings.HasSuffix(s, "_date") || strings.HasSuffix(s, "_month") || strings.HasSuffix(s, "_year")
}

// Tokens returns every known token in sorted order.
func Tokens() []Token {
	out := make([]Token, 0, len(expansions))
	for token := range expansions {
		out = append(out, token)
	}
	slices.Sort(out)
	return out
}

// ParseTokens splits raw aggregate_by values into known tokens and the
// unknown ones. Duplicates are removed; order is kept.
func ParseTokens(raw []string) (tokens []Token, unknown []string) {
	for _, value := range raw {
		token := Token(strings.ToLower(strings.TrimSpace(value)))
		if _, ok := expansions[token]; !ok {
			unknown = append(unknown, value)
			continue
		}
		if !slices.Contains(tokens, token) {
			tokens = append(tokens, token)
		}
	}
	return tokens, unknown
}
