package query

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
	"github.com/Ramsey-B/fern/pkg/pricing"
)

// Priced base queries are composed from CTEs:
//
//	facts   one row per fact with fact_id, fact_sub, leg_date, pricing_commodity,
//	        destination_iso2 and value_tonne
//	ships   (fact_id, fact_sub, ship_order, ship_imo, leg_date) for seaborne facts
//	chosen  the selected prices, see Prices.Relation

// insuranceWindow is how long after departure an insurance or ownership
// record may start and still apply to the voyage.
const insuranceWindow = "14 days"

// shipParty picks, per ship, the earliest company record of table that
// started before the voyage (plus the insurance window) or has no start date.
func shipParty(name, table string, useEU bool) string {
	return fmt.Sprintf(`%[1]s AS (
	SELECT DISTINCT ON (s.fact_id, s.fact_sub, s.ship_order)
		s.fact_id, s.fact_sub, s.ship_order,
		coalesce(co.name, 'unknown') AS name,
		coalesce(co.country_iso2, 'unknown') AS iso2,
		coalesce(%[3]s, 'unknown') AS region
	FROM ships s
	LEFT JOIN %[2]s sp ON sp.ship_imo = s.ship_imo AND (sp.date_from IS NULL OR sp.date_from <= s.leg_date + interval '%[4]s')
	LEFT JOIN company co ON co.id = sp.company_id
	LEFT JOIN country cc ON cc.iso2 = co.country_iso2
	ORDER BY s.fact_id, s.fact_sub, s.ship_order, sp.date_from ASC NULLS FIRST
)`, name, table, regionExpr("cc", useEU), insuranceWindow)
}

// partyArrays collects the per-ship picks of source into vessel-ordered arrays.
func partyArrays(name, source, prefix string) string {
	return fmt.Sprintf(`%[1]s AS (
	SELECT fact_id, fact_sub,
		array_agg(name ORDER BY ship_order) AS %[3]s_names,
		array_agg(iso2 ORDER BY ship_order) AS %[3]s_iso2s,
		array_agg(region ORDER BY ship_order) AS %[3]s_regions
	FROM %[2]s
	GROUP BY fact_id, fact_sub
)`, name, source, prefix)
}

// shipParties defines voyage_insurer, voyage_owner, all_insurers and all_owners over ships.
func shipParties(useEU bool) string {
	return strings.Join([]string{
		shipParty("voyage_insurer", "ship_insurer", useEU),
		shipParty("voyage_owner", "ship_owner", useEU),
		partyArrays("all_insurers", "voyage_insurer", "ship_insurer"),
		partyArrays("all_owners", "voyage_owner", "ship_owner"),
	}, ",\n")
}

var shipPartyFields = fields{
	{"ship_owner_names", "ao.ship_owner_names"},
	{"ship_owner_iso2s", "ao.ship_owner_iso2s"},
	{"ship_owner_regions", "ao.ship_owner_regions"},
	{"ship_insurer_names", "ai.ship_insurer_names"},
	{"ship_insurer_iso2s", "ai.ship_insurer_iso2s"},
	{"ship_insurer_regions", "ai.ship_insurer_regions"},
}

func joinShipParties(sb *database.SelectBuilder) {
	sb.JoinWithOption(sqlbuilder.LeftJoin, "all_owners ao", "ao.fact_id = f.fact_id", "ao.fact_sub = f.fact_sub")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "all_insurers ai", "ai.fact_id = f.fact_id", "ai.fact_sub = f.fact_sub")
}

// One leg per ship, or a single shipless leg, with the attributes price
// restrictions are checked against.
var shippedLegs = fmt.Sprintf(`SELECT f.fact_id AS %s, f.fact_sub AS %s, coalesce(s.ship_order, 0) AS %s, f.leg_date AS %s,
	f.pricing_commodity AS %s, f.destination_iso2 AS %s, vi.iso2 AS %s, vo.iso2 AS %s
FROM facts f
LEFT JOIN ships s ON s.fact_id = f.fact_id AND s.fact_sub = f.fact_sub
LEFT JOIN voyage_insurer vi ON vi.fact_id = s.fact_id AND vi.fact_sub = s.fact_sub AND vi.ship_order = s.ship_order
LEFT JOIN voyage_owner vo ON vo.fact_id = s.fact_id AND vo.fact_sub = s.fact_sub AND vo.ship_order = s.ship_order`,
	pricing.LegFactID, pricing.LegFactSub, pricing.LegShipOrder, pricing.LegDate,
	pricing.LegCommodity, pricing.LegDestination, pricing.LegInsurer, pricing.LegOwner)

var shiplessLegs = fmt.Sprintf(`SELECT f.fact_id AS %s, f.fact_sub AS %s, 0 AS %s, f.leg_date AS %s,
	f.pricing_commodity AS %s, f.destination_iso2 AS %s, NULL::text AS %s, NULL::text AS %s
FROM facts f`,
	pricing.LegFactID, pricing.LegFactSub, pricing.LegShipOrder, pricing.LegDate,
	pricing.LegCommodity, pricing.LegDestination, pricing.LegInsurer, pricing.LegOwner)

// shippedBase composes a priced base query over facts and ships.
func shippedBase(facts sqlbuilder.Builder, ships string, useEU bool, prices *Prices, final sqlbuilder.Builder) sqlbuilder.Builder {
	return sqlbuilder.Buildf("WITH facts AS (%v),\nships AS (%v),\n%v,\nchosen AS (%v)\n%v",
		facts, sqlbuilder.Raw(ships), sqlbuilder.Raw(shipParties(useEU)), prices.Relation(), final)
}

func shippedLegQuery(facts sqlbuilder.Builder, ships string, useEU bool) sqlbuilder.Builder {
	return sqlbuilder.Buildf("WITH facts AS (%v),\nships AS (%v),\n%v\n%v",
		facts, sqlbuilder.Raw(ships), sqlbuilder.Raw(shipParties(useEU)), sqlbuilder.Raw(shippedLegs))
}

// shiplessBase composes a priced base query for facts that never carry ships.
func shiplessBase(facts sqlbuilder.Builder, prices *Prices, final sqlbuilder.Builder) sqlbuilder.Builder {
	return sqlbuilder.Buildf("WITH facts AS (%v),\nchosen AS (%v)\n%v", facts, prices.Relation(), final)
}

func shiplessLegQuery(facts sqlbuilder.Builder) sqlbuilder.Builder {
	return sqlbuilder.Buildf("WITH facts AS (%v)\n%v", facts, sqlbuilder.Raw(shiplessLegs))
}

const pricedEUR = "f.value_tonne * ch.eur_per_tonne"

// valuationFields close every priced select, in this order.
var valuationFields = append(fields{
	{"pricing_scenario", "scen.pricing_scenario"},
	{"pricing_commodity", "f.pricing_commodity"},
	{"value_tonne", "f.value_tonne"},
	{"value_m3", "f.value_m3"},
	{"value_eur", pricedEUR},
}, currencyFields(pricedEUR)...)

var valuationColumns = valuationFields.names()

// joinValuation crosses the facts alias f with every requested scenario and
// currency. Facts without a chosen price or exchange rate keep their rows
// with null values.
func joinValuation(sb *database.SelectBuilder, values params.Values) {
	scenarios := orDefault(values.Strings(params.PricingScenario), "default")
	sb.Join(fmt.Sprintf("unnest(%s::text[]) AS scen(pricing_scenario)", sb.Var(pq.Array(scenarios))), "true")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "chosen ch",
		"ch.fact_id = f.fact_id", "ch.fact_sub = f.fact_sub", "ch.scenario = scen.pricing_scenario")
	joinCurrency(sb, values)
}

// joinCurrency crosses the facts alias f with every requested currency and
// its rate on the fact's leg_date.
func joinCurrency(sb *database.SelectBuilder, values params.Values) {
	currencies := orDefault(values.Strings(params.Currency), "EUR")
	sb.Join(fmt.Sprintf("unnest(%s::text[]) AS cur(currency)", sb.Var(pq.Array(currencies))), "true")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "currency cx", "cx.currency = cur.currency", "cx.date = f.leg_date::date")
}

// currencyFields converts eurExpr with the joinCurrency rate. EUR needs no rate.
func currencyFields(eurExpr string) fields {
	return fields{
		{"currency", "cur.currency"},
		{"value_currency", fmt.Sprintf("%s * (CASE WHEN cur.currency = 'EUR' THEN 1 ELSE cx.per_eur END)", eurExpr)},
	}
}
