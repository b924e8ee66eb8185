package query

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
	"github.com/Ramsey-B/fern/pkg/pricing"
)

// Price serves /v0/price: the precomputed price rows with restriction
// columns rendered as lists. The "any" sentinel renders as an empty list.
type Price struct{}

func NewPrice() *Price {
	return &Price{}
}

func (p *Price) Schema() params.Schema {
	return params.Shared().Without(params.Currency).With(
		textList(Commodity, "pricing commodity"),
	)
}

func (p *Price) MustGroupBy() []aggregate.Token {
	return nil
}

func restrictionList(column string) string {
	return fmt.Sprintf("CASE WHEN %[1]s = '%[2]s' THEN '{}'::text[] ELSE %[1]s::text[] END", column, pricing.AnySentinel)
}

var priceFields = fields{
	{"date", "p.date"},
	{"commodity", "p.commodity"},
	{"pricing_scenario", "p.scenario"},
	{"eur_per_tonne", "p.eur_per_tonne"},
	{"destination_iso2s", restrictionList("p.destination_iso2s")},
	{"departure_port_ids", restrictionList("p.departure_port_ids")},
	{"ship_owner_iso2s", restrictionList("p.ship_owner_iso2s")},
	{"ship_insurer_iso2s", restrictionList("p.ship_insurer_iso2s")},
}

func (p *Price) Columns() []string {
	return priceFields.names()
}

func (p *Price) Base(values params.Values, _ *Prices) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select(priceFields.selectList(sb)...)
	sb.From("price p")

	applyDateRange(sb, values, "p.date")
	applyFilters(sb, values, []Filter{
		In(Commodity, "p.commodity"),
		In(params.PricingScenario, "p.scenario"),
	})
	sb.OrderBy("p.date", "p.commodity", "p.scenario")
	return sb
}
