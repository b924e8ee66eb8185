package query

import (
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/aggregate"
	"github.com/Ramsey-B/fern/pkg/commodity"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/params"
)

const Transport = "transport"

// Commodities serves /v0/commodity: the commodity relation under a grouping.
type Commodities struct {
	taxonomy *commodity.Taxonomy
}

func NewCommodities(taxonomy *commodity.Taxonomy) *Commodities {
	return &Commodities{taxonomy: taxonomy}
}

func (c *Commodities) Schema() params.Schema {
	return params.Shared().With(
		groupingSpec(c.taxonomy),
		textList(Transport, "transport mode"),
	)
}

func (c *Commodities) MustGroupBy() []aggregate.Token {
	return nil
}

func (c *Commodities) Columns() []string {
	return []string{"id", "transport", "name", "pricing_commodity", "equivalent_id", "group", "group_name"}
}

func (c *Commodities) Base(values params.Values, _ *Prices) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select("v.id", "v.transport", "v.name", "v.pricing_commodity", "v.equivalent_id", `v."group"`, "v.group_name")
	sb.From(sb.BuilderAs(commodity.View(values.String(params.CommodityGrouping)), "v"))
	applyFilters(sb, values, []Filter{In(Transport, "v.transport")})
	sb.OrderBy("v.id")
	return sb
}
