// Package commodity resolves commodity groupings and the commodity taxonomy.
package commodity

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Ramsey-B/fern/pkg/database"
)

const DefaultGrouping = "default"

// IDPrefix marks commodity ids synthesised from Kpler product naming.
const IDPrefix = "kpler_"

var lower = cases.Lower(language.Und)

// View returns the virtual commodity relation
// (id, transport, name, pricing_commodity, equivalent_id, group, group_name)
// for the given grouping. Facts join this view instead of the commodity table.
func View(grouping string) sqlbuilder.Builder {
	sb := database.NewSelectBuilder()
	sb.Select("c.id", "c.transport", "c.name", "c.pricing_commodity", "c.equivalent_id")

	if grouping == "" || grouping == DefaultGrouping {
		sb.SelectMore(`c."group"`, "c.group_name")
	} else {
		sb.SelectMore(
			sb.As(fmt.Sprintf("c.alternative_groups->>%s", sb.Var(grouping)), `"group"`),
			sb.As(fmt.Sprintf("c.alternative_groups->>%s", sb.Var(grouping)), "group_name"),
		)
	}

	sb.From("commodity c")
	return sb
}

// SynthesizeID derives the commodity id for a product name, e.g.
// "Crude/Co" becomes "kpler_crude_co".
func SynthesizeID(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_")
	return IDPrefix + lower.String(replacer.Replace(name))
}

// IDExpression is the SQL counterpart of SynthesizeID applied to a column expression.
func IDExpression(nameExpr string) string {
	return fmt.Sprintf("'%s' || lower(replace(replace(%s, ' ', '_'), '/', '_'))", IDPrefix, nameExpr)
}
