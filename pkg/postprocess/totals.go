package postprocess

import (
	"slices"

	"github.com/Ramsey-B/fern/pkg/frame"
)

// TotalLabel fills the facet columns of appended total rows.
const TotalLabel = "Total"

var (
	CommodityFacets = []string{
		"commodity", "commodity_name",
		"commodity_group", "commodity_group_name",
		"commodity_equivalent", "commodity_equivalent_name",
		"commodity_equivalent_group", "commodity_equivalent_group_name",
		"grade", "family",
	}
	RegionFacets = []string{"destination_region", "destination_country", "destination_iso2"}
)

// AddTotals appends one row per combination of the remaining facets, with
// the given facet columns set to Total and every measure summed.
func AddTotals(f *frame.Frame, facets []string) *frame.Frame {
	facets = f.Present(facets...)
	if len(facets) == 0 || f.Empty() {
		return f
	}

	measures := summable(f)
	others := f.ColumnsWhere(func(c string) bool { return !slices.Contains(facets, c) && !slices.Contains(measures, c) })

	var order []string
	totals := map[string]frame.Row{}
	sums := map[string][]sum{}
	for _, row := range f.Rows {
		key := frame.Key(row, others)
		if _, ok := totals[key]; !ok {
			total := copyCells(row, others)
			for _, c := range facets {
				total[c] = TotalLabel
			}
			totals[key] = total
			sums[key] = make([]sum, len(measures))
			order = append(order, key)
		}
		for i, c := range measures {
			sums[key][i].add(row[c])
		}
	}

	out := &frame.Frame{Columns: slices.Clone(f.Columns), Rows: slices.Clone(f.Rows)}
	for _, key := range order {
		total := totals[key]
		for i, c := range measures {
			total[c] = sums[key][i].cell()
		}
		out.Rows = append(out.Rows, total)
	}
	return out
}
