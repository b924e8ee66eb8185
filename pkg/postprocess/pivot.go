package postprocess

import (
	"slices"
	"strings"

	"github.com/Ramsey-B/fern/pkg/frame"
)

// PivotSeparator joins the values of several pivot columns into one header.
const PivotSeparator = " - "

// Pivot spreads the distinct values of the by columns into headers. Each
// value column in values yields one block of rows labelled by a variable
// column; blocks are concatenated in request order. Cells are sums, null
// when nothing was summed.
func Pivot(f *frame.Frame, by, values []string) *frame.Frame {
	by = f.Present(by...)
	values = slices.DeleteFunc(f.Present(values...), func(c string) bool { return !frame.IsValueColumn(c) })
	if len(by) == 0 || len(values) == 0 {
		return f
	}

	index := f.ColumnsWhere(func(c string) bool { return !slices.Contains(by, c) && !frame.IsValueColumn(c) })

	labels := make([]string, len(f.Rows))
	var headers []string
	for i, row := range f.Rows {
		parts := make([]string, len(by))
		for j, c := range by {
			parts[j] = frame.String(row[c])
		}
		labels[i] = strings.Join(parts, PivotSeparator)
		if !slices.Contains(headers, labels[i]) {
			headers = append(headers, labels[i])
		}
	}
	slices.Sort(headers)

	columns := append(slices.Clone(index), variableColumn)
	columns = append(columns, headers...)
	out := &frame.Frame{Columns: columns}

	for _, value := range values {
		var order []string
		sums := map[string]map[string]*sum{}
		facets := map[string]frame.Row{}
		for i, row := range f.Rows {
			key := frame.Key(row, index)
			cells, ok := sums[key]
			if !ok {
				cells = map[string]*sum{}
				sums[key] = cells
				facets[key] = row
				order = append(order, key)
			}
			s, ok := cells[labels[i]]
			if !ok {
				s = &sum{}
				cells[labels[i]] = s
			}
			s.add(row[value])
		}

		for _, key := range order {
			row := copyCells(facets[key], index)
			row[variableColumn] = value
			for _, header := range headers {
				var cell any
				if s, ok := sums[key][header]; ok {
					cell = s.cell()
				}
				row[header] = cell
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
