package postprocess

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/frame"
)

const (
	currencyColumn      = "currency"
	valueCurrencyColumn = "value_currency"
	variableColumn      = "variable"
)

// grouper lists the facet columns identifying a series: everything that is
// not a date, a value or the currency.
func grouper(f *frame.Frame) []string {
	return f.ColumnsWhere(func(c string) bool {
		return !frame.IsDateColumn(c) && !frame.IsValueColumn(c) && c != currencyColumn
	})
}

func isIdentifier(column string) bool {
	return column == "id" || strings.HasSuffix(column, "_id")
}

// summable lists numeric columns that hold measures rather than identifiers.
func summable(f *frame.Frame) []string {
	var out []string
	for _, c := range f.NumericColumns() {
		if !isIdentifier(c) {
			out = append(out, c)
		}
	}
	return out
}

// sum accumulates numeric cells; it stays nil until a number is added.
type sum struct {
	value float64
	seen  bool
}

func (s *sum) add(v any) {
	if f, ok := frame.Float(v); ok {
		s.value += f
		s.seen = true
	}
}

func (s sum) cell() any {
	if !s.seen {
		return nil
	}
	return s.value
}

func copyCells(row frame.Row, columns []string) frame.Row {
	out := make(frame.Row, len(columns)+4)
	for _, c := range columns {
		out[c] = row[c]
	}
	return out
}
