package postprocess

import (
	"slices"
	"strings"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
)

// CurrencyColumn names the wide column holding values in currency.
func CurrencyColumn(currency string) string {
	return "value_" + strings.ToLower(currency)
}

// Spread turns the long (currency, value_currency) pair into one
// value_<currency> column per currency. value_eur already holds EUR values,
// so EUR adds no column. Rows are keyed on their non-value columns, and every
// key must appear once per currency.
func Spread(f *frame.Frame) (*frame.Frame, error) {
	if !f.Has(currencyColumn) || !f.Has(valueCurrencyColumn) {
		return f, nil
	}

	index := f.ColumnsWhere(func(c string) bool { return c != currencyColumn && c != valueCurrencyColumn })
	// Summed values may differ in their last bits between currencies of one fact.
	keyColumns := slices.DeleteFunc(slices.Clone(index), frame.IsValueColumn)
	hasEUR := f.Has("value_eur")

	var currencies []string
	var order []string
	rows := map[string]frame.Row{}
	seen := map[string]bool{}
	for _, row := range f.Rows {
		currency, ok := row[currencyColumn].(string)
		if !ok || currency == "" {
			return nil, pipelineerrors.SanityCheck("row without currency: %v", row)
		}
		column := CurrencyColumn(currency)
		if !slices.Contains(currencies, column) {
			currencies = append(currencies, column)
		}

		key := frame.Key(row, keyColumns)
		if seen[key+"\x00"+column] {
			return nil, pipelineerrors.SanityCheck("duplicate %s row for key %q", currency, key)
		}
		seen[key+"\x00"+column] = true

		out, ok := rows[key]
		if !ok {
			out = copyCells(row, index)
			rows[key] = out
			order = append(order, key)
		}
		if column == "value_eur" && hasEUR {
			continue
		}
		out[column] = row[valueCurrencyColumn]
	}

	if len(order)*len(currencies) != len(f.Rows) {
		return nil, pipelineerrors.SanityCheck("spread produced %d rows from %d rows over %d currencies",
			len(order), len(f.Rows), len(currencies))
	}

	columns := index
	for _, column := range currencies {
		if column == "value_eur" && hasEUR {
			continue
		}
		columns = append(columns, column)
	}
	out := &frame.Frame{Columns: columns, Rows: make([]frame.Row, len(order))}
	for i, key := range order {
		out.Rows[i] = rows[key]
	}
	return out, nil
}
