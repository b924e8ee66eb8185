package postprocess

import (
	"regexp"

	"github.com/Ramsey-B/fern/pkg/frame"
)

var renamePattern = regexp.MustCompile(`^([^()]+)\((.+)\)$`)

// Project keeps the selected columns in selection order. new(old) keeps old
// under the name new. Unknown columns are skipped.
func Project(f *frame.Frame, selections []string) *frame.Frame {
	if len(selections) == 0 {
		return f
	}

	type mapping struct{ from, to string }
	var mappings []mapping
	for _, s := range selections {
		m := mapping{from: s, to: s}
		if match := renamePattern.FindStringSubmatch(s); match != nil {
			m = mapping{from: match[2], to: match[1]}
		}
		if f.Has(m.from) {
			mappings = append(mappings, m)
		}
	}

	out := &frame.Frame{Columns: make([]string, len(mappings)), Rows: make([]frame.Row, len(f.Rows))}
	for i, m := range mappings {
		out.Columns[i] = m.to
	}
	for i, row := range f.Rows {
		projected := make(frame.Row, len(mappings))
		for _, m := range mappings {
			projected[m.to] = row[m.from]
		}
		out.Rows[i] = projected
	}
	return out
}
