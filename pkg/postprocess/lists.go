package postprocess

import "github.com/Ramsey-B/fern/pkg/frame"

// hashLists turns list cells into tuples so they group by value, and returns
// the columns that held lists.
func hashLists(f *frame.Frame) []string {
	seen := map[string]bool{}
	for _, row := range f.Rows {
		for column, v := range row {
			switch x := v.(type) {
			case []string:
				row[column] = frame.Tuple(x)
				seen[column] = true
			case frame.Tuple:
				seen[column] = true
			}
		}
	}
	return f.ColumnsWhere(func(c string) bool { return seen[c] })
}

// unhashLists turns the tuples of columns back into plain lists.
func unhashLists(f *frame.Frame, columns []string) {
	for _, row := range f.Rows {
		for _, column := range columns {
			if t, ok := row[column].(frame.Tuple); ok {
				row[column] = []string(t)
			}
		}
	}
}
