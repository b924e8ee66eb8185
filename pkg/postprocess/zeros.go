package postprocess

import "github.com/Ramsey-B/fern/pkg/frame"

var zeroColumns = []string{"value_eur", "value_tonne"}

// DropZeros removes rows whose value_eur and value_tonne are all zero.
// Nulls are not zero.
func DropZeros(f *frame.Frame) *frame.Frame {
	columns := f.Present(zeroColumns...)
	if len(columns) == 0 {
		return f
	}
	return f.Filter(func(row frame.Row) bool {
		for _, c := range columns {
			v, ok := frame.Float(row[c])
			if !ok || v != 0 {
				return true
			}
		}
		return false
	})
}
