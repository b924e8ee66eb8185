package postprocess

import (
	"maps"
	"slices"
	"strings"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
	"github.com/Ramsey-B/fern/pkg/params"
)

type scale struct {
	divisor float64
	prefix  string
}

// Rescale divides measures by unit and renames them, e.g. tonnes into
// thousand tonnes.
type Rescale struct {
	Tonne scale
	M3    scale
	Money scale
}

var rescales = map[string]Rescale{
	"thousandtonne_millioneur": {
		Tonne: scale{divisor: 1e3, prefix: "thousand"},
		Money: scale{divisor: 1e6, prefix: "million"},
	},
	"milliontonne_billioneur": {
		Tonne: scale{divisor: 1e6, prefix: "million"},
		Money: scale{divisor: 1e9, prefix: "billion"},
	},
	"mcm": {
		M3: scale{divisor: 1e6, prefix: "million"},
	},
}

func PostcomputeNames() []string {
	return slices.Sorted(maps.Keys(rescales))
}

// scaleFor returns the scale of a unit such as tonne, m3 or eur.
func (r Rescale) scaleFor(unit string) (scale, bool) {
	var s scale
	switch unit {
	case "tonne":
		s = r.Tonne
	case "m3":
		s = r.M3
	default:
		s = r.Money
	}
	return s, s.divisor != 0
}

func rescaledUnit(unit string, s scale) string {
	return s.prefix + "_" + unit
}

// Postcompute applies the named rescale. Pivoted frames are rescaled row by
// row according to their variable; flat frames per value column.
func Postcompute(f *frame.Frame, name string) (*frame.Frame, error) {
	if name == "" {
		return f, nil
	}
	rescale, ok := rescales[name]
	if !ok {
		return nil, pipelineerrors.InvalidEnum(params.Postcompute, name, PostcomputeNames())
	}

	out := f.Clone()
	if out.Has(variableColumn) {
		measures := summable(out)
		for _, row := range out.Rows {
			variable, _ := row[variableColumn].(string)
			unit := strings.TrimPrefix(variable, "value_")
			s, ok := rescale.scaleFor(unit)
			if !ok {
				continue
			}
			for _, c := range measures {
				if v, ok := frame.Float(row[c]); ok {
					row[c] = v / s.divisor
				}
			}
			row[variableColumn] = rescaledUnit(unit, s)
		}
		return out, nil
	}

	for i, c := range out.Columns {
		if !frame.IsValueColumn(c) {
			continue
		}
		unit := strings.TrimPrefix(c, "value_")
		s, ok := rescale.scaleFor(unit)
		if !ok {
			continue
		}
		renamed := "value_" + rescaledUnit(unit, s)
		for _, row := range out.Rows {
			v := row[c]
			if n, ok := frame.Float(v); ok {
				v = n / s.divisor
			}
			delete(row, c)
			row[renamed] = v
		}
		out.Columns[i] = renamed
	}
	return out, nil
}
