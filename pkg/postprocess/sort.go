package postprocess

import (
	"regexp"
	"slices"
	"sort"

	"github.com/Ramsey-B/fern/pkg/frame"
)

var sortPattern = regexp.MustCompile(`^(asc|desc)\((.+)\)$`)

type sortKey struct {
	column string
	desc   bool
}

// parseSortBy reads asc(col) and desc(col) tokens. A bare column sorts descending.
func parseSortBy(tokens []string) []sortKey {
	keys := make([]sortKey, 0, len(tokens))
	for _, token := range tokens {
		if m := sortPattern.FindStringSubmatch(token); m != nil {
			keys = append(keys, sortKey{column: m[2], desc: m[1] == "desc"})
			continue
		}
		keys = append(keys, sortKey{column: token, desc: true})
	}
	return keys
}

// Sort orders rows by the sort keys. Value columns sort by the total of the
// row's group, so a series stays together. Ties fall back to the group
// columns and then the dates. Unknown columns are ignored.
func Sort(f *frame.Frame, tokens []string) *frame.Frame {
	keys := slices.DeleteFunc(parseSortBy(tokens), func(k sortKey) bool { return !f.Has(k.column) })
	if len(keys) == 0 || f.Len() < 2 {
		return f
	}

	groupColumns := grouper(f)
	dateColumns := f.ColumnsWhere(frame.IsDateColumn)

	totals := map[string]map[string]*sum{}
	for _, k := range keys {
		if frame.IsValueColumn(k.column) {
			totals[k.column] = map[string]*sum{}
		}
	}
	groupKeys := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		groupKeys[i] = frame.Key(row, groupColumns)
		for column, byGroup := range totals {
			s, ok := byGroup[groupKeys[i]]
			if !ok {
				s = &sum{}
				byGroup[groupKeys[i]] = s
			}
			s.add(row[column])
		}
	}

	type indexed struct {
		row   frame.Row
		group string
	}
	items := make([]indexed, len(f.Rows))
	for i, row := range f.Rows {
		items[i] = indexed{row: row, group: groupKeys[i]}
	}

	cell := func(it indexed, column string) any {
		if byGroup, ok := totals[column]; ok {
			return byGroup[it.group].cell()
		}
		return it.row[column]
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		for _, k := range keys {
			if c := compareDirected(cell(a, k.column), cell(b, k.column), k.desc); c != 0 {
				return c < 0
			}
		}
		for _, c := range groupColumns {
			if cmp := frame.Compare(a.row[c], b.row[c]); cmp != 0 {
				return cmp < 0
			}
		}
		for _, c := range dateColumns {
			if cmp := frame.Compare(a.row[c], b.row[c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})

	out := &frame.Frame{Columns: slices.Clone(f.Columns), Rows: make([]frame.Row, len(items))}
	for i, it := range items {
		out.Rows[i] = it.row
	}
	return out
}

// compareDirected compares two cells in the requested direction; nulls stay last.
func compareDirected(a, b any, desc bool) int {
	c := frame.Compare(a, b)
	if desc && a != nil && b != nil {
		return -c
	}
	return c
}

// Limit keeps the first limit groups within every partition of limitBy,
// in current row order.
func Limit(f *frame.Frame, limit int, limitBy []string) *frame.Frame {
	if limit <= 0 {
		return f
	}
	groupColumns := grouper(f)
	partitionColumns := f.Present(limitBy...)

	kept := map[string]map[string]bool{}
	return f.Filter(func(row frame.Row) bool {
		partition := frame.Key(row, partitionColumns)
		group := frame.Key(row, groupColumns)
		groups, ok := kept[partition]
		if !ok {
			groups = map[string]bool{}
			kept[partition] = groups
		}
		if groups[group] {
			return true
		}
		if len(groups) >= limit {
			return false
		}
		groups[group] = true
		return true
	})
}
