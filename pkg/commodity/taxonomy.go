package commodity

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
)

// Commodity is one row of the commodity taxonomy.
type Commodity struct {
	ID                string            `json:"id"`
	Transport         string            `json:"transport"`
	Name              string            `json:"name"`
	PricingCommodity  string            `json:"pricing_commodity"`
	EquivalentID      string            `json:"equivalent_id"`
	Group             string            `json:"group"`
	GroupName         string            `json:"group_name"`
	AlternativeGroups map[string]string `json:"alternative_groups"`
}

// Taxonomy is the in-memory commodity catalogue loaded from assets/commodities.csv.
// It supplies the valid choices for commodity parameters.
type Taxonomy struct {
	byID map[string]Commodity
	ids  []string
}

var requiredColumns = []string{"id", "transport", "name", "pricing_commodity", "equivalent_id", "group", "group_name"}

func LoadTaxonomy(path string) (*Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open commodity taxonomy: %w", err)
	}
	defer f.Close()

	return ParseTaxonomy(f)
}

func ParseTaxonomy(r io.Reader) (*Taxonomy, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("taxonomy is missing column %q", column)
		}
	}

	t := &Taxonomy{byID: map[string]Commodity{}}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("taxonomy line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		c := Commodity{
			ID:               field("id"),
			Transport:        field("transport"),
			Name:             field("name"),
			PricingCommodity: field("pricing_commodity"),
			EquivalentID:     field("equivalent_id"),
			Group:            field("group"),
			GroupName:        field("group_name"),
		}
		if c.ID == "" {
			return nil, fmt.Errorf("taxonomy line %d: empty id", line)
		}
		if raw := field("alternative_groups"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &c.AlternativeGroups); err != nil {
				return nil, fmt.Errorf("taxonomy line %d: alternative_groups: %w", line, err)
			}
		}
		if _, dup := t.byID[c.ID]; dup {
			return nil, fmt.Errorf("taxonomy line %d: duplicate id %q", line, c.ID)
		}
		t.byID[c.ID] = c
		t.ids = append(t.ids, c.ID)
	}

	sort.Strings(t.ids)
	return t, nil
}

func (t *Taxonomy) Lookup(id string) (Commodity, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// IDs lists every commodity id.
func (t *Taxonomy) IDs() []string {
	return slices.Clone(t.ids)
}

// Equivalents lists the distinct coarse commodity classes.
func (t *Taxonomy) Equivalents() []string {
	return t.distinct(func(c Commodity) []string { return []string{c.EquivalentID} })
}

// Groups lists the distinct default group tags.
func (t *Taxonomy) Groups() []string {
	return t.distinct(func(c Commodity) []string { return []string{c.Group} })
}

// Groupings lists "default" followed by every alternative grouping name.
func (t *Taxonomy) Groupings() []string {
	alternatives := t.distinct(func(c Commodity) []string {
		names := make([]string, 0, len(c.AlternativeGroups))
		for name := range c.AlternativeGroups {
			names = append(names, name)
		}
		return names
	})
	return append([]string{DefaultGrouping}, slices.DeleteFunc(alternatives, func(s string) bool { return s == DefaultGrouping })...)
}

// GroupOf resolves the group of a commodity under a grouping, mirroring View.
func (t *Taxonomy) GroupOf(id, grouping string) (string, bool) {
	c, ok := t.byID[id]
	if !ok {
		return "", false
	}
	if grouping == "" || grouping == DefaultGrouping {
		return c.Group, true
	}
	group, ok := c.AlternativeGroups[grouping]
	return group, ok
}

func (t *Taxonomy) distinct(values func(Commodity) []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range t.ids {
		for _, v := range values(t.byID[id]) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
