// Package cache stores rendered endpoint responses keyed on the endpoint and
// its canonical parameters.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/params"
)

// ordered lists change the result when reordered, so canonicalisation keeps
// their order.
var ordered = []string{
	params.AggregateBy,
	params.SortBy,
	params.Select,
	params.PivotBy,
	params.PivotValue,
	params.Currency,
}

// excluded parameters never change the cached body.
var excluded = []string{params.APIKey, params.BypassMaintenance}

type Key struct {
	Endpoint string
	// Params is the canonical JSON of the parameters.
	Params string
	Hash   string
}

// Canonicalize builds the cache key of a request. Only parameters declared
// by schema count; list values are split and sorted, then keys are sorted.
// Day offsets are resolved against today so a key never outlives its day.
func Canonicalize(endpoint string, schema params.Schema, raw url.Values) Key {
	return canonicalize(endpoint, schema, raw, time.Now())
}

func canonicalize(endpoint string, schema params.Schema, raw url.Values, now time.Time) Key {
	canonical := map[string]any{}
	for _, spec := range schema {
		if slices.Contains(excluded, spec.Name) {
			continue
		}
		inputs := raw[spec.Name]
		if len(inputs) == 0 {
			continue
		}

		if spec.Upper {
			inputs = upper(inputs)
		}
		if spec.Type != params.List {
			value := strings.TrimSpace(inputs[0])
			if spec.Type == params.Date {
				value = resolveDate(value, now)
			}
			if value != "" {
				canonical[spec.Name] = value
			}
			continue
		}

		var items []string
		for _, input := range inputs {
			items = append(items, params.SplitList(input)...)
		}
		if len(items) == 0 {
			continue
		}
		if !slices.Contains(ordered, spec.Name) {
			slices.Sort(items)
		}
		canonical[spec.Name] = items
	}

	// encoding/json writes map keys sorted.
	encoded, _ := json.Marshal(canonical)
	sum := sha256.Sum256([]byte(endpoint + "\n" + string(encoded)))
	return Key{Endpoint: endpoint, Params: string(encoded), Hash: hex.EncodeToString(sum[:])}
}

// resolveDate leaves unparseable values as written; validation rejects them
// before the cache is consulted.
func resolveDate(value string, now time.Time) string {
	t, ok := params.ParseDate(value, now)
	if !ok {
		return value
	}
	if t.Equal(params.Today(t)) {
		return t.Format(time.DateOnly)
	}
	return t.Format("2006-01-02T15:04:05")
}

func upper(inputs []string) []string {
	out := make([]string, len(inputs))
	for i, input := range inputs {
		out[i] = strings.ToUpper(input)
	}
	return out
}
