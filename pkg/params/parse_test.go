package params

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
)

var fixedNow = time.Date(2024, 5, 10, 15, 4, 5, 0, time.UTC)

func newTestParser() *Parser {
	return NewParser(WithClock(func() time.Time { return fixedNow }))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2022-02-24", time.Date(2022, 2, 24, 0, 0, 0, 0, time.UTC), true},
		{"2022-02-24T10:11:12", time.Date(2022, 2, 24, 10, 11, 12, 0, time.UTC), true},
		{"2022-02-24 10:11", time.Date(2022, 2, 24, 10, 11, 0, 0, time.UTC), true},
		{"-7", time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), true},
		{"+2", time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC), true},
		{"0", time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), true},
		{"24/02/2022", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input, fixedNow)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "True", "1", "yes", "Y", "on"} {
		b, ok := ParseBool(v)
		assert.True(t, ok, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"false", "0", "NO", "off"} {
		b, ok := ParseBool(v)
		assert.True(t, ok, v)
		assert.False(t, b, v)
	}
	_, ok := ParseBool("maybe")
	assert.False(t, ok)
}

func TestParser_Defaults(t *testing.T) {
	schema := Shared().With(Spec{Name: DateFrom, Type: Date, Default: "2022-01-01"})

	values, err := newTestParser().Parse(schema, url.Values{})
	require.NoError(t, err)

	assert.Equal(t, []string{"EUR"}, values.Strings(Currency))
	assert.Equal(t, []string{"default"}, values.Strings(PricingScenario))
	assert.True(t, values.Bool(KeepZeros))
	assert.True(t, values.Bool(NestInData))
	assert.Equal(t, "json", values.String(Format))
	from, ok := values.Date(DateFrom)
	require.True(t, ok)
	assert.Equal(t, "2022-01-01", from.Format(time.DateOnly))
	assert.False(t, values.Has(DateTo))
	assert.False(t, values.Has(AggregateBy))
}

func TestParser_SplitListsAndRepeatedKeys(t *testing.T) {
	raw := url.Values{
		AggregateBy: {"destination_country, ,origin_month", "pricing_scenario"},
		Currency:    {"eur,usd"},
	}

	values, err := newTestParser().Parse(Shared(), raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"destination_country", "origin_month", "pricing_scenario"}, values.Strings(AggregateBy))
	assert.Equal(t, []string{"EUR", "USD"}, values.Strings(Currency))
}

func TestParser_DoesNotMutateInput(t *testing.T) {
	raw := url.Values{"code": {"ru"}}
	_, err := newTestParser().Parse(Schema{{Name: "code", Type: String, Upper: true}}, raw)
	require.NoError(t, err)
	assert.Equal(t, "ru", raw.Get("code"))
}

func TestParser_Errors(t *testing.T) {
	schema := Shared().With(
		Spec{Name: "status", Type: Enum, Choices: []string{"ongoing", "completed"}},
		Spec{Name: "type", Type: List, Choices: []string{"crossborder", "production"}},
		Spec{Name: "origin_iso2", Type: List, Upper: true, Validate: "dive,iso3166_1_alpha2"},
	)

	tests := []struct {
		name string
		raw  url.Values
		kind pipelineerrors.Kind
	}{
		{"bad date", url.Values{DateFrom: {"24-02-2022"}}, pipelineerrors.KindInvalidDate},
		{"bad bool", url.Values{KeepZeros: {"perhaps"}}, pipelineerrors.KindInvalidBool},
		{"bad integer", url.Values{Limit: {"ten"}}, pipelineerrors.KindInvalidNumber},
		{"enum", url.Values{"status": {"sunk"}}, pipelineerrors.KindInvalidEnum},
		{"list choices", url.Values{"type": {"crossborder,storage"}}, pipelineerrors.KindInvalidEnum},
		{"validator min", url.Values{RollingDays: {"0"}}, pipelineerrors.KindInvalidParameter},
		{"validator iso2", url.Values{"origin_iso2": {"RU,XX1"}}, pipelineerrors.KindInvalidParameter},
		{"validator currency", url.Values{Currency: {"EUR,ABC"}}, pipelineerrors.KindInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestParser().Parse(schema, tt.raw)
			require.Error(t, err)
			assert.True(t, pipelineerrors.IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestParser_Required(t *testing.T) {
	schema := Schema{{Name: "trade_ids", Type: List, Required: true}}
	_, err := newTestParser().Parse(schema, url.Values{})
	assert.True(t, pipelineerrors.IsKind(err, pipelineerrors.KindMissingParameter))
}

func TestParser_TypedValues(t *testing.T) {
	raw := url.Values{
		RollingDays: {"30"},
		Limit:       {"5"},
		DateTo:      {"-1"},
		"ratio":     {"0.5"},
		"origin":    {"ru,kz"},
	}
	schema := Shared().With(
		Spec{Name: "ratio", Type: Float},
		Spec{Name: "origin", Type: List, Upper: true, Validate: "dive,iso3166_1_alpha2"},
	)

	values, err := newTestParser().Parse(schema, raw)
	require.NoError(t, err)

	days, ok := values.Int(RollingDays)
	require.True(t, ok)
	assert.Equal(t, 30, days)
	ratio, ok := values.Float("ratio")
	require.True(t, ok)
	assert.Equal(t, 0.5, ratio)
	to, ok := values.Date(DateTo)
	require.True(t, ok)
	assert.Equal(t, "2024-05-09", to.Format(time.DateOnly))
	assert.Equal(t, []string{"RU", "KZ"}, values.Strings("origin"))
}

func TestSchema_WithAndWithout(t *testing.T) {
	schema := Shared().With(Spec{Name: Format, Type: String, Default: "csv"}, Spec{Name: "grade", Type: List})
	spec, ok := schema.Lookup(Format)
	require.True(t, ok)
	assert.Equal(t, "csv", spec.Default)
	_, ok = schema.Lookup("grade")
	assert.True(t, ok)

	trimmed := schema.Without("grade", APIKey)
	_, ok = trimmed.Lookup("grade")
	assert.False(t, ok)
	_, ok = trimmed.Lookup(APIKey)
	assert.False(t, ok)
	_, ok = schema.Lookup("grade")
	assert.True(t, ok, "Without must not modify the receiver")
}
