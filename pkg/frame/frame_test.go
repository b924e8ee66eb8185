package frame

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_DistinguishesTypes(t *testing.T) {
	a := Row{"x": "1"}
	b := Row{"x": 1.0}
	c := Row{"x": nil}
	assert.NotEqual(t, Key(a, []string{"x"}), Key(b, []string{"x"}))
	assert.NotEqual(t, Key(a, []string{"x"}), Key(c, []string{"x"}))
	assert.Equal(t, Key(Row{"x": int64(1)}, []string{"x"}), Key(b, []string{"x"}))
}

func TestKey_TuplesCompareByContent(t *testing.T) {
	a := Row{"owners": Tuple{"Sovcomflot", "unknown"}}
	b := Row{"owners": Tuple{"Sovcomflot", "unknown"}}
	c := Row{"owners": Tuple{"unknown", "Sovcomflot"}}
	assert.Equal(t, Key(a, []string{"owners"}), Key(b, []string{"owners"}))
	assert.NotEqual(t, Key(a, []string{"owners"}), Key(c, []string{"owners"}))
}

func TestCompare(t *testing.T) {
	day := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -1, Compare(1.0, 2.0))
	assert.Equal(t, 1, Compare(nil, 2.0), "nulls sort last")
	assert.Equal(t, -1, Compare(2.0, nil))
	assert.Equal(t, 0, Compare(nil, nil))
	assert.Equal(t, -1, Compare(day, day.AddDate(0, 0, 1)))
	assert.Equal(t, -1, Compare("CN", "IN"))
	assert.Equal(t, 0, Compare(int64(3), 3.0))
}

func TestFloat(t *testing.T) {
	v, ok := Float(int64(4))
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	_, ok = Float(math.NaN())
	assert.False(t, ok)
	_, ok = Float("4")
	assert.False(t, ok)
}

func TestNumericColumns(t *testing.T) {
	f := New([]string{"country", "value_tonne", "empty", "mixed"},
		Row{"country": "CN", "value_tonne": 1.0, "empty": nil, "mixed": 1.0},
		Row{"country": "IN", "value_tonne": nil, "empty": nil, "mixed": "x"},
	)
	assert.Equal(t, []string{"value_tonne"}, f.NumericColumns())
}

func TestColumnClassifiers(t *testing.T) {
	assert.True(t, IsValueColumn("value_eur"))
	assert.False(t, IsValueColumn("pricing_scenario"))
	assert.True(t, IsDailyDateColumn("origin_date"))
	assert.True(t, IsDailyDateColumn("date"))
	assert.False(t, IsDailyDateColumn("origin_month"))
	assert.True(t, IsDateColumn("origin_month"))
	assert.True(t, IsDateColumn("arrival_year"))
}

func TestString(t *testing.T) {
	assert.Equal(t, "2022-02-24", String(time.Date(2022, 2, 24, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2022-02-24T06:30:00Z", String(time.Date(2022, 2, 24, 6, 30, 0, 0, time.UTC)))
	assert.Equal(t, "a,b", String(Tuple{"a", "b"}))
	assert.Equal(t, "1.5", String(1.5))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, `{"type":"Point"}`, String(json.RawMessage(`{"type":"Point"}`)))
}

func TestCloneIsIndependent(t *testing.T) {
	f := New([]string{"a"}, Row{"a": 1.0})
	c := f.Clone()
	c.Rows[0]["a"] = 2.0
	c.Columns[0] = "b"
	assert.Equal(t, 1.0, f.Rows[0]["a"])
	assert.Equal(t, "a", f.Columns[0])
}

func TestDecoders(t *testing.T) {
	v, err := decodeNumeric([]byte("123.456"))
	require.NoError(t, err)
	assert.InDelta(t, 123.456, v, 1e-9)

	v, err = decodeNumeric(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = decodeArray([]byte(`{Sovcomflot,NULL,"Ocean Tankers"}`))
	require.NoError(t, err)
	assert.Equal(t, Tuple{"Sovcomflot", "", "Ocean Tankers"}, v)

	v, err = decodeJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	require.NoError(t, err)
	assert.IsType(t, json.RawMessage{}, v)

	v, err = decodeScalar([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}
