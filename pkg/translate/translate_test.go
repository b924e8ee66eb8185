package translate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
)

func writePack(t *testing.T, dir, code, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, code+".json"), []byte(content), 0o600))
}

func TestResolve(t *testing.T) {
	for input, want := range map[string]string{"fr": "fr", "fr-FR": "fr", "FR": "fr", "en-GB": "en"} {
		got, err := Resolve(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := Resolve("not a tag!")
	assert.True(t, pipelineerrors.IsKind(err, pipelineerrors.KindInvalidParameter))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writePack(t, dir, "fr", `{"Total": "Total général", "destination_region": "région_destination"}`)
	translator := New(dir)

	dict, err := translator.Load("en")
	require.NoError(t, err)
	assert.Nil(t, dict)

	dict, err = translator.Load("fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "Total général", dict["Total"])

	_, err = translator.Load("de")
	assert.True(t, pipelineerrors.IsKind(err, pipelineerrors.KindInvalidParameter))

	writePack(t, dir, "es", `{not json`)
	_, err = translator.Load("es")
	assert.ErrorContains(t, err, "failed to parse language pack es")
}

func TestDictionary_Apply(t *testing.T) {
	dict := Dictionary{
		"Total":              "Total général",
		"United Kingdom":     "Royaume-Uni",
		"destination_region": "région_destination",
	}
	f := frame.New([]string{"destination_region", "ship_owner_regions", "value_eur"},
		frame.Row{"destination_region": "Total", "ship_owner_regions": frame.Tuple{"United Kingdom", "EU"}, "value_eur": 10.0},
		frame.Row{"destination_region": "EU", "ship_owner_regions": nil, "value_eur": 5.0},
	)

	out := dict.Apply(f)
	assert.Equal(t, []string{"région_destination", "ship_owner_regions", "value_eur"}, out.Columns)
	assert.Equal(t, "Total général", out.Rows[0]["région_destination"])
	assert.Equal(t, frame.Tuple{"Royaume-Uni", "EU"}, out.Rows[0]["ship_owner_regions"])
	assert.Equal(t, "EU", out.Rows[1]["région_destination"])
	assert.Equal(t, 10.0, out.Rows[0]["value_eur"])
	assert.NotContains(t, out.Rows[0], "destination_region")

	assert.Same(t, f, Dictionary(nil).Apply(f))
}
