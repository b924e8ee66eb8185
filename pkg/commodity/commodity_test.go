package commodity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/database"
)

const fixture = `id,transport,name,pricing_commodity,equivalent_id,group,group_name,alternative_groups
kpler_crude,seaborne,Crude,crude_oil_urals,crude_oil,crude_oil,Crude oil,"{""split_gas"": ""oil""}"
kpler_lng,seaborne,LNG,lng,lng,gas,Gas,"{""split_gas"": ""lng""}"
pipeline_gas,pipeline,Natural gas,natural_gas,pipeline_gas,gas,Gas,"{""split_gas"": ""pipeline_gas""}"
kpler_diesel,seaborne,Diesel,diesel,oil_products,oil_products,Oil products,
`

func TestSynthesizeID(t *testing.T) {
	assert.Equal(t, "kpler_crude_co", SynthesizeID("Crude/Co"))
	assert.Equal(t, "kpler_fuel_oils", SynthesizeID("Fuel Oils"))
	assert.Equal(t, "kpler_lng", SynthesizeID("LNG"))
}

func TestIDExpression(t *testing.T) {
	assert.Equal(t, "'kpler_' || lower(replace(replace(p.commodity_name, ' ', '_'), '/', '_'))", IDExpression("p.commodity_name"))
}

func TestView_Default(t *testing.T) {
	query, args := database.Build(View(DefaultGrouping))
	assert.Contains(t, query, `c."group", c.group_name`)
	assert.Contains(t, query, "FROM commodity c")
	assert.Empty(t, args)
}

func TestView_Alternative(t *testing.T) {
	query, args := database.Build(View("split_gas"))
	assert.Contains(t, query, `c.alternative_groups->>$1 AS "group"`)
	assert.Contains(t, query, "c.alternative_groups->>$2 AS group_name")
	assert.Equal(t, []any{"split_gas", "split_gas"}, args)
}

func TestParseTaxonomy(t *testing.T) {
	tax, err := ParseTaxonomy(strings.NewReader(fixture))
	require.NoError(t, err)

	assert.Equal(t, []string{"kpler_crude", "kpler_diesel", "kpler_lng", "pipeline_gas"}, tax.IDs())
	assert.Equal(t, []string{"crude_oil", "lng", "oil_products", "pipeline_gas"}, tax.Equivalents())
	assert.Equal(t, []string{"crude_oil", "gas", "oil_products"}, tax.Groups())
	assert.Equal(t, []string{"default", "split_gas"}, tax.Groupings())

	c, ok := tax.Lookup("kpler_crude")
	require.True(t, ok)
	assert.Equal(t, "crude_oil_urals", c.PricingCommodity)

	group, ok := tax.GroupOf("kpler_lng", "split_gas")
	require.True(t, ok)
	assert.Equal(t, "lng", group)
	group, ok = tax.GroupOf("kpler_lng", DefaultGrouping)
	require.True(t, ok)
	assert.Equal(t, "gas", group)
	_, ok = tax.GroupOf("kpler_diesel", "split_gas")
	assert.False(t, ok)
}

func TestParseTaxonomy_Errors(t *testing.T) {
	_, err := ParseTaxonomy(strings.NewReader("id,name\nx,y\n"))
	assert.ErrorContains(t, err, "missing column")

	dup := "id,transport,name,pricing_commodity,equivalent_id,group,group_name\na,s,A,a,a,g,G\na,s,A,a,a,g,G\n"
	_, err = ParseTaxonomy(strings.NewReader(dup))
	assert.ErrorContains(t, err, "duplicate id")
}
