package atlas_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalFilter(t *testing.T, filter *atlas.Filter) string {
	t.Helper()

	data, err := json.Marshal(filter)
	require.NoError(t, err)

	return string(data)
}

func TestStringInFilter(t *testing.T) {
	t.Parallel()

	filter := atlas.StringInFilter("item_type", "PSScene", "SkySatCollect")

	assert.JSONEq(t,
		`{"type":"StringInFilter","field_name":"item_type","config":["PSScene","SkySatCollect"]}`,
		marshalFilter(t, filter))
}

func TestNumberInFilter(t *testing.T) {
	t.Parallel()

	filter := atlas.NumberInFilter("gsd", 3, 3.5)

	assert.JSONEq(t,
		`{"type":"NumberInFilter","field_name":"gsd","config":[3,3.5]}`,
		marshalFilter(t, filter))
}

func TestRangeFilter(t *testing.T) {
	t.Parallel()

	filter, err := atlas.RangeFilter("cloud_cover", &atlas.RangeConfig{GTE: 0.0, LT: 0.2})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"RangeFilter","field_name":"cloud_cover","config":{"gte":0,"lt":0.2}}`,
		marshalFilter(t, filter))
}

func TestRangeFilter_NoConditionals(t *testing.T) {
	t.Parallel()

	_, err := atlas.RangeFilter("cloud_cover", &atlas.RangeConfig{})
	require.ErrorIs(t, err, atlas.ErrNoConditionals)

	_, err = atlas.RangeFilter("cloud_cover", nil)
	require.ErrorIs(t, err, atlas.ErrNoConditionals)
}

func TestDateRangeFilter(t *testing.T) {
	t.Parallel()

	acquired := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	filter, err := atlas.DateRangeFilter("acquired", &atlas.RangeConfig{GTE: acquired})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"DateRangeFilter","field_name":"acquired","config":{"gte":"2025-06-01T12:30:00Z"}}`,
		marshalFilter(t, filter))
}

func TestDateRangeFilter_ConvertsToUTC(t *testing.T) {
	t.Parallel()

	zone := time.FixedZone("CEST", 2*3600)
	local := time.Date(2025, 6, 1, 14, 30, 0, 0, zone)

	filter, err := atlas.DateRangeFilter("acquired", &atlas.RangeConfig{LT: local})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"DateRangeFilter","field_name":"acquired","config":{"lt":"2025-06-01T12:30:00Z"}}`,
		marshalFilter(t, filter))
}

func TestAndFilter_Nested(t *testing.T) {
	t.Parallel()

	cloud, err := atlas.RangeFilter("cloud_cover", &atlas.RangeConfig{LT: 0.1})
	require.NoError(t, err)

	filter := atlas.AndFilter(
		atlas.StringInFilter("item_type", "PSScene"),
		cloud,
		atlas.NotFilter(atlas.StringInFilter("quality_category", "test")),
	)

	data := marshalFilter(t, filter)
	assert.Contains(t, data, `"type":"AndFilter"`)
	assert.Contains(t, data, `"type":"NotFilter"`)
	assert.Contains(t, data, `"type":"RangeFilter"`)
}

func TestOrFilter(t *testing.T) {
	t.Parallel()

	filter := atlas.OrFilter(
		atlas.PermissionFilter("assets:download"),
		atlas.AssetFilter("ortho_analytic_4b"),
	)

	data := marshalFilter(t, filter)
	assert.Contains(t, data, `"type":"OrFilter"`)
	assert.Contains(t, data, `"type":"PermissionFilter"`)
	assert.Contains(t, data, `"type":"AssetFilter"`)
}

func TestGeometryFilter(t *testing.T) {
	t.Parallel()

	geom := json.RawMessage(`{"type":"Point","coordinates":[13.4,52.5]}`)
	filter := atlas.GeometryFilter(geom)

	assert.JSONEq(t,
		`{"type":"GeometryFilter","field_name":"geometry","config":{"type":"Point","coordinates":[13.4,52.5]}}`,
		marshalFilter(t, filter))
}

func TestFilter_MarshalYAML(t *testing.T) {
	t.Parallel()

	filter := atlas.StringInFilter("item_type", "PSScene")

	out, err := filter.MarshalYAML()
	require.NoError(t, err)

	mapped, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "StringInFilter", mapped["type"])
	assert.Equal(t, "item_type", mapped["field_name"])
}
