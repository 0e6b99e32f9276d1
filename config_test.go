package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/pipeline"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "console", config.Log.Format)
	assert.Equal(t, "csv", config.Network.Kind)
	assert.Equal(t, "foot", config.Network.Mode)
	assert.Equal(t, 2913, config.Isochrone.SRID)
	assert.Equal(t, 2913, config.Overlay.SRID)
	assert.Equal(t, "_trimmed", config.Overlay.Suffix)
	assert.Equal(t, []string{"shp"}, config.Output.Formats)
	assert.Equal(t, "walk_dist", config.Output.Schema.BreakField)
	assert.Equal(t, 5002, config.Server.Port)
	assert.Equal(t, []pipeline.Batch{
		{Name: "cbd", Break: 3300, Field: "max_zone", Values: []string{"Central Business District"}},
		{Name: "outer", Break: 3300, Field: "max_zone", Values: []string{"Central Business District"}, Negate: true},
	}, config.Batches)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "walkshed.yaml")
	data := `
log:
  level: debug
network:
  kind: osm
  osm: portland.osm.pbf
  impedance_scale: 3.28084
origins:
  path: stops.shp
  fields:
    id: stop_id
  join_fields: [stop_id, routes, max_zone, incpt_year]
  years:
    field: incpt_year
    rules:
      - routes_contains: [":MAX Red Line:"]
        year: 1997
batches:
  - name: downtown
    break: 1000
    field: max_zone
    values: [CBD]
isochrone:
  srid: 4326
overlay:
  srid: 4326
  exclusions:
    - name: stm_fill
      path: stm_fill.shp
output:
  formats: [shp, geojson]
  schema:
    id_field: tm_id
`
	require.NoError(t, os.WriteFile(file, []byte(data), 0o644))
	t.Setenv("WALKSHED_SERVER_PORT", "8080")
	t.Setenv("WALKSHED_STORE_DATABASE_URL", "postgres://localhost/walkshed")

	config, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "osm", config.Network.Kind)
	assert.InDelta(t, 3.28084, config.Network.ImpedanceScale, 1e-9)
	assert.Equal(t, "stop_id", config.Origins.Fields.ID)
	assert.Equal(t, []string{"stop_id", "routes", "max_zone", "incpt_year"}, config.Origins.JoinFields)
	require.Len(t, config.Origins.Years.Rules, 1)
	assert.Equal(t, 1997, config.Origins.Years.Rules[0].Year)
	assert.Equal(t, []string{":MAX Red Line:"}, config.Origins.Years.Rules[0].RoutesContains)
	require.Len(t, config.Batches, 1)
	assert.Equal(t, "downtown", config.Batches[0].Name)
	assert.Equal(t, float64(1000), config.Batches[0].Break)
	require.Len(t, config.Overlay.Exclusions, 1)
	assert.Equal(t, "stm_fill", config.Overlay.Exclusions[0].Name)
	assert.Equal(t, []string{"shp", "geojson"}, config.Output.Formats)
	assert.Equal(t, "tm_id", config.Output.Schema.IDField)
	assert.Equal(t, "walk_dist", config.Output.Schema.BreakField)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "postgres://localhost/walkshed", config.Store.DatabaseURL)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "config: read file")
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Network:   NetworkConfig{Kind: "csv", Mode: "foot", Delimiter: ";"},
			Origins:   OriginsConfig{Delimiter: ","},
			Isochrone: IsochroneConfig{BufferWidth: 100},
			Output:    OutputConfig{Formats: []string{"shp"}},
		}
	}
	config := valid()
	require.NoError(t, config.Validate())

	osm := valid()
	osm.Network.Kind = "osm"
	osm.Isochrone.SRID = 4326
	osm.Overlay.SRID = 4326
	require.NoError(t, osm.Validate())

	tests := []struct {
		name   string
		modify func(*Config)
		err    string
	}{
		{"network kind", func(c *Config) { c.Network.Kind = "gtfs" }, "unknown network kind"},
		{"mode", func(c *Config) { c.Network.Mode = "hovercraft" }, "config: network mode"},
		{"delimiter", func(c *Config) { c.Origins.Delimiter = ";;" }, "single character"},
		{"format", func(c *Config) { c.Output.Formats = []string{"gpkg"} }, "unknown output format"},
		{"batches", func(c *Config) { c.Batches = []pipeline.Batch{{Name: "a"}, {Name: "a"}} }, "configured twice"},
		{"srid", func(c *Config) { c.Isochrone.SRID = 4326 }, "differs from overlay srid"},
		{"buffer width", func(c *Config) { c.Isochrone.BufferWidth = 0 }, "buffer width must be positive"},
		{"negative buffer width", func(c *Config) { c.Isochrone.BufferWidth = -5 }, "buffer width must be positive"},
		{"osm srid", func(c *Config) { c.Network.Kind = "osm" }, "osm networks need isochrone srid 4326"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.modify(&config)
			assert.ErrorContains(t, config.Validate(), tt.err)
		})
	}
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
