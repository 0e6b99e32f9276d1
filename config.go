package main

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/origin"
	"github.com/ttpr0/go-walkshed/output"
	"github.com/ttpr0/go-walkshed/parser"
	"github.com/ttpr0/go-walkshed/pipeline"
)

//**********************************************************
// config
//**********************************************************

// LoadConfig merges defaults, the config file and WALKSHED_ prefixed environment
// variables, later sources overriding earlier ones.
//
// If file is empty config.yaml is searched in the working directory and may be missing.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WALKSHED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("network.kind", "csv")
	v.SetDefault("network.nodes", "nodes.csv")
	v.SetDefault("network.edges", "edges.csv")
	v.SetDefault("network.delimiter", ",")
	v.SetDefault("network.mode", "foot")
	v.SetDefault("network.snap_tolerance", 500.0)
	v.SetDefault("network.impedance_scale", 1.0)
	v.SetDefault("origins.delimiter", ",")
	v.SetDefault("origins.zones.attribute", "max_zone")
	v.SetDefault("origins.years.routes_field", "routes")
	v.SetDefault("batches", []map[string]any{
		{"name": "cbd", "break": 3300.0, "field": "max_zone", "values": []string{"Central Business District"}},
		{"name": "outer", "break": 3300.0, "field": "max_zone", "values": []string{"Central Business District"}, "negate": true},
	})
	v.SetDefault("isochrone.buffer_width", 100.0)
	v.SetDefault("isochrone.quad_segs", 8)
	v.SetDefault("isochrone.workers", 0)
	v.SetDefault("isochrone.srid", 2913)
	v.SetDefault("overlay.srid", 2913)
	v.SetDefault("overlay.grid_size", 0.001)
	v.SetDefault("overlay.repair_inputs", true)
	v.SetDefault("overlay.workers", 0)
	v.SetDefault("overlay.suffix", "_trimmed")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.formats", []string{output.SHAPEFILE})
	v.SetDefault("output.name", "isochrones")
	v.SetDefault("output.report", "report.yaml")
	v.SetDefault("output.schema.id_field", "origin_id")
	v.SetDefault("output.schema.break_field", "walk_dist")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 5002)
	v.SetDefault("server.cors_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

type Config struct {
	Log       LogConfig        `yaml:"log" mapstructure:"log"`
	Network   NetworkConfig    `yaml:"network" mapstructure:"network"`
	Origins   OriginsConfig    `yaml:"origins" mapstructure:"origins"`
	Batches   []pipeline.Batch `yaml:"batches" mapstructure:"batches"`
	Isochrone IsochroneConfig  `yaml:"isochrone" mapstructure:"isochrone"`
	Overlay   OverlayConfig    `yaml:"overlay" mapstructure:"overlay"`
	Output    OutputConfig     `yaml:"output" mapstructure:"output"`
	Store     StoreConfig      `yaml:"store" mapstructure:"store"`
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
}

// Validate checks the settings that would otherwise fail late in a run.
func (self *Config) Validate() error {
	switch self.Network.Kind {
	case "csv", "shp", "osm":
	default:
		return eris.Errorf("config: unknown network kind %q", self.Network.Kind)
	}
	if _, err := graph.TravelModeFromString(self.Network.Mode); err != nil {
		return eris.Wrap(err, "config: network mode")
	}
	if len([]rune(self.Network.Delimiter)) != 1 || len([]rune(self.Origins.Delimiter)) != 1 {
		return eris.New("config: csv delimiters must be a single character")
	}
	for _, format := range self.Output.Formats {
		if format != output.SHAPEFILE && format != output.GEOJSON {
			return eris.Errorf("config: unknown output format %q", format)
		}
	}
	names := make(map[string]bool, len(self.Batches))
	for _, batch := range self.Batches {
		if names[batch.Name] {
			return eris.Errorf("config: batch %q configured twice", batch.Name)
		}
		names[batch.Name] = true
	}
	if math.IsNaN(self.Isochrone.BufferWidth) || self.Isochrone.BufferWidth <= 0 {
		return eris.Errorf("config: isochrone buffer width must be positive, got %v", self.Isochrone.BufferWidth)
	}
	// osm networks keep lon/lat coordinates
	if self.Network.Kind == "osm" && self.Isochrone.SRID != 4326 {
		return eris.Errorf("config: osm networks need isochrone srid 4326, got %d", self.Isochrone.SRID)
	}
	if self.Isochrone.SRID != self.Overlay.SRID {
		return eris.Errorf("config: isochrone srid %d differs from overlay srid %d", self.Isochrone.SRID, self.Overlay.SRID)
	}
	return nil
}

//**********************************************************
// sections
//**********************************************************

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type NetworkConfig struct {
	// csv, shp or osm
	Kind      string `yaml:"kind" mapstructure:"kind"`
	Nodes     string `yaml:"nodes" mapstructure:"nodes"`
	Edges     string `yaml:"edges" mapstructure:"edges"`
	Shapefile string `yaml:"shapefile" mapstructure:"shapefile"`
	OSM       string `yaml:"osm" mapstructure:"osm"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`

	Fields parser.ShapefileNetworkFields `yaml:"fields" mapstructure:"fields"`

	Mode          string  `yaml:"mode" mapstructure:"mode"`
	SnapTolerance float64 `yaml:"snap_tolerance" mapstructure:"snap_tolerance"`
	// impedance units per meter of osm ways
	ImpedanceScale float64 `yaml:"impedance_scale" mapstructure:"impedance_scale"`
}

type OriginsConfig struct {
	// .csv or .shp
	Path      string              `yaml:"path" mapstructure:"path"`
	Delimiter string              `yaml:"delimiter" mapstructure:"delimiter"`
	Fields    parser.OriginFields `yaml:"fields" mapstructure:"fields"`

	Zones ZonesConfig `yaml:"zones" mapstructure:"zones"`
	Years YearsConfig `yaml:"years" mapstructure:"years"`

	JoinFields []string `yaml:"join_fields" mapstructure:"join_fields"`
}

type ZonesConfig struct {
	// polygon layer, tagging is skipped if empty
	Path      string `yaml:"path" mapstructure:"path"`
	NameField string `yaml:"name_field" mapstructure:"name_field"`
	Attribute string `yaml:"attribute" mapstructure:"attribute"`
}

type YearsConfig struct {
	// attribute receiving the year, assignment is skipped if empty
	Field       string            `yaml:"field" mapstructure:"field"`
	RoutesField string            `yaml:"routes_field" mapstructure:"routes_field"`
	Rules       []origin.YearRule `yaml:"rules" mapstructure:"rules"`
}

type IsochroneConfig struct {
	BufferWidth float64 `yaml:"buffer_width" mapstructure:"buffer_width"`
	QuadSegs    int     `yaml:"quad_segs" mapstructure:"quad_segs"`
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	SRID        int     `yaml:"srid" mapstructure:"srid"`
}

type LayerSource struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Path    string `yaml:"path" mapstructure:"path"`
	IDField string `yaml:"id_field" mapstructure:"id_field"`
}

type OverlayConfig struct {
	Exclusions   []LayerSource `yaml:"exclusions" mapstructure:"exclusions"`
	Targets      []LayerSource `yaml:"targets" mapstructure:"targets"`
	SRID         int           `yaml:"srid" mapstructure:"srid"`
	GridSize     float64       `yaml:"grid_size" mapstructure:"grid_size"`
	RepairInputs bool          `yaml:"repair_inputs" mapstructure:"repair_inputs"`
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	Suffix       string        `yaml:"suffix" mapstructure:"suffix"`
}

type OutputConfig struct {
	Dir     string                 `yaml:"dir" mapstructure:"dir"`
	Formats []string               `yaml:"formats" mapstructure:"formats"`
	Name    string                 `yaml:"name" mapstructure:"name"`
	Report  string                 `yaml:"report" mapstructure:"report"`
	Schema  output.IsochroneSchema `yaml:"schema" mapstructure:"schema"`
}

type StoreConfig struct {
	// results are only written to PostGIS if set
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}
