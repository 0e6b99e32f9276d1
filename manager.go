package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/origin"
	"github.com/ttpr0/go-walkshed/overlay"
	"github.com/ttpr0/go-walkshed/parser"
	"github.com/ttpr0/go-walkshed/pipeline"
)

//**********************************************************
// manager
//**********************************************************

// Manager holds the loaded network and origins of one configuration.
type Manager struct {
	config  *Config
	graph   *graph.Graph
	mode    graph.TravelMode
	origins []origin.Origin
}

// NewManager loads the network and, if configured, the origins.
func NewManager(ctx context.Context, config *Config) (*Manager, error) {
	mode, err := graph.TravelModeFromString(config.Network.Mode)
	if err != nil {
		return nil, err
	}
	g, err := LoadNetwork(ctx, config.Network)
	if err != nil {
		return nil, err
	}
	manager := &Manager{
		config: config,
		graph:  g,
		mode:   mode,
	}
	if config.Origins.Path != "" {
		origins, err := LoadOrigins(config.Origins, config.Isochrone.SRID)
		if err != nil {
			return nil, err
		}
		manager.origins = origins
	}
	return manager, nil
}

func (self *Manager) Graph() *graph.Graph {
	return self.graph
}

func (self *Manager) Origins() []origin.Origin {
	return self.origins
}

// IsochroneOptions derives the pipeline options from the config.
func (self *Manager) IsochroneOptions() pipeline.IsochroneOptions {
	return pipeline.IsochroneOptions{
		Mode:          self.mode,
		SnapTolerance: self.config.Network.SnapTolerance,
		Builder: isochrone.BuilderOptions{
			BufferWidth: self.config.Isochrone.BufferWidth,
			QuadSegs:    self.config.Isochrone.QuadSegs,
			SRID:        self.config.Isochrone.SRID,
		},
		Workers:    self.config.Isochrone.Workers,
		JoinFields: self.config.Origins.JoinFields,
	}
}

// RunIsochrones computes the isochrones of all configured batches.
func (self *Manager) RunIsochrones(ctx context.Context, report *pipeline.Report) ([]isochrone.Isochrone, error) {
	if len(self.origins) == 0 {
		return nil, eris.New("manager: no origins loaded")
	}
	return pipeline.RunIsochrones(ctx, self.graph, self.origins, self.config.Batches, self.IsochroneOptions(), report)
}

//**********************************************************
// loaders
//**********************************************************

// LoadNetwork parses the configured network source and builds the graph.
func LoadNetwork(ctx context.Context, config NetworkConfig) (*graph.Graph, error) {
	var nodes []graph.NodeRecord
	var edges []graph.EdgeRecord
	var err error
	switch config.Kind {
	case "csv":
		nodes, edges, err = parser.ParseCSVNetwork(config.Nodes, config.Edges, _Delimiter(config.Delimiter))
	case "shp":
		nodes, edges, err = parser.ParseShapefileNetwork(config.Shapefile, config.Fields)
	case "osm":
		nodes, edges, err = parser.ParseOSM(ctx, config.OSM, &parser.FootDecoder{}, parser.OSMOptions{ImpedanceScale: config.ImpedanceScale})
	default:
		return nil, eris.Errorf("manager: unknown network kind %q", config.Kind)
	}
	if err != nil {
		return nil, err
	}
	g, err := graph.Load(nodes, edges)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded network",
		zap.String("kind", config.Kind),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
	)
	return g, nil
}

// LoadOrigins parses the origin table and tags zones and inception years.
func LoadOrigins(config OriginsConfig, srid int) ([]origin.Origin, error) {
	var origins []origin.Origin
	var err error
	switch strings.ToLower(filepath.Ext(config.Path)) {
	case ".shp":
		origins, err = parser.ParseOriginsShapefile(config.Path, config.Fields.ID)
	default:
		origins, err = parser.ParseOriginsCSV(config.Path, _Delimiter(config.Delimiter), config.Fields)
	}
	if err != nil {
		return nil, err
	}

	opts := pipeline.OriginOptions{
		ZoneNameField: config.Zones.NameField,
		ZoneField:     config.Zones.Attribute,
		YearRules:     config.Years.Rules,
		RoutesField:   config.Years.RoutesField,
		YearField:     config.Years.Field,
	}
	if config.Zones.Path != "" {
		zones, err := parser.ParseLayer(config.Zones.Path, "zones", srid, "")
		if err != nil {
			return nil, err
		}
		opts.Zones = &zones
	}
	if opts.YearField != "" && len(opts.YearRules) == 0 {
		opts.YearRules = origin.DefaultYearRules()
	}
	origins, err = pipeline.PrepareOrigins(origins, opts)
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded origins",
		zap.String("file", config.Path),
		zap.Int("count", len(origins)),
	)
	return origins, nil
}

// LoadLayers parses polygon layers in the given coordinate system.
func LoadLayers(sources []LayerSource, srid int) ([]overlay.Layer, error) {
	layers := make([]overlay.Layer, 0, len(sources))
	for _, source := range sources {
		name := source.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(source.Path), filepath.Ext(source.Path))
		}
		layer, err := parser.ParseLayer(source.Path, name, srid, source.IDField)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func _Delimiter(value string) rune {
	for _, r := range value {
		return r
	}
	return ','
}
