package parser

import (
	"github.com/paulmach/osm"

	"github.com/ttpr0/go-walkshed/graph"
)

//*******************************************
// parser structs
//*******************************************

type TempNode struct {
	Point graph.Coord
	Count int32
	Found bool
}

// EdgeAttribs are the routing relevant properties decoded from way tags.
type EdgeAttribs struct {
	Restricted bool
	Oneway     bool
	Modes      []graph.TravelMode
}

type OSMScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

type OSMOptions struct {
	// multiplier from geodesic meters to impedance units
	ImpedanceScale float64
	// pbf decoding goroutines
	Workers int
}

// ShapefileNetworkFields names the attribute columns of a polyline network.
//
// Empty names are optional: ids are assigned by record order and the impedance
// defaults to the geometric length.
type ShapefileNetworkFields struct {
	ID         string `yaml:"id" mapstructure:"id"`
	Impedance  string `yaml:"impedance" mapstructure:"impedance"`
	Restricted string `yaml:"restricted" mapstructure:"restricted"`
	ModeTags   string `yaml:"mode_tags" mapstructure:"mode_tags"`
	Oneway     string `yaml:"oneway" mapstructure:"oneway"`
}

// OriginFields names the id and coordinate columns of an origin table.
type OriginFields struct {
	ID string `yaml:"id" mapstructure:"id"`
	X  string `yaml:"x" mapstructure:"x"`
	Y  string `yaml:"y" mapstructure:"y"`
}

type _CSVNode struct {
	ID int64   `csv:"id,required"`
	X  float64 `csv:"x,required"`
	Y  float64 `csv:"y,required"`
}

type _CSVEdge struct {
	ID         int64   `csv:"id,required"`
	NodeA      int64   `csv:"node_a,required"`
	NodeB      int64   `csv:"node_b,required"`
	Impedance  float64 `csv:"impedance,required"`
	Restricted bool    `csv:"restricted"`
	ModeTags   string  `csv:"mode_tags"`
	Oneway     bool    `csv:"oneway"`
	Geometry   string  `csv:"geometry"`
}
