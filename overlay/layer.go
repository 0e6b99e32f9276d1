package overlay

import (
	"fmt"
	"math"
	"strings"

	"github.com/twpayne/go-geom"
)

//*******************************************
// polygon layers
//*******************************************

// Feature is a single polygon record of a layer.
type Feature struct {
	ID         int64
	Attributes map[string]any
	Geometry   *geom.MultiPolygon
}

// Layer is a named set of polygon features sharing one coordinate system.
type Layer struct {
	Name string
	SRID int
	// projection definition of the source (.prj wkt or geojson crs), empty if unknown
	Projection string
	// attribute names in output order
	Fields   []string
	Features []Feature
}

func (self *Layer) Len() int {
	return len(self.Features)
}

// Area sums the feature areas of the layer.
func (self *Layer) Area() float64 {
	area := 0.0
	for i := range self.Features {
		area += Area(self.Features[i].Geometry)
	}
	return area
}

// CheckCoordinateSystems verifies that all layers share one srid and that the
// known projection definitions agree.
//
// Projections are compared ignoring whitespace and case.
func CheckCoordinateSystems(layers ...Layer) error {
	if len(layers) == 0 {
		return nil
	}
	srid := layers[0].SRID
	projection := ""
	projection_layer := ""
	for _, layer := range layers {
		if layer.SRID != srid {
			return &CoordinateSystemMismatchError{Layer: layer.Name, Expected: srid, Actual: layer.SRID}
		}
		p := _NormalizeProjection(layer.Projection)
		if p == "" {
			continue
		}
		if projection == "" {
			projection = p
			projection_layer = layer.Name
			continue
		}
		if p != projection {
			return &CoordinateSystemMismatchError{Layer: layer.Name, Other: projection_layer}
		}
	}
	return nil
}

func _NormalizeProjection(projection string) string {
	return strings.ToUpper(strings.Join(strings.Fields(projection), ""))
}

// Every feature geometry must carry the srid of its layer.
func _CheckFeatures(layer Layer) error {
	for i := range layer.Features {
		g := layer.Features[i].Geometry
		if g != nil && g.SRID() != layer.SRID {
			return &CoordinateSystemMismatchError{
				Layer:    fmt.Sprintf("%s/%d", layer.Name, layer.Features[i].ID),
				Expected: layer.SRID,
				Actual:   g.SRID(),
			}
		}
	}
	return nil
}

// EmptyGeometry returns an empty multipolygon in the given coordinate system.
func EmptyGeometry(srid int) *geom.MultiPolygon {
	return geom.NewMultiPolygon(geom.XY).SetSRID(srid)
}

func _IsEmpty(g *geom.MultiPolygon) bool {
	return g == nil || g.Empty() || g.NumPolygons() == 0
}

// Area returns the planar area of g independent of ring orientation.
func Area(g *geom.MultiPolygon) float64 {
	if g == nil {
		return 0
	}
	area := 0.0
	for p := 0; p < g.NumPolygons(); p++ {
		polygon := g.Polygon(p)
		for r := 0; r < polygon.NumLinearRings(); r++ {
			ring := math.Abs(polygon.LinearRing(r).Area())
			if r == 0 {
				area += ring
			} else {
				area -= ring
			}
		}
	}
	return area
}
