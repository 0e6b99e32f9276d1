package isochrone

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geos"

	"github.com/ttpr0/go-walkshed/algorithm"
	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/overlay"
)

//**********************************************************
// isochrone builder
//**********************************************************

type BuilderOptions struct {
	// buffer distance around the reachable network
	BufferWidth float64
	// segments per quarter circle of the round buffer caps
	QuadSegs int
	SRID     int
}

// Builder converts reachable sets into polygons by buffering the covered network.
//
// not thread safe, use only one instance per thread
type Builder struct {
	g    graph.IGraph
	opts BuilderOptions
	ctx  *geos.Context
}

func NewBuilder(g graph.IGraph, opts BuilderOptions) *Builder {
	if opts.QuadSegs <= 0 {
		opts.QuadSegs = 8
	}
	return &Builder{
		g:    g,
		opts: opts,
		ctx:  geos.NewContext(),
	}
}

// Build returns the walkable coverage area of set.
//
// An empty set yields an empty multipolygon.
func (self *Builder) Build(origin_id string, brk float64, set *algorithm.ReachableSet) (*geom.MultiPolygon, error) {
	if set.IsEmpty() {
		return overlay.EmptyGeometry(self.opts.SRID), nil
	}
	lines := make([]*geos.Geom, 0, len(set.Edges))
	for _, cov := range set.Edges {
		coords := _LineSubstring(self.g.GetEdgeGeom(cov.Edge), cov.From, cov.To)
		points := make([][]float64, len(coords))
		for i, c := range coords {
			points[i] = []float64{c[0], c[1]}
		}
		lines = append(lines, self.ctx.NewLineString(points))
	}
	network := self.ctx.NewCollection(geos.TypeIDMultiLineString, lines)

	buffered, err := self._Buffer(network)
	if err != nil {
		return nil, &overlay.GeometryValidityError{Op: "buffer", Layer: origin_id, Reason: err.Error()}
	}
	if !buffered.IsValid() {
		return nil, &overlay.GeometryValidityError{Op: "buffer", Layer: origin_id, Reason: buffered.IsValidReason()}
	}
	polygon, err := overlay.FromGEOS(buffered, self.opts.SRID)
	if err != nil {
		return nil, eris.Wrapf(err, "isochrone: convert polygon of origin %s at break %v", origin_id, brk)
	}
	return polygon, nil
}

func (self *Builder) _Buffer(network *geos.Geom) (result *geos.Geom, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("isochrone: geos: %v", r)
		}
	}()
	return network.Buffer(self.opts.BufferWidth, self.opts.QuadSegs), nil
}
