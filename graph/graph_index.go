package graph

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
	"golang.org/x/exp/slices"
)

// *******************************************
// edge index
// *******************************************

// EdgeMatch is the closest point on an edge to a query coordinate.
type EdgeMatch struct {
	Edge     int32
	Distance float64
	// position along the edge geometry in [0, 1]
	Fraction float64
}

type _EdgeSample struct {
	point orb.Point
	edge  int32
}

func (self *_EdgeSample) Point() orb.Point {
	return self.point
}

// EdgeIndex finds edges close to a coordinate.
//
// Every edge geometry is densified to samples no further apart than spacing, so any
// edge within distance d of a point has a sample within d + spacing/2.
type EdgeIndex struct {
	graph   *Graph
	tree    *quadtree.Quadtree
	spacing float64
}

func _BuildEdgeIndex(g *Graph) *EdgeIndex {
	bound := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	total_length := float64(0)
	for i := 0; i < g.EdgeCount(); i++ {
		for _, c := range g.GetEdgeGeom(int32(i)) {
			bound = bound.Extend(orb.Point{c[0], c[1]})
		}
		total_length += g.edges[i].Length
	}
	if g.EdgeCount() == 0 {
		bound = orb.Bound{}
	}
	spacing := float64(1)
	if g.EdgeCount() > 0 && total_length > 0 {
		spacing = total_length / float64(g.EdgeCount())
	}
	// pad so samples on the boundary are always inside the tree bound
	bound = bound.Pad(spacing)

	tree := quadtree.New(bound)
	for i := 0; i < g.EdgeCount(); i++ {
		_SampleEdge(g.GetEdgeGeom(int32(i)), spacing, func(c Coord) {
			tree.Add(&_EdgeSample{point: orb.Point{c[0], c[1]}, edge: int32(i)})
		})
	}
	return &EdgeIndex{
		graph:   g,
		tree:    tree,
		spacing: spacing,
	}
}

// Returns the closest edge accepted by filter within tolerance.
//
// Equal distances are resolved in favour of the lower edge index.
func (self *EdgeIndex) GetClosestEdge(point Coord, tolerance float64, filter func(edge int32) bool) (EdgeMatch, bool) {
	radius := tolerance + self.spacing/2
	query := orb.Bound{
		Min: orb.Point{point[0] - radius, point[1] - radius},
		Max: orb.Point{point[0] + radius, point[1] + radius},
	}
	samples := self.tree.InBoundMatching(nil, query, func(p orb.Pointer) bool {
		return filter(p.(*_EdgeSample).edge)
	})
	candidates := make([]int32, 0, len(samples))
	for _, p := range samples {
		candidates = append(candidates, p.(*_EdgeSample).edge)
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	best := EdgeMatch{Edge: -1, Distance: math.Inf(1)}
	for _, edge := range candidates {
		geom := self.graph.GetEdgeGeom(edge)
		dist, along := _ProjectOnLine(geom, point)
		if dist > tolerance || dist >= best.Distance {
			continue
		}
		length := self.graph.edges[edge].Length
		fraction := float64(0)
		if length > 0 {
			fraction = math.Max(0, math.Min(1, along/length))
		}
		best = EdgeMatch{Edge: edge, Distance: dist, Fraction: fraction}
	}
	if best.Edge == -1 {
		return best, false
	}
	return best, true
}

func _SampleEdge(line []Coord, spacing float64, callback func(Coord)) {
	callback(line[0])
	for i := 0; i < len(line)-1; i++ {
		start := line[i]
		end := line[i+1]
		seg_len := Dist(start, end)
		steps := int(math.Ceil(seg_len / spacing))
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			callback(Coord{start[0] + t*(end[0]-start[0]), start[1] + t*(end[1]-start[1])})
		}
		callback(end)
	}
}
