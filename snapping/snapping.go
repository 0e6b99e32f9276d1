package snapping

import (
	"fmt"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/origin"
)

//*******************************************
// snapped origins
//*******************************************

// SnappedOrigin is an origin bound to a position on the graph.
//
// Node is the bound graph node if the position coincides with an edge endpoint, else -1.
type SnappedOrigin struct {
	origin.Origin
	Edge     int32
	Fraction float64
	Node     int32
	// distance between the origin and the snapped position
	Distance float64
}

func (self SnappedOrigin) OnNode() bool {
	return self.Node >= 0
}

// SnapFailure is reported if no traversable edge lies within the tolerance of an origin.
type SnapFailure struct {
	OriginID  string
	X         float64
	Y         float64
	Tolerance float64
}

func (e *SnapFailure) Error() string {
	return fmt.Sprintf("snapping: origin %s at (%v, %v) has no traversable edge within %v", e.OriginID, e.X, e.Y, e.Tolerance)
}

//*******************************************
// snapping
//*******************************************

// Snap binds o to the closest edge traversable for mode.
//
// Distances are measured to the edge polyline. Equal distances favour the lower edge id.
func Snap(o origin.Origin, g graph.IGraph, mode graph.TravelMode, tolerance float64) (SnappedOrigin, *SnapFailure) {
	match, ok := g.GetClosestEdge(graph.Coord{o.X, o.Y}, tolerance, mode)
	if !ok {
		return SnappedOrigin{}, &SnapFailure{OriginID: o.ID, X: o.X, Y: o.Y, Tolerance: tolerance}
	}
	snapped := SnappedOrigin{
		Origin:   o,
		Edge:     match.Edge,
		Fraction: match.Fraction,
		Node:     -1,
		Distance: match.Distance,
	}
	edge := g.GetEdge(match.Edge)
	switch match.Fraction {
	case 0:
		snapped.Node = edge.NodeA
	case 1:
		snapped.Node = edge.NodeB
	}
	return snapped, nil
}

// SnapAll snaps every origin keeping the input order.
//
// Failures are returned separately and never abort the remaining origins.
func SnapAll(origins []origin.Origin, g graph.IGraph, mode graph.TravelMode, tolerance float64) ([]SnappedOrigin, []*SnapFailure) {
	snapped := make([]SnappedOrigin, 0, len(origins))
	failures := make([]*SnapFailure, 0)
	for _, o := range origins {
		s, fail := Snap(o, g, mode, tolerance)
		if fail != nil {
			failures = append(failures, fail)
			continue
		}
		snapped = append(snapped, s)
	}
	return snapped, failures
}
