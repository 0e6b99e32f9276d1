package graph

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// MalformedNetworkError reports edge or node records the graph cannot be built from.
type MalformedNetworkError struct {
	// "node" or "edge"
	Element string
	ID      int64
	Reason  string
}

func (e *MalformedNetworkError) Error() string {
	return fmt.Sprintf("graph: malformed network: %s %d: %s", e.Element, e.ID, e.Reason)
}

//*******************************************
// build graph
//*******************************************

// Load validates node and edge records and builds an immutable graph.
//
// Edges are ordered by id, so the internal edge index preserves the id order.
func Load(node_records []NodeRecord, edge_records []EdgeRecord) (*Graph, error) {
	nodes := make([]Node, 0, len(node_records))
	node_ids := make(map[int64]int32, len(node_records))
	for _, rec := range node_records {
		if _, ok := node_ids[rec.ID]; ok {
			return nil, &MalformedNetworkError{Element: "node", ID: rec.ID, Reason: "duplicate node id"}
		}
		if math.IsNaN(rec.X) || math.IsNaN(rec.Y) || math.IsInf(rec.X, 0) || math.IsInf(rec.Y, 0) {
			return nil, &MalformedNetworkError{Element: "node", ID: rec.ID, Reason: "invalid coordinate"}
		}
		node_ids[rec.ID] = int32(len(nodes))
		nodes = append(nodes, Node{ID: rec.ID, Loc: Coord{rec.X, rec.Y}})
	}

	sorted := slices.Clone(edge_records)
	slices.SortStableFunc(sorted, func(a, b EdgeRecord) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	edges := make([]Edge, 0, len(sorted))
	edge_geoms := make([][]Coord, 0, len(sorted))
	for i, rec := range sorted {
		if i > 0 && sorted[i-1].ID == rec.ID {
			return nil, &MalformedNetworkError{Element: "edge", ID: rec.ID, Reason: "duplicate edge id"}
		}
		node_a, ok := node_ids[rec.NodeA]
		if !ok {
			return nil, &MalformedNetworkError{Element: "edge", ID: rec.ID, Reason: fmt.Sprintf("undefined endpoint %d", rec.NodeA)}
		}
		node_b, ok := node_ids[rec.NodeB]
		if !ok {
			return nil, &MalformedNetworkError{Element: "edge", ID: rec.ID, Reason: fmt.Sprintf("undefined endpoint %d", rec.NodeB)}
		}
		if math.IsNaN(rec.Impedance) || math.IsInf(rec.Impedance, 0) || rec.Impedance < 0 {
			return nil, &MalformedNetworkError{Element: "edge", ID: rec.ID, Reason: fmt.Sprintf("invalid impedance %v", rec.Impedance)}
		}
		var geom []Coord
		if len(rec.Geometry) > 0 {
			if len(rec.Geometry) < 2 {
				return nil, &MalformedNetworkError{Element: "edge", ID: rec.ID, Reason: "geometry needs at least two coordinates"}
			}
			geom = slices.Clone(rec.Geometry)
		}
		length := _LineLength(geom)
		if geom == nil {
			length = Dist(nodes[node_a].Loc, nodes[node_b].Loc)
		}
		modes := slices.Clone(rec.ModeTags)
		slices.Sort(modes)
		edges = append(edges, Edge{
			ID:         rec.ID,
			NodeA:      node_a,
			NodeB:      node_b,
			Impedance:  rec.Impedance,
			Restricted: rec.Restricted,
			Oneway:     rec.Oneway,
			Modes:      slices.Compact(modes),
			Length:     length,
		})
		edge_geoms = append(edge_geoms, geom)
	}

	g := &Graph{
		nodes:      nodes,
		edges:      edges,
		edge_geoms: edge_geoms,
		topology:   _BuildTopology(len(nodes), edges),
	}
	g.index = _BuildEdgeIndex(g)
	return g, nil
}
