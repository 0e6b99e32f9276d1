package graph

import (
	"golang.org/x/exp/slices"
)

//*******************************************
// graph interfaces
//******************************************

type IGraph interface {
	GetGraphExplorer(mode TravelMode) IGraphExplorer
	NodeCount() int
	EdgeCount() int
	GetEdge(edge int32) Edge
	GetEdgeGeom(edge int32) []Coord
	IsTraversable(edge int32, mode TravelMode) bool
	GetClosestEdge(point Coord, tolerance float64, mode TravelMode) (EdgeMatch, bool)
}

// not thread safe, use only one instance per thread
type IGraphExplorer interface {
	// Iterates through the outgoing adjacency of a node calling the callback for every edge
	// traversable with the explorers travel mode.
	ForAdjacentEdges(node int32, callback func(EdgeRef))
	GetEdgeWeight(edge EdgeRef) float64
}

//*******************************************
// base-graph
//******************************************

var _ IGraph = &Graph{}

// Graph is immutable after Load and safe for concurrent readers.
type Graph struct {
	nodes      []Node
	edges      []Edge
	edge_geoms [][]Coord
	topology   _AdjacencyArray
	index      *EdgeIndex
}

func (self *Graph) GetGraphExplorer(mode TravelMode) IGraphExplorer {
	return &BaseGraphExplorer{
		graph:    self,
		accessor: self.topology.GetAccessor(),
		mode:     mode,
	}
}
func (self *Graph) NodeCount() int {
	return len(self.nodes)
}
func (self *Graph) EdgeCount() int {
	return len(self.edges)
}
func (self *Graph) GetEdge(edge int32) Edge {
	return self.edges[edge]
}
func (self *Graph) GetEdgeGeom(edge int32) []Coord {
	geom := self.edge_geoms[edge]
	if geom == nil {
		e := self.edges[edge]
		geom = []Coord{self.nodes[e.NodeA].Loc, self.nodes[e.NodeB].Loc}
	}
	return geom
}

// An edge is traversable if it is not restricted and either carries no mode tags
// or explicitly permits the mode.
func (self *Graph) IsTraversable(edge int32, mode TravelMode) bool {
	e := &self.edges[edge]
	if e.Restricted {
		return false
	}
	if len(e.Modes) == 0 {
		return true
	}
	return slices.Contains(e.Modes, mode)
}

func (self *Graph) GetClosestEdge(point Coord, tolerance float64, mode TravelMode) (EdgeMatch, bool) {
	return self.index.GetClosestEdge(point, tolerance, func(edge int32) bool {
		return self.IsTraversable(edge, mode)
	})
}

//*******************************************
// base-graph explorer
//******************************************

type BaseGraphExplorer struct {
	graph    *Graph
	accessor _AdjArrayAccessor
	mode     TravelMode
}

func (self *BaseGraphExplorer) ForAdjacentEdges(node int32, callback func(EdgeRef)) {
	self.accessor.SetBaseNode(node)
	for self.accessor.Next() {
		ref := self.accessor.GetEdgeRef()
		if !self.graph.IsTraversable(ref.EdgeID, self.mode) {
			continue
		}
		callback(ref)
	}
}
func (self *BaseGraphExplorer) GetEdgeWeight(edge EdgeRef) float64 {
	return self.graph.edges[edge.EdgeID].Impedance
}
