package algorithm

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/snapping"
)

//*******************************************
// distance flags
//*******************************************

// _DistFlags holds tentative node distances and resets only touched entries between runs.
type _DistFlags struct {
	dist    []float64
	touched []int32
}

func _NewDistFlags(count int) _DistFlags {
	dist := make([]float64, count)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	return _DistFlags{
		dist:    dist,
		touched: make([]int32, 0, 64),
	}
}

func (self *_DistFlags) Get(node int32) float64 {
	return self.dist[node]
}

func (self *_DistFlags) Set(node int32, dist float64) {
	if math.IsInf(self.dist[node], 1) {
		self.touched = append(self.touched, node)
	}
	self.dist[node] = dist
}

func (self *_DistFlags) Reset() {
	for _, node := range self.touched {
		self.dist[node] = math.Inf(1)
	}
	self.touched = self.touched[:0]
}

//*******************************************
// range dijkstra
//*******************************************

// RangeSolver computes bounded reachable sets on one graph.
//
// not thread safe, use only one instance per thread
type RangeSolver struct {
	g        graph.IGraph
	explorer graph.IGraphExplorer
	mode     graph.TravelMode
	flags    _DistFlags
	heap     PriorityQueue[int32, float64]
}

func NewRangeSolver(g graph.IGraph, mode graph.TravelMode) *RangeSolver {
	return &RangeSolver{
		g:        g,
		explorer: g.GetGraphExplorer(mode),
		mode:     mode,
		flags:    _NewDistFlags(g.NodeCount()),
		heap:     NewPriorityQueue[int32, float64](100),
	}
}

// CalcReachable runs a bounded dijkstra from the snapped position of start.
//
// Coverage is derived from the final node distances after the search, so the
// result does not depend on the order nodes were settled in.
func (self *RangeSolver) CalcReachable(start snapping.SnappedOrigin, max_range float64) ReachableSet {
	self.flags.Reset()
	self.heap.Clear()

	result := ReachableSet{
		OriginID: start.ID,
		Break:    max_range,
	}
	intervals := make([]EdgeCoverage, 0, 16)

	if start.OnNode() {
		self._Enqueue(start.Node, 0, max_range)
	} else {
		if !self.g.IsTraversable(start.Edge, self.mode) {
			return result
		}
		edge := self.g.GetEdge(start.Edge)
		weight := edge.Impedance
		f := start.Fraction
		if weight == 0 {
			intervals = append(intervals, EdgeCoverage{Edge: start.Edge, From: 0, To: 1})
		} else {
			reach := max_range / weight
			intervals = append(intervals, EdgeCoverage{Edge: start.Edge, From: f, To: f + reach})
			if !edge.Oneway {
				intervals = append(intervals, EdgeCoverage{Edge: start.Edge, From: f - reach, To: f})
			}
		}
		self._Enqueue(edge.NodeB, (1-f)*weight, max_range)
		if !edge.Oneway {
			self._Enqueue(edge.NodeA, f*weight, max_range)
		}
	}

	for {
		curr_id, curr_dist, ok := self.heap.Dequeue()
		if !ok {
			break
		}
		if self.flags.Get(curr_id) < curr_dist {
			continue
		}
		self.explorer.ForAdjacentEdges(curr_id, func(ref graph.EdgeRef) {
			new_length := curr_dist + self.explorer.GetEdgeWeight(ref)
			if new_length > max_range {
				return
			}
			if self.flags.Get(ref.OtherID) > new_length {
				self.flags.Set(ref.OtherID, new_length)
				self.heap.Enqueue(ref.OtherID, new_length)
			}
		})
	}

	reached := make([]ReachedNode, 0, len(self.flags.touched))
	for _, node := range self.flags.touched {
		dist := self.flags.Get(node)
		remaining := max_range - dist
		reached = append(reached, ReachedNode{Node: node, Dist: dist, Remaining: remaining})
		self.explorer.ForAdjacentEdges(node, func(ref graph.EdgeRef) {
			weight := self.explorer.GetEdgeWeight(ref)
			frac := float64(1)
			if weight > 0 {
				frac = math.Min(1, remaining/weight)
			}
			if ref.Forward {
				intervals = append(intervals, EdgeCoverage{Edge: ref.EdgeID, From: 0, To: frac})
			} else {
				intervals = append(intervals, EdgeCoverage{Edge: ref.EdgeID, From: 1 - frac, To: 1})
			}
		})
	}
	slices.SortFunc(reached, func(a, b ReachedNode) int {
		return int(a.Node) - int(b.Node)
	})

	result.Edges = _MergeCoverage(intervals)
	if len(result.Edges) > 0 {
		result.Nodes = reached
	}
	return result
}

func (self *RangeSolver) _Enqueue(node int32, dist float64, max_range float64) {
	if dist > max_range || self.flags.Get(node) <= dist {
		return
	}
	self.flags.Set(node, dist)
	self.heap.Enqueue(node, dist)
}
