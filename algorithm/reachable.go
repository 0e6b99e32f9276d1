package algorithm

import (
	"math"

	"golang.org/x/exp/slices"
)

//*******************************************
// reachable set
//*******************************************

// EdgeCoverage is the part [From, To] of an edge within the budget, given as
// fractions of the edge geometry measured from NodeA.
type EdgeCoverage struct {
	Edge int32
	From float64
	To   float64
}

func (self EdgeCoverage) Len() float64 {
	return self.To - self.From
}

// ReachedNode is a node within the budget together with its leftover budget.
type ReachedNode struct {
	Node      int32
	Dist      float64
	Remaining float64
}

// ReachableSet is the sub-network reachable from one origin within one break.
//
// Edges are ordered by edge index and then by From, Nodes by node index.
type ReachableSet struct {
	OriginID string
	Break    float64
	Edges    []EdgeCoverage
	Nodes    []ReachedNode
}

func (self *ReachableSet) IsEmpty() bool {
	return len(self.Edges) == 0
}

const _COVERAGE_EPS = 1e-9

// Contains reports whether every coverage interval of other lies within an
// interval of self on the same edge.
func (self *ReachableSet) Contains(other *ReachableSet) bool {
	for _, cov := range other.Edges {
		start, _ := slices.BinarySearchFunc(self.Edges, cov.Edge, func(c EdgeCoverage, edge int32) int {
			return int(c.Edge) - int(edge)
		})
		found := false
		for i := start; i < len(self.Edges) && self.Edges[i].Edge == cov.Edge; i++ {
			if self.Edges[i].From <= cov.From+_COVERAGE_EPS && cov.To <= self.Edges[i].To+_COVERAGE_EPS {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Merges overlapping intervals per edge and drops zero-length coverage.
func _MergeCoverage(intervals []EdgeCoverage) []EdgeCoverage {
	slices.SortFunc(intervals, func(a, b EdgeCoverage) int {
		if a.Edge != b.Edge {
			return int(a.Edge) - int(b.Edge)
		}
		switch {
		case a.From < b.From:
			return -1
		case a.From > b.From:
			return 1
		case a.To < b.To:
			return -1
		case a.To > b.To:
			return 1
		}
		return 0
	})
	merged := make([]EdgeCoverage, 0, len(intervals))
	for _, cov := range intervals {
		cov.From = math.Max(0, cov.From)
		cov.To = math.Min(1, cov.To)
		if cov.To <= cov.From {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Edge == cov.Edge && cov.From <= merged[n-1].To+_COVERAGE_EPS {
			merged[n-1].To = math.Max(merged[n-1].To, cov.To)
			continue
		}
		merged = append(merged, cov)
	}
	return merged
}
