package algorithm

import (
	"context"
	"math"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/snapping"
)

//*******************************************
// batch solver
//*******************************************

// SolveAll computes the reachable set of every origin for one break.
//
// Origins are solved in parallel by workers, each owning its own RangeSolver.
// Results are returned in the order of origins.
func SolveAll(ctx context.Context, g graph.IGraph, origins []snapping.SnappedOrigin, brk float64, mode graph.TravelMode, workers int) ([]ReachableSet, error) {
	if math.IsNaN(brk) || math.IsInf(brk, 0) || brk < 0 {
		return nil, eris.Errorf("algorithm: invalid break %v", brk)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(origins), 1))

	results := make([]ReachableSet, len(origins))
	group, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			solver := NewRangeSolver(g, mode)
			for i := w; i < len(origins); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = solver.CalcReachable(origins[i], brk)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	empty := 0
	for i := range results {
		if results[i].IsEmpty() {
			empty += 1
		}
	}
	zap.L().Debug("solved reachable sets",
		zap.Int("origins", len(origins)),
		zap.Float64("break", brk),
		zap.Int("empty", empty),
	)
	return results, nil
}

// Solve computes the reachable set of every origin for one break keyed by origin id.
//
// If an id occurs more than once the first origin wins.
func Solve(ctx context.Context, g graph.IGraph, origins []snapping.SnappedOrigin, brk float64, mode graph.TravelMode, workers int) (map[string]ReachableSet, error) {
	results, err := SolveAll(ctx, g, origins, brk, mode, workers)
	if err != nil {
		return nil, err
	}
	by_origin := make(map[string]ReachableSet, len(results))
	for _, set := range results {
		if _, ok := by_origin[set.OriginID]; ok {
			continue
		}
		by_origin[set.OriginID] = set
	}
	return by_origin, nil
}
