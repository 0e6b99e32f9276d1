package isochrone

import (
	"context"
	"runtime"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ttpr0/go-walkshed/algorithm"
	"github.com/ttpr0/go-walkshed/graph"
)

//**********************************************************
// isochrones
//**********************************************************

// Isochrone is the walkable area of one origin for one break.
type Isochrone struct {
	OriginID   string
	Break      float64
	Batch      string
	Geometry   *geom.MultiPolygon
	Attributes map[string]any
}

func (self *Isochrone) IsEmpty() bool {
	return self.Geometry == nil || self.Geometry.NumPolygons() == 0
}

// BuildAll converts the reachable sets of one batch into isochrones keeping their order.
//
// Every worker owns its own Builder and GEOS context.
func BuildAll(ctx context.Context, g graph.IGraph, sets []algorithm.ReachableSet, batch string, opts BuilderOptions, workers int) ([]Isochrone, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(sets), 1))

	isochrones := make([]Isochrone, len(sets))
	group, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			builder := NewBuilder(g, opts)
			for i := w; i < len(sets); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				set := &sets[i]
				polygon, err := builder.Build(set.OriginID, set.Break, set)
				if err != nil {
					return err
				}
				isochrones[i] = Isochrone{
					OriginID: set.OriginID,
					Break:    set.Break,
					Batch:    batch,
					Geometry: polygon,
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	zap.L().Debug("built isochrones",
		zap.String("batch", batch),
		zap.Int("count", len(isochrones)),
	)
	return isochrones, nil
}
