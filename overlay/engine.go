package overlay

import (
	"context"
	"errors"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//*******************************************
// overlay engine
//*******************************************

type Options struct {
	// grid size of the fixed-precision retry, 0 disables the retry
	GridSize float64
	// run MakeValid on invalid input polygons before overlaying
	RepairInputs bool
	// number of parallel erase workers, defaults to the cpu count
	Workers int
}

// Engine runs dissolve, union and erase on polygon layers.
//
// Dissolve and Union share one GEOS context, Erase creates one context per worker.
type Engine struct {
	opts Options
	ctx  *geos.Context
}

func NewEngine(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{
		opts: opts,
		ctx:  geos.NewContext(),
	}
}

// Dissolve merges all features of layer into one geometry.
func (self *Engine) Dissolve(layer Layer) (*geom.MultiPolygon, error) {
	if err := _CheckFeatures(layer); err != nil {
		return nil, err
	}
	parts := make([]*geos.Geom, 0, len(layer.Features))
	for _, feature := range layer.Features {
		if _IsEmpty(feature.Geometry) {
			continue
		}
		g, err := self._Load(self.ctx, feature.Geometry, "dissolve")
		if err != nil {
			return nil, _WithLayer(err, layer.Name, feature.ID)
		}
		parts = append(parts, g)
	}
	if len(parts) == 0 {
		return EmptyGeometry(layer.SRID), nil
	}
	collection := self.ctx.NewCollection(geos.TypeIDGeometryCollection, parts)
	merged, err := _Robust("dissolve", self.opts.GridSize, collection.UnaryUnion, collection.UnaryUnionPrec)
	if err != nil {
		return nil, _WithLayer(err, layer.Name, -1)
	}
	zap.L().Debug("dissolved layer",
		zap.String("layer", layer.Name),
		zap.Int("features", len(layer.Features)),
	)
	return FromGEOS(merged, layer.SRID)
}

// Union returns the set union of a and b.
//
// A union with an empty geometry returns the other operand unchanged.
func (self *Engine) Union(a *geom.MultiPolygon, b *geom.MultiPolygon) (*geom.MultiPolygon, error) {
	if a.SRID() != b.SRID() {
		return nil, &CoordinateSystemMismatchError{Layer: "union operand", Expected: a.SRID(), Actual: b.SRID()}
	}
	if _IsEmpty(b) {
		return a, nil
	}
	if _IsEmpty(a) {
		return b, nil
	}
	ga, err := self._Load(self.ctx, a, "union")
	if err != nil {
		return nil, err
	}
	gb, err := self._Load(self.ctx, b, "union")
	if err != nil {
		return nil, err
	}
	union, err := _Robust("union", self.opts.GridSize,
		func() *geos.Geom { return ga.Union(gb) },
		func(grid_size float64) *geos.Geom { return ga.UnionPrec(gb, grid_size) },
	)
	if err != nil {
		return nil, err
	}
	return FromGEOS(union, a.SRID())
}

// BuildMask dissolves every layer and unions the results into one exclusion mask.
func (self *Engine) BuildMask(layers ...Layer) (*geom.MultiPolygon, error) {
	if len(layers) == 0 {
		return nil, eris.New("overlay: no exclusion layers given")
	}
	if err := CheckCoordinateSystems(layers...); err != nil {
		return nil, err
	}
	mask := EmptyGeometry(layers[0].SRID)
	for _, layer := range layers {
		dissolved, err := self.Dissolve(layer)
		if err != nil {
			return nil, err
		}
		mask, err = self.Union(mask, dissolved)
		if err != nil {
			return nil, eris.Wrapf(err, "overlay: union %s into mask", layer.Name)
		}
	}
	return mask, nil
}

// Erase subtracts mask from every feature of layer.
//
// Features fully covered by the mask are dropped, all others keep their attributes.
// The output preserves the input feature order.
func (self *Engine) Erase(ctx context.Context, layer Layer, mask *geom.MultiPolygon) (Layer, error) {
	if mask.SRID() != layer.SRID {
		return Layer{}, &CoordinateSystemMismatchError{Layer: layer.Name, Expected: mask.SRID(), Actual: layer.SRID}
	}
	if err := _CheckFeatures(layer); err != nil {
		return Layer{}, err
	}
	mask_wkb, err := wkb.Marshal(mask, wkb.NDR)
	if err != nil {
		return Layer{}, eris.Wrap(err, "overlay: encode mask")
	}

	results := make([]*geom.MultiPolygon, len(layer.Features))
	workers := min(self.opts.Workers, max(len(layer.Features), 1))
	group, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		group.Go(func() error {
			worker := geos.NewContext()
			gmask, err := FromWKB(worker, mask_wkb)
			if err != nil {
				return err
			}
			prepared := gmask.Prepare()
			for i := w; i < len(layer.Features); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				feature := &layer.Features[i]
				result, err := self._EraseFeature(worker, feature.Geometry, gmask, prepared, layer.SRID)
				if err != nil {
					return _WithLayer(err, layer.Name, feature.ID)
				}
				results[i] = result
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Layer{}, err
	}

	trimmed := Layer{
		Name:       layer.Name,
		SRID:       layer.SRID,
		Projection: layer.Projection,
		Fields:     layer.Fields,
		Features:   make([]Feature, 0, len(layer.Features)),
	}
	for i, feature := range layer.Features {
		if _IsEmpty(results[i]) {
			continue
		}
		trimmed.Features = append(trimmed.Features, Feature{
			ID:         feature.ID,
			Attributes: feature.Attributes,
			Geometry:   results[i],
		})
	}
	zap.L().Info("erased mask from layer",
		zap.String("layer", layer.Name),
		zap.Int("features", len(layer.Features)),
		zap.Int("kept", len(trimmed.Features)),
	)
	return trimmed, nil
}

func (self *Engine) _EraseFeature(ctx *geos.Context, target *geom.MultiPolygon, mask *geos.Geom, prepared *geos.PrepGeom, srid int) (*geom.MultiPolygon, error) {
	if _IsEmpty(target) {
		return nil, nil
	}
	g, err := self._Load(ctx, target, "erase")
	if err != nil {
		return nil, err
	}
	if !prepared.Intersects(g) {
		return target, nil
	}
	if prepared.Covers(g) {
		return nil, nil
	}
	diff, err := _Robust("erase", self.opts.GridSize,
		func() *geos.Geom { return g.Difference(mask) },
		func(grid_size float64) *geos.Geom { return g.DifferencePrec(mask, grid_size) },
	)
	if err != nil {
		return nil, err
	}
	return FromGEOS(diff, srid)
}

// Converts g to GEOS and repairs it if configured.
//
// Without repair an invalid input is a GeometryValidityError of op.
func (self *Engine) _Load(ctx *geos.Context, g *geom.MultiPolygon, op string) (*geos.Geom, error) {
	gg, err := ToGEOS(ctx, g)
	if err != nil {
		return nil, err
	}
	if self.opts.RepairInputs {
		return _Repair(ctx, gg)
	}
	if !gg.IsValid() {
		return nil, &GeometryValidityError{Op: op, Reason: "invalid input: " + gg.IsValidReason()}
	}
	return gg, nil
}

func _WithLayer(err error, layer string, feature int64) error {
	var v_err *GeometryValidityError
	if errors.As(err, &v_err) {
		v_err.Layer = layer
		v_err.Feature = feature
		return v_err
	}
	return err
}
