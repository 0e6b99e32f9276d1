package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/overlay"
)

// RunTrim erases the union of all exclusion layers from every target layer.
//
// Trimmed layers keep the order of targets and are named by appending suffix.
func RunTrim(ctx context.Context, engine *overlay.Engine, exclusions []overlay.Layer, targets []overlay.Layer, suffix string, report *Report) ([]overlay.Layer, error) {
	layers := make([]overlay.Layer, 0, len(exclusions)+len(targets))
	layers = append(layers, exclusions...)
	layers = append(layers, targets...)
	if err := overlay.CheckCoordinateSystems(layers...); err != nil {
		return nil, eris.Wrap(err, "pipeline: check coordinate systems")
	}
	mask, err := engine.BuildMask(exclusions...)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build mask")
	}
	report.MaskArea = overlay.Area(mask)
	zap.L().Info("built exclusion mask",
		zap.Int("layers", len(exclusions)),
		zap.Int("polygons", mask.NumPolygons()),
		zap.Float64("area", report.MaskArea),
	)

	trimmed := make([]overlay.Layer, 0, len(targets))
	for _, target := range targets {
		result, err := engine.Erase(ctx, target, mask)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: trim %s", target.Name)
		}
		result.Name = target.Name + suffix
		report.Layers = append(report.Layers, LayerReport{
			Name:           result.Name,
			FeaturesBefore: target.Len(),
			FeaturesAfter:  result.Len(),
			AreaBefore:     target.Area(),
			AreaAfter:      result.Area(),
		})
		trimmed = append(trimmed, result)
	}
	return trimmed, nil
}
