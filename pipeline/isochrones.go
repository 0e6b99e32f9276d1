// Package pipeline runs the isochrone and parcel trimming workflows.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/ttpr0/go-walkshed/algorithm"
	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/origin"
	"github.com/ttpr0/go-walkshed/overlay"
	"github.com/ttpr0/go-walkshed/snapping"
)

//*******************************************
// batches
//*******************************************

// Batch is a named origin subset solved with its own break.
type Batch struct {
	Name  string  `yaml:"name" mapstructure:"name"`
	Break float64 `yaml:"break" mapstructure:"break"`
	// origins whose field value is in values, or not in values if negated
	Field  string   `yaml:"field" mapstructure:"field"`
	Values []string `yaml:"values" mapstructure:"values"`
	Negate bool     `yaml:"negate" mapstructure:"negate"`
}

func (self Batch) Selection() origin.Selection {
	return origin.Selection{Field: self.Field, Values: self.Values, Negate: self.Negate}
}

type IsochroneOptions struct {
	Mode          graph.TravelMode
	SnapTolerance float64
	Builder       isochrone.BuilderOptions
	Workers       int
	// origin attributes copied onto isochrones, all if empty
	JoinFields []string
}

//*******************************************
// origin preparation
//*******************************************

type OriginOptions struct {
	// zone layer tagged onto origins, skipped if nil
	Zones         *overlay.Layer
	ZoneNameField string
	ZoneField     string

	YearRules   []origin.YearRule
	RoutesField string
	YearField   string
}

// PrepareOrigins tags zones and inception years onto origins.
func PrepareOrigins(origins []origin.Origin, opts OriginOptions) ([]origin.Origin, error) {
	var err error
	if opts.Zones != nil {
		origins, err = origin.TagZones(origins, *opts.Zones, opts.ZoneNameField, opts.ZoneField)
		if err != nil {
			return nil, err
		}
	}
	if len(opts.YearRules) > 0 && opts.YearField != "" {
		origins = origin.AssignYears(origins, opts.YearRules, opts.RoutesField, opts.ZoneField, opts.YearField)
	}
	return origins, nil
}

//*******************************************
// isochrone run
//*******************************************

// RunIsochrones solves all batches in order and returns the deduplicated isochrones
// with joined origin attributes.
//
// A failing batch is discarded as a whole and recorded in report, later batches
// still run. Cancellation aborts the run.
func RunIsochrones(ctx context.Context, g graph.IGraph, origins []origin.Origin, batches []Batch, opts IsochroneOptions, report *Report) ([]isochrone.Isochrone, error) {
	if len(batches) == 0 {
		return nil, eris.New("pipeline: no batches configured")
	}
	dedup := isochrone.NewDeduplicator()

	for _, batch := range batches {
		batch_report := BatchReport{Name: batch.Name, Break: batch.Break}

		selected := batch.Selection().Apply(origins)
		snapped, failures := snapping.SnapAll(selected, g, opts.Mode, opts.SnapTolerance)
		batch_report.Selected = len(selected)
		batch_report.Snapped = len(snapped)
		report.AddSnapFailures(batch.Name, failures)

		isos, err := _RunBatch(ctx, g, snapped, batch, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zap.L().Error("batch failed",
				zap.String("batch", batch.Name),
				zap.Error(err),
			)
			batch_report.Error = err.Error()
			report.FailedBatches = append(report.FailedBatches, batch.Name)
			report.Batches = append(report.Batches, batch_report)
			continue
		}

		for _, iso := range isos {
			if iso.IsEmpty() {
				batch_report.Empty += 1
				if !slices.Contains(report.EmptyOrigins, iso.OriginID) {
					report.EmptyOrigins = append(report.EmptyOrigins, iso.OriginID)
				}
				continue
			}
			if dedup.Accumulate(iso) {
				batch_report.Emitted += 1
			} else {
				batch_report.Dropped += 1
			}
		}
		report.Batches = append(report.Batches, batch_report)
		zap.L().Info("finished batch",
			zap.String("batch", batch.Name),
			zap.Float64("break", batch.Break),
			zap.Int("selected", batch_report.Selected),
			zap.Int("snap_failures", len(failures)),
			zap.Int("emitted", batch_report.Emitted),
			zap.Int("dropped", batch_report.Dropped),
			zap.Int("empty", batch_report.Empty),
		)
	}

	joined, err := isochrone.Join(dedup.Results(), origin.Index(origins), opts.JoinFields)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: join origin attributes")
	}
	report.Isochrones = len(joined)
	report.DroppedDuplicates = dedup.Dropped()
	return joined, nil
}

func _RunBatch(ctx context.Context, g graph.IGraph, snapped []snapping.SnappedOrigin, batch Batch, opts IsochroneOptions) ([]isochrone.Isochrone, error) {
	sets, err := algorithm.SolveAll(ctx, g, snapped, batch.Break, opts.Mode, opts.Workers)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: solve batch %s", batch.Name)
	}
	isos, err := isochrone.BuildAll(ctx, g, sets, batch.Name, opts.Builder, opts.Workers)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: build batch %s", batch.Name)
	}
	return isos, nil
}
