package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/origin"
	"github.com/ttpr0/go-walkshed/overlay"
	"github.com/ttpr0/go-walkshed/util"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

const cbd = "Central Business District"

func network(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Load(
		[]graph.NodeRecord{{ID: 1}, {ID: 2, X: 100}, {ID: 3, X: 200}, {ID: 4, X: 1000}, {ID: 5, X: 1100}},
		[]graph.EdgeRecord{
			{ID: 12, NodeA: 1, NodeB: 2, Impedance: 100},
			{ID: 23, NodeA: 2, NodeB: 3, Impedance: 100},
			{ID: 45, NodeA: 4, NodeB: 5, Impedance: 100, Oneway: true},
		},
	)
	require.NoError(t, err)
	return g
}

func stops() []origin.Origin {
	return []origin.Origin{
		{ID: "8370", X: 50, Attributes: map[string]any{"zone": cbd, "routes": " :MAX Red Line: "}},
		{ID: "8371", X: 150, Attributes: map[string]any{"zone": "East", "routes": ":MAX Blue Line:"}},
		// dead end of a oneway edge
		{ID: "9000", X: 1100, Attributes: map[string]any{"zone": "East"}},
		{ID: "9999", X: 5000, Y: 5000, Attributes: map[string]any{"zone": "East"}},
	}
}

func options() IsochroneOptions {
	return IsochroneOptions{
		Mode:          graph.WALKING,
		SnapTolerance: 10,
		Builder:       isochrone.BuilderOptions{BufferWidth: 10, SRID: 2913},
		Workers:       2,
		JoinFields:    []string{"routes", "zone"},
	}
}

func TestRunIsochrones(t *testing.T) {
	batches := []Batch{
		{Name: "cbd", Break: 100, Field: "zone", Values: []string{cbd}},
		{Name: "broken", Break: -1},
		{Name: "outer", Break: 100, Field: "zone", Values: []string{cbd}, Negate: true},
		{Name: "all", Break: 50},
	}
	report := NewReport()

	isos, err := RunIsochrones(context.Background(), network(t), stops(), batches, options(), report)
	require.NoError(t, err)

	require.Len(t, isos, 2)
	assert.Equal(t, "8370", isos[0].OriginID)
	assert.Equal(t, "cbd", isos[0].Batch)
	assert.Equal(t, ":MAX Red Line:", isos[0].Attributes["routes"])
	assert.Equal(t, cbd, isos[0].Attributes["zone"])
	assert.Equal(t, "8371", isos[1].OriginID)
	assert.Equal(t, "outer", isos[1].Batch)
	assert.Equal(t, float64(100), isos[1].Break)
	for _, iso := range isos {
		assert.False(t, iso.IsEmpty())
		assert.Equal(t, 2913, iso.Geometry.SRID())
	}

	assert.Equal(t, []string{"broken"}, report.FailedBatches)
	assert.Equal(t, []string{"9000"}, report.EmptyOrigins)
	assert.Equal(t, 2, report.Isochrones)
	assert.Equal(t, 2, report.DroppedDuplicates)
	require.Len(t, report.Batches, 4)
	assert.Equal(t, BatchReport{Name: "cbd", Break: 100, Selected: 1, Snapped: 1, Emitted: 1}, report.Batches[0])
	assert.Contains(t, report.Batches[1].Error, "invalid break")
	assert.Equal(t, BatchReport{Name: "outer", Break: 100, Selected: 3, Snapped: 2, Emitted: 1, Empty: 1}, report.Batches[2])
	assert.Equal(t, BatchReport{Name: "all", Break: 50, Selected: 4, Snapped: 3, Dropped: 2, Empty: 1}, report.Batches[3])

	require.Len(t, report.SnapFailures, 3)
	for _, f := range report.SnapFailures {
		assert.Equal(t, "9999", f.OriginID)
	}
	assert.Equal(t, "broken", report.SnapFailures[0].Batch)
}

func TestRunIsochronesBatchOrderDecidesPriority(t *testing.T) {
	batches := []Batch{
		{Name: "small", Break: 20},
		{Name: "large", Break: 150},
	}
	isos, err := RunIsochrones(context.Background(), network(t), stops()[:2], batches, options(), NewReport())
	require.NoError(t, err)
	require.Len(t, isos, 2)
	for _, iso := range isos {
		assert.Equal(t, "small", iso.Batch)
		assert.Equal(t, float64(20), iso.Break)
	}
}

func TestRunIsochronesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunIsochrones(ctx, network(t), stops(), []Batch{{Name: "all", Break: 100}}, options(), NewReport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrepareOrigins(t *testing.T) {
	zones := overlay.Layer{
		Name: "zones",
		SRID: 2913,
		Features: []overlay.Feature{
			{ID: 1, Attributes: map[string]any{"name": cbd}, Geometry: square(0, -10, 100)},
			{ID: 2, Attributes: map[string]any{"name": "West Suburbs"}, Geometry: square(100, -10, 100)},
		},
	}
	origins := []origin.Origin{
		{ID: "a", X: 50, Attributes: map[string]any{"routes": ":MAX Red Line:"}},
		{ID: "b", X: 150, Attributes: map[string]any{"routes": ":MAX Blue Line:"}},
		{ID: "c", X: 500, Attributes: map[string]any{"routes": ":MAX Blue Line:"}},
	}

	prepared, err := PrepareOrigins(origins, OriginOptions{
		Zones:         &zones,
		ZoneNameField: "name",
		ZoneField:     "max_zone",
		YearRules:     origin.DefaultYearRules(),
		RoutesField:   "routes",
		YearField:     "incpt_year",
	})
	require.NoError(t, err)
	assert.Equal(t, cbd, prepared[0].Attributes["max_zone"])
	assert.Equal(t, 1997, prepared[0].Attributes["incpt_year"])
	assert.Equal(t, "West Suburbs", prepared[1].Attributes["max_zone"])
	assert.Equal(t, 1990, prepared[1].Attributes["incpt_year"])
	assert.Equal(t, "", prepared[2].Attributes["max_zone"])
	assert.Equal(t, 1980, prepared[2].Attributes["incpt_year"])
	// inputs stay untouched
	assert.NotContains(t, origins[0].Attributes, "max_zone")
}

func square(x, y, size float64) *geom.MultiPolygon {
	mp := overlay.EmptyGeometry(2913)
	err := mp.Push(geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}}))
	if err != nil {
		panic(err)
	}
	return mp
}

func TestRunTrim(t *testing.T) {
	water := overlay.Layer{
		Name: "stm_fill",
		SRID: 2913,
		Features: []overlay.Feature{
			{ID: 1, Geometry: square(0, 0, 10)},
			{ID: 2, Geometry: square(10, 0, 10)},
		},
	}
	natural := overlay.Layer{
		Name:     "orca",
		SRID:     2913,
		Features: []overlay.Feature{{ID: 1, Geometry: square(40, 0, 5)}},
	}
	taxlots := overlay.Layer{
		Name:   "taxlots",
		SRID:   2913,
		Fields: []string{"rno"},
		Features: []overlay.Feature{
			{ID: 1, Attributes: map[string]any{"rno": "R1"}, Geometry: square(0, 0, 30)},
			{ID: 2, Attributes: map[string]any{"rno": "R2"}, Geometry: square(40, 0, 5)},
		},
	}
	report := NewReport()

	trimmed, err := RunTrim(context.Background(), overlay.NewEngine(overlay.Options{GridSize: 1e-6}),
		[]overlay.Layer{water, natural}, []overlay.Layer{taxlots}, "_trimmed", report)
	require.NoError(t, err)
	require.Len(t, trimmed, 1)
	assert.Equal(t, "taxlots_trimmed", trimmed[0].Name)
	require.Equal(t, 1, trimmed[0].Len())
	assert.Equal(t, "R1", trimmed[0].Features[0].Attributes["rno"])
	assert.InDelta(t, 700, trimmed[0].Area(), 1e-6)

	assert.InDelta(t, 225, report.MaskArea, 1e-6)
	require.Len(t, report.Layers, 1)
	layer := report.Layers[0]
	assert.Equal(t, 2, layer.FeaturesBefore)
	assert.Equal(t, 1, layer.FeaturesAfter)
	assert.InDelta(t, 925, layer.AreaBefore, 1e-6)
	assert.InDelta(t, 700, layer.AreaAfter, 1e-6)
}

func TestRunTrimRejectsMixedSRID(t *testing.T) {
	water := overlay.Layer{Name: "stm_fill", SRID: 2913, Features: []overlay.Feature{{ID: 1, Geometry: square(0, 0, 10)}}}
	natural := overlay.Layer{Name: "orca", SRID: 4326}

	_, err := RunTrim(context.Background(), overlay.NewEngine(overlay.Options{}), []overlay.Layer{water, natural}, nil, "", NewReport())
	var mismatch *overlay.CoordinateSystemMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "orca", mismatch.Layer)
}

func TestRunTrimRejectsTargetInOtherProjection(t *testing.T) {
	water := overlay.Layer{
		Name:       "stm_fill",
		SRID:       2913,
		Projection: `PROJCS["NAD_1983_HARN_StatePlane_Oregon_North_FIPS_3601_Feet_Intl"]`,
		Features:   []overlay.Feature{{ID: 1, Geometry: square(0, 0, 10)}},
	}
	taxlots := overlay.Layer{
		Name:       "taxlots",
		SRID:       2913,
		Projection: `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere"]`,
		Features:   []overlay.Feature{{ID: 1, Geometry: square(0, 0, 30)}},
	}
	report := NewReport()

	_, err := RunTrim(context.Background(), overlay.NewEngine(overlay.Options{}), []overlay.Layer{water}, []overlay.Layer{taxlots}, "_trimmed", report)
	var mismatch *overlay.CoordinateSystemMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "taxlots", mismatch.Layer)
	assert.Equal(t, "stm_fill", mismatch.Other)
	assert.Empty(t, report.Layers)
}

func TestReportWrite(t *testing.T) {
	report := NewReport()
	report.Batches = append(report.Batches, BatchReport{Name: "cbd", Break: 3300, Emitted: 12})
	report.EmptyOrigins = []string{"9000"}
	file := filepath.Join(t.TempDir(), "report.yaml")

	require.NoError(t, report.Write(file))

	read, err := util.ReadYAMLFromFile[Report](file)
	require.NoError(t, err)
	_, err = uuid.Parse(read.RunID)
	assert.NoError(t, err)
	assert.Equal(t, report.RunID, read.RunID)
	assert.Equal(t, report.Batches, read.Batches)
	assert.Equal(t, []string{"9000"}, read.EmptyOrigins)
	assert.False(t, read.Finished.Before(read.Started))
}
