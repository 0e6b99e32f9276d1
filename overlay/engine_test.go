package overlay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geos"
)

const testSRID = 2913

func square(x, y, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y},
	}})
}

func multi(srid int, polygons ...*geom.Polygon) *geom.MultiPolygon {
	mp := EmptyGeometry(srid)
	for _, p := range polygons {
		if err := mp.Push(p); err != nil {
			panic(err)
		}
	}
	return mp
}

func parcels() Layer {
	return Layer{
		Name:   "taxlots",
		SRID:   testSRID,
		Fields: []string{"owner"},
		Features: []Feature{
			{ID: 1, Attributes: map[string]any{"owner": "a"}, Geometry: multi(testSRID, square(0, 0, 10))},
			{ID: 2, Attributes: map[string]any{"owner": "b"}, Geometry: multi(testSRID, square(20, 0, 10))},
			{ID: 3, Attributes: map[string]any{"owner": "c"}, Geometry: multi(testSRID, square(40, 0, 10))},
		},
	}
}

func TestDissolveMergesTouchingPolygons(t *testing.T) {
	engine := NewEngine(Options{GridSize: 1e-6})
	layer := Layer{
		Name: "water",
		SRID: testSRID,
		Features: []Feature{
			{ID: 1, Geometry: multi(testSRID, square(0, 0, 10))},
			{ID: 2, Geometry: multi(testSRID, square(10, 0, 10))},
			{ID: 3, Geometry: multi(testSRID, square(5, 5, 10))},
		},
	}

	dissolved, err := engine.Dissolve(layer)
	require.NoError(t, err)
	assert.Equal(t, testSRID, dissolved.SRID())
	assert.Equal(t, 1, dissolved.NumPolygons())
	assert.InDelta(t, 200+50, Area(dissolved), 1e-6)
}

func TestDissolveEmptyLayer(t *testing.T) {
	engine := NewEngine(Options{})
	dissolved, err := engine.Dissolve(Layer{Name: "empty", SRID: testSRID})
	require.NoError(t, err)
	assert.Equal(t, 0, dissolved.NumPolygons())
	assert.Equal(t, testSRID, dissolved.SRID())
}

func TestUnionWithEmptyIsIdentity(t *testing.T) {
	engine := NewEngine(Options{})
	a := multi(testSRID, square(0, 0, 10), square(30, 30, 5))

	result, err := engine.Union(a, EmptyGeometry(testSRID))
	require.NoError(t, err)
	assert.Same(t, a, result)

	result, err = engine.Union(EmptyGeometry(testSRID), a)
	require.NoError(t, err)
	assert.Same(t, a, result)
}

func TestUnionOverlapping(t *testing.T) {
	engine := NewEngine(Options{})
	result, err := engine.Union(multi(testSRID, square(0, 0, 10)), multi(testSRID, square(5, 0, 10)))
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumPolygons())
	assert.InDelta(t, 150, Area(result), 1e-6)
}

func TestUnionSRIDMismatch(t *testing.T) {
	engine := NewEngine(Options{})
	_, err := engine.Union(multi(testSRID, square(0, 0, 1)), multi(4326, square(0, 0, 1)))
	var mErr *CoordinateSystemMismatchError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, testSRID, mErr.Expected)
	assert.Equal(t, 4326, mErr.Actual)
}

func TestBuildMaskRejectsMixedSRID(t *testing.T) {
	engine := NewEngine(Options{})
	water := Layer{Name: "water", SRID: testSRID}
	natural := Layer{Name: "orca", SRID: 4326}

	_, err := engine.BuildMask(water, natural)
	var mErr *CoordinateSystemMismatchError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "orca", mErr.Layer)
}

func TestBuildMask(t *testing.T) {
	engine := NewEngine(Options{})
	water := Layer{Name: "water", SRID: testSRID, Features: []Feature{
		{ID: 1, Geometry: multi(testSRID, square(0, 0, 10))},
	}}
	natural := Layer{Name: "orca", SRID: testSRID, Features: []Feature{
		{ID: 1, Geometry: multi(testSRID, square(100, 100, 10))},
		{ID: 2, Geometry: multi(testSRID, square(105, 100, 10))},
	}}

	mask, err := engine.BuildMask(water, natural)
	require.NoError(t, err)
	assert.Equal(t, 2, mask.NumPolygons())
	assert.InDelta(t, 100+150, Area(mask), 1e-6)
}

func TestErase(t *testing.T) {
	engine := NewEngine(Options{Workers: 2})
	// covers parcel 1 fully and half of parcel 2
	mask := multi(testSRID, square(-5, -5, 20), geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{20, -5}, {25, -5}, {25, 15}, {20, 15}, {20, -5},
	}}))

	trimmed, err := engine.Erase(context.Background(), parcels(), mask)
	require.NoError(t, err)

	require.Len(t, trimmed.Features, 2)
	assert.Equal(t, int64(2), trimmed.Features[0].ID)
	assert.Equal(t, "b", trimmed.Features[0].Attributes["owner"])
	assert.InDelta(t, 50, Area(trimmed.Features[0].Geometry), 1e-6)
	assert.Equal(t, int64(3), trimmed.Features[1].ID)
	assert.InDelta(t, 100, Area(trimmed.Features[1].Geometry), 1e-6)
	assert.Equal(t, []string{"owner"}, trimmed.Fields)
}

func TestEraseSelfRemovesEverything(t *testing.T) {
	engine := NewEngine(Options{Workers: 3})
	layer := parcels()

	dissolved, err := engine.Dissolve(layer)
	require.NoError(t, err)
	self_layer := Layer{
		Name:     "dissolved",
		SRID:     testSRID,
		Features: []Feature{{ID: 1, Geometry: dissolved}},
	}

	trimmed, err := engine.Erase(context.Background(), self_layer, dissolved)
	require.NoError(t, err)
	assert.Empty(t, trimmed.Features)

	trimmed, err = engine.Erase(context.Background(), layer, dissolved)
	require.NoError(t, err)
	assert.Empty(t, trimmed.Features)
}

func TestEraseTouchingBoundaries(t *testing.T) {
	engine := NewEngine(Options{GridSize: 1e-9})
	// shares the right edge of parcel 1 exactly
	mask := multi(testSRID, square(10, 0, 10))

	trimmed, err := engine.Erase(context.Background(), parcels(), mask)
	require.NoError(t, err)
	require.Len(t, trimmed.Features, 3)
	for _, feature := range trimmed.Features {
		assert.InDelta(t, 100, Area(feature.Geometry), 1e-6)
	}
}

func TestEraseSRIDMismatch(t *testing.T) {
	engine := NewEngine(Options{})
	_, err := engine.Erase(context.Background(), parcels(), EmptyGeometry(4326))
	var mErr *CoordinateSystemMismatchError
	assert.ErrorAs(t, err, &mErr)
}

func bowtie() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {10, 10}, {10, 0}, {0, 10}, {0, 0},
	}})
}

func TestEraseRepairsBowtie(t *testing.T) {
	engine := NewEngine(Options{RepairInputs: true})
	layer := Layer{Name: "bad", SRID: testSRID, Features: []Feature{
		{ID: 9, Geometry: multi(testSRID, bowtie())},
	}}

	trimmed, err := engine.Erase(context.Background(), layer, multi(testSRID, square(0, 0, 4)))
	require.NoError(t, err)
	require.Len(t, trimmed.Features, 1)
	assert.Less(t, Area(trimmed.Features[0].Geometry), 50.0)
	assert.Greater(t, Area(trimmed.Features[0].Geometry), 0.0)
}

func TestAreaIgnoresOrientation(t *testing.T) {
	clockwise := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
		{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}},
	})
	layer := Layer{Features: []Feature{
		{ID: 1, Geometry: multi(testSRID, clockwise)},
		{ID: 2, Geometry: multi(testSRID, square(20, 0, 10))},
	}}

	assert.InDelta(t, 96, Area(layer.Features[0].Geometry), 1e-9)
	assert.InDelta(t, 196, layer.Area(), 1e-9)
	assert.Equal(t, 0.0, Area(nil))
}

func TestEraseReportsInvalidInputWithoutRepair(t *testing.T) {
	engine := NewEngine(Options{GridSize: 1e-6, Workers: 2})
	layer := parcels()
	layer.Features = append(layer.Features, Feature{ID: 9, Geometry: multi(testSRID, bowtie())})

	_, err := engine.Erase(context.Background(), layer, multi(testSRID, square(0, 0, 4)))
	var vErr *GeometryValidityError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "erase", vErr.Op)
	assert.Equal(t, "taxlots", vErr.Layer)
	assert.Equal(t, int64(9), vErr.Feature)
	assert.NotEmpty(t, vErr.Reason)
}

func TestDissolveReportsInvalidInputWithoutRepair(t *testing.T) {
	engine := NewEngine(Options{})
	layer := Layer{Name: "orca", SRID: testSRID, Features: []Feature{
		{ID: 1, Geometry: multi(testSRID, square(20, 20, 5))},
		{ID: 4, Geometry: multi(testSRID, bowtie())},
	}}

	_, err := engine.Dissolve(layer)
	var vErr *GeometryValidityError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "dissolve", vErr.Op)
	assert.Equal(t, "orca", vErr.Layer)
	assert.Equal(t, int64(4), vErr.Feature)
}

func TestRobustRejectsInvalidResults(t *testing.T) {
	ctx := geos.NewContext()
	invalid, err := ToGEOS(ctx, multi(testSRID, bowtie()))
	require.NoError(t, err)
	valid, err := ToGEOS(ctx, multi(testSRID, square(0, 0, 10)))
	require.NoError(t, err)
	require.False(t, invalid.IsValid())

	returns := func(g *geos.Geom) func() *geos.Geom {
		return func() *geos.Geom { return g }
	}
	prec_calls := []float64{}
	prec := func(g *geos.Geom) func(float64) *geos.Geom {
		return func(grid_size float64) *geos.Geom {
			prec_calls = append(prec_calls, grid_size)
			return g
		}
	}

	// no retry without a grid
	_, err = _Robust("erase", 0, returns(invalid), prec(valid))
	var vErr *GeometryValidityError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "erase", vErr.Op)
	assert.NotEmpty(t, vErr.Reason)
	assert.Empty(t, prec_calls)

	// the retry is invalid as well
	_, err = _Robust("union", 0.5, returns(invalid), prec(invalid))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "union", vErr.Op)
	assert.Equal(t, []float64{0.5}, prec_calls)

	result, err := _Robust("dissolve", 0.5, returns(invalid), prec(valid))
	require.NoError(t, err)
	assert.True(t, result.IsValid())

	// geos failures count as invalid results
	_, err = _Robust("erase", 0, func() *geos.Geom { panic("TopologyException") }, prec(valid))
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "TopologyException")
}

func TestFeatureSRIDMustMatchLayer(t *testing.T) {
	engine := NewEngine(Options{})
	layer := parcels()
	layer.Features[1].Geometry = multi(4326, square(20, 0, 10))

	_, err := engine.Dissolve(layer)
	var mErr *CoordinateSystemMismatchError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "taxlots/2", mErr.Layer)
	assert.Equal(t, testSRID, mErr.Expected)
	assert.Equal(t, 4326, mErr.Actual)

	_, err = engine.Erase(context.Background(), layer, multi(testSRID, square(0, 0, 4)))
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "taxlots/2", mErr.Layer)
}

func TestCheckCoordinateSystems(t *testing.T) {
	water := Layer{Name: "stm_fill", SRID: testSRID, Projection: `PROJCS["Oregon North", UNIT["Foot",0.3048]]`}
	same := Layer{Name: "orca", SRID: testSRID, Projection: "projcs[\"Oregon North\",\n UNIT[\"Foot\",0.3048]]"}
	unknown := Layer{Name: "taxlots", SRID: testSRID}
	other := Layer{Name: "parks", SRID: testSRID, Projection: `GEOGCS["WGS 84"]`}

	assert.NoError(t, CheckCoordinateSystems())
	assert.NoError(t, CheckCoordinateSystems(unknown, water, same))

	err := CheckCoordinateSystems(unknown, water, same, other)
	var mErr *CoordinateSystemMismatchError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "parks", mErr.Layer)
	assert.Equal(t, "stm_fill", mErr.Other)
	assert.Contains(t, err.Error(), "different projection")

	_, err = NewEngine(Options{}).BuildMask(water, other)
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "parks", mErr.Layer)

	err = CheckCoordinateSystems(water, Layer{Name: "wgs", SRID: 4326})
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, 4326, mErr.Actual)
}

func TestForceXYDropsOrdinates(t *testing.T) {
	xyz := geom.NewPolygon(geom.XYZ).MustSetCoords([][]geom.Coord{{
		{0, 0, 5}, {10, 0, 5}, {10, 10, 5}, {0, 0, 5},
	}})
	xy := ForceXY(xyz)
	assert.Equal(t, geom.XY, xy.Layout())
	assert.Equal(t, []float64{0, 0, 10, 0, 10, 10, 0, 0}, xy.FlatCoords())

	p := square(0, 0, 1)
	assert.Same(t, p, ForceXY(p))
}
