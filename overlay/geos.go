package overlay

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

//*******************************************
// go-geom <-> geos bridge
//*******************************************

// ToGEOS copies g into a geometry owned by ctx.
func ToGEOS(ctx *geos.Context, g geom.T) (*geos.Geom, error) {
	if mp, ok := g.(*geom.MultiPolygon); ok && mp == nil {
		g = geom.NewMultiPolygon(geom.XY)
	}
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "overlay: encode wkb")
	}
	return FromWKB(ctx, data)
}

// FromWKB parses a WKB buffer into a geometry owned by ctx.
func FromWKB(ctx *geos.Context, data []byte) (*geos.Geom, error) {
	gg, err := ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, eris.Wrap(err, "overlay: decode wkb")
	}
	return gg, nil
}

// FromGEOS extracts the polygonal part of g as a multipolygon.
//
// Lines and points of mixed collections are discarded.
func FromGEOS(g *geos.Geom, srid int) (*geom.MultiPolygon, error) {
	mp := EmptyGeometry(srid)
	if g == nil || g.IsEmpty() {
		return mp, nil
	}
	t, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "overlay: decode geos result")
	}
	if err := _CollectPolygons(mp, t); err != nil {
		return nil, err
	}
	return mp, nil
}

func _CollectPolygons(mp *geom.MultiPolygon, t geom.T) error {
	switch g := t.(type) {
	case *geom.Polygon:
		if g.Empty() {
			return nil
		}
		if err := mp.Push(ForceXY(g)); err != nil {
			return eris.Wrap(err, "overlay: collect polygon")
		}
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			if err := _CollectPolygons(mp, g.Polygon(i)); err != nil {
				return err
			}
		}
	case *geom.GeometryCollection:
		for _, child := range g.Geoms() {
			if err := _CollectPolygons(mp, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForceXY drops all but the x and y ordinates of p.
func ForceXY(p *geom.Polygon) *geom.Polygon {
	if p.Layout() == geom.XY {
		return p
	}
	rings := p.Coords()
	flat := make([][]geom.Coord, len(rings))
	for i, ring := range rings {
		flat[i] = make([]geom.Coord, len(ring))
		for j, c := range ring {
			flat[i][j] = geom.Coord{c.X(), c.Y()}
		}
	}
	return geom.NewPolygon(geom.XY).MustSetCoords(flat)
}

// Runs a GEOS operation and converts a GEOS panic into an error.
func _Try(op func() *geos.Geom) (result *geos.Geom, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("overlay: geos: %v", r)
		}
	}()
	return op(), nil
}

// Runs op and retries with prec if op fails or yields invalid topology.
//
// prec is skipped if grid_size is not positive.
func _Robust(op_name string, grid_size float64, op func() *geos.Geom, prec func(grid_size float64) *geos.Geom) (*geos.Geom, error) {
	result, err := _Try(op)
	if err == nil && result.IsValid() {
		return result, nil
	}
	reason := ""
	if err != nil {
		reason = err.Error()
	} else {
		reason = result.IsValidReason()
	}
	if grid_size > 0 {
		result, err = _Try(func() *geos.Geom {
			return prec(grid_size)
		})
		if err == nil && result.IsValid() {
			return result, nil
		}
		if err != nil {
			reason = err.Error()
		} else {
			reason = result.IsValidReason()
		}
	}
	return nil, &GeometryValidityError{Op: op_name, Reason: reason}
}

// Repairs g with MakeValid keeping only the polygonal part.
func _Repair(ctx *geos.Context, g *geos.Geom) (*geos.Geom, error) {
	if g.IsValid() {
		return g, nil
	}
	fixed, err := _Try(g.MakeValid)
	if err != nil {
		return nil, err
	}
	parts := make([]*geos.Geom, 0, fixed.NumGeometries())
	_ExtractPolygonal(fixed, &parts)
	return ctx.NewCollection(geos.TypeIDMultiPolygon, parts), nil
}

func _ExtractPolygonal(g *geos.Geom, parts *[]*geos.Geom) {
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		if !g.IsEmpty() {
			*parts = append(*parts, g.Clone())
		}
	case geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		for i := 0; i < g.NumGeometries(); i++ {
			_ExtractPolygonal(g.Geometry(i), parts)
		}
	}
}
