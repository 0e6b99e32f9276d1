package parser

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/overlay"
)

//*******************************************
// polygon layer parsers
//*******************************************

// ParseLayer reads a polygon layer from a shapefile or a geojson feature collection.
//
// Feature ids come from id_field if given, otherwise from the record position
// starting at 1. The projection of the source (.prj file or geojson crs member)
// is kept on the layer. If it names an EPSG code other than srid a
// CoordinateSystemMismatchError is returned.
func ParseLayer(file string, name string, srid int, id_field string) (overlay.Layer, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".shp":
		return ParseLayerShapefile(file, name, srid, id_field)
	case ".geojson", ".json":
		return ParseLayerGeoJSON(file, name, srid, id_field)
	}
	return overlay.Layer{}, eris.Errorf("parser: unsupported layer format %q", filepath.Ext(file))
}

func ParseLayerShapefile(shp_file string, name string, srid int, id_field string) (overlay.Layer, error) {
	projection, err := ReadProjection(shp_file)
	if err != nil {
		return overlay.Layer{}, err
	}
	if err := _CheckProjection(name, projection, srid); err != nil {
		return overlay.Layer{}, err
	}
	reader, err := shp.Open(shp_file)
	if err != nil {
		return overlay.Layer{}, eris.Wrapf(err, "parser: open shapefile %s", shp_file)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	id_name := ""
	if id_field != "" {
		idx, ok := _FieldIndex(fields)[strings.ToLower(id_field)]
		if !ok {
			return overlay.Layer{}, eris.Errorf("parser: field %q not found in %s", id_field, shp_file)
		}
		id_name = strings.TrimRight(fields[idx].String(), "\x00")
	}
	layer := overlay.Layer{
		Name:       name,
		SRID:       srid,
		Projection: projection,
		Fields:     make([]string, len(fields)),
		Features:   make([]overlay.Feature, 0, 100),
	}
	for i, f := range fields {
		layer.Fields[i] = strings.TrimRight(f.String(), "\x00")
	}

	skipped := 0
	for reader.Next() {
		row, shape := reader.Shape()
		var parts [][]shp.Point
		switch s := shape.(type) {
		case *shp.Polygon:
			parts = _Parts(s.Parts, s.Points)
		case *shp.PolygonZ:
			parts = _Parts(s.Parts, s.Points)
		case *shp.PolygonM:
			parts = _Parts(s.Parts, s.Points)
		default:
			skipped += 1
			continue
		}
		polygon, err := _RingsToMultiPolygon(parts, srid)
		if err != nil {
			return overlay.Layer{}, eris.Wrapf(err, "parser: geometry of record %d in %s", row, shp_file)
		}
		attrs := _ReadAttributes(reader, fields)
		id, err := _FeatureID(attrs, id_name, row)
		if err != nil {
			return overlay.Layer{}, eris.Wrapf(err, "parser: id of record %d in %s", row, shp_file)
		}
		layer.Features = append(layer.Features, overlay.Feature{ID: id, Attributes: attrs, Geometry: polygon})
	}
	if err := reader.Err(); err != nil {
		return overlay.Layer{}, eris.Wrapf(err, "parser: read shapefile %s", shp_file)
	}
	if skipped > 0 {
		zap.L().Warn("skipped non polygon records", zap.String("layer", name), zap.Int("skipped", skipped))
	}
	zap.L().Info("parsed layer", zap.String("layer", name), zap.String("file", shp_file), zap.Int("features", layer.Len()))
	return layer, nil
}

func ParseLayerGeoJSON(json_file string, name string, srid int, id_field string) (overlay.Layer, error) {
	data, err := os.ReadFile(json_file)
	if err != nil {
		return overlay.Layer{}, eris.Wrapf(err, "parser: read %s", json_file)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return overlay.Layer{}, eris.Wrapf(err, "parser: decode %s", json_file)
	}
	var crs _GeoJSONCRS
	if err := json.Unmarshal(data, &crs); err != nil {
		return overlay.Layer{}, eris.Wrapf(err, "parser: decode crs of %s", json_file)
	}
	projection := ""
	if crs.CRS != nil {
		projection = crs.CRS.Properties.Name
	}
	if err := _CheckProjection(name, projection, srid); err != nil {
		return overlay.Layer{}, err
	}

	layer := overlay.Layer{
		Name:       name,
		SRID:       srid,
		Projection: projection,
		Features:   make([]overlay.Feature, 0, len(fc.Features)),
	}
	seen := make(map[string]bool)
	for i, f := range fc.Features {
		var polygon *geom.MultiPolygon
		switch g := f.Geometry.(type) {
		case *geom.Polygon:
			polygon = geom.NewMultiPolygon(geom.XY)
			if err := polygon.Push(overlay.ForceXY(g)); err != nil {
				return overlay.Layer{}, eris.Wrapf(err, "parser: geometry of feature %d in %s", i, json_file)
			}
		case *geom.MultiPolygon:
			polygon = geom.NewMultiPolygon(geom.XY)
			for p := 0; p < g.NumPolygons(); p++ {
				if err := polygon.Push(overlay.ForceXY(g.Polygon(p))); err != nil {
					return overlay.Layer{}, eris.Wrapf(err, "parser: geometry of feature %d in %s", i, json_file)
				}
			}
		default:
			zap.L().Warn("skipped non polygon feature", zap.String("layer", name), zap.Int("feature", i))
			continue
		}
		polygon.SetSRID(srid)

		attrs := f.Properties
		if attrs == nil {
			attrs = make(map[string]any)
		}
		for k := range attrs {
			if !seen[k] {
				seen[k] = true
				layer.Fields = append(layer.Fields, k)
			}
		}
		var id int64
		if id_field == "" && f.ID != "" {
			id, err = strconv.ParseInt(f.ID, 10, 64)
		} else {
			id, err = _FeatureID(attrs, id_field, i)
		}
		if err != nil {
			return overlay.Layer{}, eris.Wrapf(err, "parser: id of feature %d in %s", i, json_file)
		}
		layer.Features = append(layer.Features, overlay.Feature{ID: id, Attributes: attrs, Geometry: polygon})
	}
	zap.L().Info("parsed layer", zap.String("layer", name), zap.String("file", json_file), zap.Int("features", layer.Len()))
	return layer, nil
}

//*******************************************
// projections
//*******************************************

type _GeoJSONCRS struct {
	CRS *struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

// ReadProjection returns the wkt of the .prj file next to a shapefile, "" if there is none.
func ReadProjection(shp_file string) (string, error) {
	base := strings.TrimSuffix(shp_file, filepath.Ext(shp_file))
	for _, ext := range []string{".prj", ".PRJ"} {
		data, err := os.ReadFile(base + ext)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", eris.Wrapf(err, "parser: read projection of %s", shp_file)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", nil
}

var (
	// outermost authority of a wkt definition, AUTHORITY in wkt1 and ID in wkt2
	wkt_authority = regexp.MustCompile(`(?i)(?:AUTHORITY|ID)\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]\s*\]\s*$`)
	// urn:ogc:def:crs:EPSG::2913 and EPSG:2913
	crs_name = regexp.MustCompile(`(?i)EPSG:(?:[\d.]*:)?(\d+)$`)
)

// ProjectionSRID extracts the EPSG code of a wkt or geojson crs name.
//
// The second return value is false if the definition names no EPSG code. ESRI
// style .prj files never do.
func ProjectionSRID(projection string) (int, bool) {
	projection = strings.TrimSpace(projection)
	if projection == "" {
		return 0, false
	}
	if strings.HasSuffix(strings.ToUpper(projection), "CRS84") {
		return 4326, true
	}
	for _, re := range []*regexp.Regexp{wkt_authority, crs_name} {
		if m := re.FindStringSubmatch(projection); m != nil {
			code, err := strconv.Atoi(m[1])
			if err == nil {
				return code, true
			}
		}
	}
	return 0, false
}

func _CheckProjection(layer string, projection string, srid int) error {
	code, ok := ProjectionSRID(projection)
	if ok && code != srid {
		return &overlay.CoordinateSystemMismatchError{Layer: layer, Expected: srid, Actual: code}
	}
	return nil
}

func _FeatureID(attrs map[string]any, id_field string, row int) (int64, error) {
	if id_field == "" {
		return int64(row + 1), nil
	}
	switch v := attrs[id_field].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	}
	return 0, eris.Errorf("parser: unusable feature id %v", attrs[id_field])
}

// _RingsToMultiPolygon groups shapefile rings into polygons.
//
// Clockwise rings are shells. Every other ring is a hole of the last shell
// containing its first vertex, or a shell of its own if none does.
func _RingsToMultiPolygon(rings [][]shp.Point, srid int) (*geom.MultiPolygon, error) {
	type _Shell struct {
		ring  []shp.Point
		holes [][]shp.Point
	}
	shells := make([]*_Shell, 0, len(rings))
	holes := make([][]shp.Point, 0)
	for _, ring := range rings {
		if len(ring) < 4 {
			continue
		}
		if _SignedArea(ring) < 0 {
			shells = append(shells, &_Shell{ring: ring})
		} else {
			holes = append(holes, ring)
		}
	}
	for _, hole := range holes {
		var owner *_Shell
		for _, shell := range shells {
			if _RingContains(shell.ring, hole[0]) {
				owner = shell
			}
		}
		if owner == nil {
			shells = append(shells, &_Shell{ring: hole})
		} else {
			owner.holes = append(owner.holes, hole)
		}
	}

	result := geom.NewMultiPolygon(geom.XY)
	for _, shell := range shells {
		polygon := geom.NewPolygon(geom.XY)
		for _, ring := range append([][]shp.Point{shell.ring}, shell.holes...) {
			flat := make([]float64, 0, len(ring)*2)
			for _, p := range ring {
				flat = append(flat, p.X, p.Y)
			}
			if err := polygon.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
				return nil, err
			}
		}
		if err := result.Push(polygon); err != nil {
			return nil, err
		}
	}
	result.SetSRID(srid)
	return result, nil
}
