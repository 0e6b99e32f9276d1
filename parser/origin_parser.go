package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/origin"
	"github.com/ttpr0/go-walkshed/util"
)

//*******************************************
// origin parsers
//*******************************************

// ParseOriginsCSV reads origins from a delimited table.
//
// Every column except the coordinates is kept as a string attribute.
func ParseOriginsCSV(csv_file string, delimiter rune, fields OriginFields) ([]origin.Origin, error) {
	fields = _DefaultOriginFields(fields)
	table, err := util.ReadCSVTableFromFile(csv_file, delimiter)
	if err != nil {
		return nil, eris.Wrap(err, "parser: read origins")
	}
	id_col := table.Column(fields.ID)
	x_col := table.Column(fields.X)
	y_col := table.Column(fields.Y)
	if id_col < 0 || x_col < 0 || y_col < 0 {
		return nil, eris.Errorf("parser: origins %s need columns %q, %q and %q", csv_file, fields.ID, fields.X, fields.Y)
	}

	origins := make([]origin.Origin, 0, len(table.Rows))
	for i, record := range table.Rows {
		x, err := strconv.ParseFloat(strings.TrimSpace(record[x_col]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parser: x of origin record %d", i+1)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(record[y_col]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parser: y of origin record %d", i+1)
		}
		attrs := make(map[string]any, len(table.Header))
		for c, name := range table.Header {
			if c == x_col || c == y_col {
				continue
			}
			attrs[name] = record[c]
		}
		origins = append(origins, origin.Origin{
			ID:         strings.TrimSpace(record[id_col]),
			X:          x,
			Y:          y,
			Attributes: attrs,
		})
	}
	zap.L().Info("parsed origins", zap.String("file", csv_file), zap.Int("origins", len(origins)))
	return origins, nil
}

// ParseOriginsShapefile reads origins from a point shapefile.
//
// Attributes are typed by their dbf field type. Records without point geometry
// are skipped.
func ParseOriginsShapefile(shp_file string, id_field string) ([]origin.Origin, error) {
	reader, err := shp.Open(shp_file)
	if err != nil {
		return nil, eris.Wrapf(err, "parser: open shapefile %s", shp_file)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	id_idx, ok := _FieldIndex(fields)[strings.ToLower(id_field)]
	if !ok {
		return nil, eris.Errorf("parser: field %q not found in %s", id_field, shp_file)
	}

	origins := make([]origin.Origin, 0, 100)
	skipped := 0
	for reader.Next() {
		_, shape := reader.Shape()
		var x, y float64
		switch s := shape.(type) {
		case *shp.Point:
			x, y = s.X, s.Y
		case *shp.PointZ:
			x, y = s.X, s.Y
		case *shp.PointM:
			x, y = s.X, s.Y
		default:
			skipped += 1
			continue
		}
		attrs := _ReadAttributes(reader, fields)
		origins = append(origins, origin.Origin{
			ID:         _FormatID(attrs[strings.TrimRight(fields[id_idx].String(), "\x00")]),
			X:          x,
			Y:          y,
			Attributes: attrs,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "parser: read shapefile %s", shp_file)
	}
	if skipped > 0 {
		zap.L().Warn("skipped non point origin records", zap.String("file", shp_file), zap.Int("skipped", skipped))
	}
	zap.L().Info("parsed origins", zap.String("file", shp_file), zap.Int("origins", len(origins)))
	return origins, nil
}

func _DefaultOriginFields(fields OriginFields) OriginFields {
	if fields.ID == "" {
		fields.ID = "id"
	}
	if fields.X == "" {
		fields.X = "x"
	}
	if fields.Y == "" {
		fields.Y = "y"
	}
	return fields
}

func _FormatID(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}
