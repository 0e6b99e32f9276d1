package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/graph"
)

//*******************************************
// shapefile network parser
//*******************************************

// ParseShapefileNetwork reads a polyline shapefile as a network.
//
// Nodes are created at every distinct part end point, numbered by first
// appearance. Every part of a multi-part record becomes its own edge.
func ParseShapefileNetwork(shp_file string, fields ShapefileNetworkFields) ([]graph.NodeRecord, []graph.EdgeRecord, error) {
	reader, err := shp.Open(shp_file)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "parser: open shapefile %s", shp_file)
	}
	defer func() { _ = reader.Close() }()

	field_index := _FieldIndex(reader.Fields())
	lookup := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		idx, ok := field_index[strings.ToLower(name)]
		if !ok {
			return -1, eris.Errorf("parser: field %q not found in %s", name, shp_file)
		}
		return idx, nil
	}
	id_idx, err := lookup(fields.ID)
	if err != nil {
		return nil, nil, err
	}
	imp_idx, err := lookup(fields.Impedance)
	if err != nil {
		return nil, nil, err
	}
	res_idx, err := lookup(fields.Restricted)
	if err != nil {
		return nil, nil, err
	}
	mode_idx, err := lookup(fields.ModeTags)
	if err != nil {
		return nil, nil, err
	}
	oneway_idx, err := lookup(fields.Oneway)
	if err != nil {
		return nil, nil, err
	}
	attribute := func(idx int) string {
		if idx < 0 {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	nodes := make([]graph.NodeRecord, 0, 1000)
	edges := make([]graph.EdgeRecord, 0, 1000)
	node_ids := make(map[graph.Coord]int64, 1000)
	get_node := func(p shp.Point) int64 {
		c := graph.Coord{p.X, p.Y}
		if id, ok := node_ids[c]; ok {
			return id
		}
		id := int64(len(nodes) + 1)
		node_ids[c] = id
		nodes = append(nodes, graph.NodeRecord{ID: id, X: p.X, Y: p.Y})
		return id
	}

	skipped := 0
	for reader.Next() {
		row, shape := reader.Shape()
		var parts [][]shp.Point
		switch s := shape.(type) {
		case *shp.PolyLine:
			parts = _Parts(s.Parts, s.Points)
		case *shp.PolyLineZ:
			parts = _Parts(s.Parts, s.Points)
		case *shp.PolyLineM:
			parts = _Parts(s.Parts, s.Points)
		default:
			skipped += 1
			continue
		}
		if len(parts) == 0 {
			skipped += 1
			continue
		}

		modes, err := graph.ParseModeTags(attribute(mode_idx))
		if err != nil {
			return nil, nil, eris.Wrapf(err, "parser: mode tags of record %d", row)
		}
		restricted := _ParseFlag(attribute(res_idx))
		oneway := _ParseFlag(attribute(oneway_idx))
		impedance := math.NaN()
		if imp_idx >= 0 {
			impedance, err = strconv.ParseFloat(attribute(imp_idx), 64)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "parser: impedance of record %d", row)
			}
		}
		var id int64
		if id_idx >= 0 {
			if len(parts) > 1 {
				return nil, nil, eris.Errorf("parser: record %d has %d parts, cannot share id field", row, len(parts))
			}
			id, err = strconv.ParseInt(attribute(id_idx), 10, 64)
			if err != nil {
				return nil, nil, eris.Wrapf(err, "parser: id of record %d", row)
			}
		}

		for _, part := range parts {
			coords := make([]graph.Coord, len(part))
			for i, p := range part {
				coords[i] = graph.Coord{p.X, p.Y}
			}
			edge_id := id
			if id_idx < 0 {
				edge_id = int64(len(edges) + 1)
			}
			edge_imp := impedance
			if math.IsNaN(edge_imp) {
				edge_imp = _PlanarLength(coords)
			}
			edges = append(edges, graph.EdgeRecord{
				ID:         edge_id,
				NodeA:      get_node(part[0]),
				NodeB:      get_node(part[len(part)-1]),
				Impedance:  edge_imp,
				Restricted: restricted,
				ModeTags:   modes,
				Oneway:     oneway,
				Geometry:   coords,
			})
		}
	}
	if err := reader.Err(); err != nil {
		return nil, nil, eris.Wrapf(err, "parser: read shapefile %s", shp_file)
	}
	if skipped > 0 {
		zap.L().Warn("skipped non polyline shapefile records", zap.String("file", shp_file), zap.Int("skipped", skipped))
	}
	zap.L().Info("parsed shapefile network",
		zap.String("file", shp_file),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return nodes, edges, nil
}

func _PlanarLength(coords []graph.Coord) float64 {
	length := 0.0
	for i := 1; i < len(coords); i++ {
		length += math.Hypot(coords[i][0]-coords[i-1][0], coords[i][1]-coords[i-1][1])
	}
	return length
}
