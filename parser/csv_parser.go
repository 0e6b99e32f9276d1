package parser

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/util"
)

//*******************************************
// csv network parser
//*******************************************

// ParseCSVNetwork reads node and edge tables.
//
// nodes: id, x, y
// edges: id, node_a, node_b, impedance, restricted, mode_tags, oneway, geometry (wkt linestring)
func ParseCSVNetwork(nodes_file string, edges_file string, delimiter rune) ([]graph.NodeRecord, []graph.EdgeRecord, error) {
	csv_nodes, err := util.ReadCSVFromFile[_CSVNode](nodes_file, delimiter)
	if err != nil {
		return nil, nil, eris.Wrap(err, "parser: read network nodes")
	}
	csv_edges, err := util.ReadCSVFromFile[_CSVEdge](edges_file, delimiter)
	if err != nil {
		return nil, nil, eris.Wrap(err, "parser: read network edges")
	}

	nodes := make([]graph.NodeRecord, len(csv_nodes))
	for i, n := range csv_nodes {
		nodes[i] = graph.NodeRecord{ID: n.ID, X: n.X, Y: n.Y}
	}
	edges := make([]graph.EdgeRecord, len(csv_edges))
	for i, e := range csv_edges {
		modes, err := graph.ParseModeTags(e.ModeTags)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "parser: mode tags of edge %d", e.ID)
		}
		line, err := _ParseLineWKT(e.Geometry)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "parser: geometry of edge %d", e.ID)
		}
		edges[i] = graph.EdgeRecord{
			ID:         e.ID,
			NodeA:      e.NodeA,
			NodeB:      e.NodeB,
			Impedance:  e.Impedance,
			Restricted: e.Restricted,
			ModeTags:   modes,
			Oneway:     e.Oneway,
			Geometry:   line,
		}
	}
	zap.L().Info("parsed csv network",
		zap.String("nodes_file", nodes_file),
		zap.String("edges_file", edges_file),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return nodes, edges, nil
}

func _ParseLineWKT(value string) ([]graph.Coord, error) {
	if value == "" {
		return nil, nil
	}
	g, err := wkt.Unmarshal(value)
	if err != nil {
		return nil, err
	}
	line, ok := g.(*geom.LineString)
	if !ok {
		return nil, eris.Errorf("parser: expected LINESTRING, got %T", g)
	}
	coords := make([]graph.Coord, line.NumCoords())
	for i := range coords {
		c := line.Coord(i)
		coords[i] = graph.Coord{c.X(), c.Y()}
	}
	return coords, nil
}
