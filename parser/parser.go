package parser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/graph"
)

// ParseOSM reads a pedestrian network from an osm pbf or xml extract.
//
// Ways are split at every node shared with another way. Node ids are the osm
// node ids, edge ids are assigned in way order. Coordinates stay in lon/lat and
// impedances are geodesic meters times opts.ImpedanceScale.
func ParseOSM(ctx context.Context, osm_file string, decoder IOSMDecoder, opts OSMOptions) ([]graph.NodeRecord, []graph.EdgeRecord, error) {
	if opts.ImpedanceScale <= 0 {
		opts.ImpedanceScale = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(-1)
	}
	file, err := os.Open(osm_file)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "parser: open %s", osm_file)
	}
	defer file.Close()

	osm_nodes := make(map[int64]TempNode, 1000)
	nodes := make([]graph.NodeRecord, 0, 1000)
	edges := make([]graph.EdgeRecord, 0, 1000)

	passes := []func(OSMScanner) error{
		func(scanner OSMScanner) error {
			return _InitWayHandler(scanner, decoder, osm_nodes)
		},
		func(scanner OSMScanner) error {
			return _NodeHandler(scanner, osm_nodes, &nodes)
		},
		func(scanner OSMScanner) error {
			return _WayHandler(scanner, decoder, opts, osm_nodes, &edges)
		},
	}
	for i, pass := range passes {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return nil, nil, eris.Wrapf(err, "parser: rewind %s", osm_file)
		}
		scanner, err := _OpenScanner(ctx, osm_file, file, i != 1, i == 1, opts.Workers)
		if err != nil {
			return nil, nil, err
		}
		err = pass(scanner)
		scanner.Close()
		if err != nil {
			return nil, nil, eris.Wrapf(err, "parser: scan %s", osm_file)
		}
	}
	zap.L().Info("parsed osm network",
		zap.String("file", osm_file),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
	)
	return nodes, edges, nil
}

func _OpenScanner(ctx context.Context, filename string, file io.Reader, skip_nodes, skip_ways bool, workers int) (OSMScanner, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".pbf"):
		scanner := osmpbf.New(ctx, file, workers)
		scanner.SkipNodes = skip_nodes
		scanner.SkipWays = skip_ways
		scanner.SkipRelations = true
		return scanner, nil
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return osmxml.New(ctx, file), nil
	}
	return nil, eris.Errorf("parser: unsupported osm file extension %q", filepath.Ext(filename))
}

//*******************************************
// osm handler methods
//*******************************************

func _InitWayHandler(scanner OSMScanner, decoder IOSMDecoder, osm_nodes map[int64]TempNode) error {
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Way:
			tags := object.TagMap()
			if !decoder.IsValidHighway(tags) {
				continue
			}
			node_ids := object.Nodes.NodeIDs()
			l := len(node_ids)
			if l < 2 {
				continue
			}
			for i := 0; i < l; i++ {
				ndref := int64(node_ids[i])
				node := osm_nodes[ndref]
				node.Count += 1
				osm_nodes[ndref] = node
			}
			// way ends always become graph nodes
			for _, ndref := range []int64{int64(node_ids[0]), int64(node_ids[l-1])} {
				node := osm_nodes[ndref]
				node.Count += 1
				osm_nodes[ndref] = node
			}
		default:
			continue
		}
	}
	return scanner.Err()
}

func _NodeHandler(scanner OSMScanner, osm_nodes map[int64]TempNode, nodes *[]graph.NodeRecord) error {
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Node:
			id := int64(object.ID)
			on, ok := osm_nodes[id]
			if !ok {
				continue
			}
			if on.Count > 1 {
				*nodes = append(*nodes, graph.NodeRecord{ID: id, X: object.Lon, Y: object.Lat})
			}
			on.Point = graph.Coord{object.Lon, object.Lat}
			on.Found = true
			osm_nodes[id] = on
		default:
			continue
		}
	}
	return scanner.Err()
}

func _WayHandler(scanner OSMScanner, decoder IOSMDecoder, opts OSMOptions, osm_nodes map[int64]TempNode, edges *[]graph.EdgeRecord) error {
	skipped := 0
	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Way:
			tags := object.TagMap()
			if !decoder.IsValidHighway(tags) {
				continue
			}
			node_ids := object.Nodes.NodeIDs()
			if len(node_ids) < 2 {
				continue
			}
			if !_AllFound(node_ids, osm_nodes) {
				skipped += 1
				continue
			}
			attr := decoder.DecodeEdge(tags)

			start := int64(node_ids[0])
			line := orb.LineString{}
			coords := make([]graph.Coord, 0, 2)
			for i, ndref := range node_ids {
				curr := int64(ndref)
				on := osm_nodes[curr]
				line = append(line, orb.Point{on.Point[0], on.Point[1]})
				coords = append(coords, on.Point)
				if i == 0 || on.Count <= 1 {
					continue
				}
				*edges = append(*edges, graph.EdgeRecord{
					ID:         int64(len(*edges) + 1),
					NodeA:      start,
					NodeB:      curr,
					Impedance:  geo.Length(line) * opts.ImpedanceScale,
					Restricted: attr.Restricted,
					ModeTags:   attr.Modes,
					Oneway:     attr.Oneway,
					Geometry:   coords,
				})
				start = curr
				line = orb.LineString{line[len(line)-1]}
				coords = []graph.Coord{on.Point}
			}
		default:
			continue
		}
	}
	if skipped > 0 {
		zap.L().Warn("skipped ways with nodes missing from the extract", zap.Int("ways", skipped))
	}
	return scanner.Err()
}

func _AllFound(node_ids []osm.NodeID, osm_nodes map[int64]TempNode) bool {
	for _, ndref := range node_ids {
		if !osm_nodes[int64(ndref)].Found {
			return false
		}
	}
	return true
}

//*******************************************
// osm decoder
//*******************************************

type IOSMDecoder interface {
	IsValidHighway(tags map[string]string) bool
	DecodeEdge(tags map[string]string) EdgeAttribs
}
