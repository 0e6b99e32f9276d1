package parser

// FootDecoder keeps every highway a pedestrian could use and marks the ones
// closed to pedestrians as restricted.
type FootDecoder struct {
}

var foot_types = map[string]bool{"footway": true, "pedestrian": true, "path": true, "steps": true, "corridor": true,
	"living_street": true, "residential": true, "service": true, "track": true, "unclassified": true, "road": true,
	"cycleway": true, "bridleway": true, "tertiary": true, "tertiary_link": true, "secondary": true, "secondary_link": true,
	"primary": true, "primary_link": true, "trunk": true, "trunk_link": true}

var no_foot_types = map[string]bool{"motorway": true, "motorway_link": true, "bus_guideway": true, "raceway": true, "busway": true}

var driving_types = map[string]bool{"motorway": true, "motorway_link": true, "trunk": true, "trunk_link": true,
	"primary": true, "primary_link": true, "secondary": true, "secondary_link": true, "tertiary": true, "tertiary_link": true,
	"residential": true, "living_street": true, "service": true, "track": true, "unclassified": true, "road": true}

var cycling_excluded = map[string]bool{"footway": true, "pedestrian": true, "steps": true, "corridor": true,
	"motorway": true, "motorway_link": true, "bridleway": true}

func (self *FootDecoder) IsValidHighway(tags map[string]string) bool {
	typ, ok := tags["highway"]
	if !ok {
		return false
	}
	if tags["area"] == "yes" {
		return false
	}
	return foot_types[typ] || no_foot_types[typ]
}

func (self *FootDecoder) DecodeEdge(tags map[string]string) EdgeAttribs {
	str_type := tags["highway"]
	e := EdgeAttribs{}
	walkable := _IsWalkable(str_type, tags["foot"], tags["access"])
	e.Restricted = !walkable
	e.Oneway = _IsFootOneway(tags["oneway:foot"])
	e.Modes = _GetModes(str_type, walkable, tags)
	return e
}
