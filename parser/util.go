package parser

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/ttpr0/go-walkshed/graph"
)

//*******************************************
// tag utility methods
//*******************************************

func _IsWalkable(str_type string, foot string, access string) bool {
	switch foot {
	case "yes", "designated", "permissive", "official":
		return true
	case "no", "private", "use_sidepath":
		return false
	}
	if no_foot_types[str_type] {
		return false
	}
	if access == "no" || access == "private" {
		return false
	}
	return true
}

func _IsFootOneway(oneway string) bool {
	return oneway == "yes" || oneway == "1" || oneway == "true"
}

func _GetModes(str_type string, walkable bool, tags map[string]string) []graph.TravelMode {
	modes := make([]graph.TravelMode, 0, 3)
	if walkable {
		modes = append(modes, graph.WALKING)
	}
	if (!cycling_excluded[str_type] && tags["bicycle"] != "no") || tags["bicycle"] == "yes" || tags["bicycle"] == "designated" {
		modes = append(modes, graph.CYCLING)
	}
	if driving_types[str_type] && tags["motor_vehicle"] != "no" {
		modes = append(modes, graph.DRIVING)
	}
	return modes
}

//*******************************************
// shapefile utility methods
//*******************************************

func _FieldIndex(fields []shp.Field) map[string]int {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		index[strings.ToLower(name)] = i
	}
	return index
}

// _ReadAttributes types dbf values by their field type.
func _ReadAttributes(reader *shp.Reader, fields []shp.Field) map[string]any {
	attrs := make(map[string]any, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		value := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		attrs[name] = _TypeValue(value, f.Fieldtype, f.Precision)
	}
	return attrs
}

func _TypeValue(value string, fieldtype byte, precision uint8) any {
	switch fieldtype {
	case 'N', 'F':
		if value == "" {
			return nil
		}
		if fieldtype == 'N' && precision == 0 {
			if num, err := strconv.ParseInt(value, 10, 64); err == nil {
				return num
			}
		}
		if num, err := strconv.ParseFloat(value, 64); err == nil {
			return num
		}
		return value
	case 'L':
		switch strings.ToUpper(value) {
		case "T", "Y":
			return true
		case "F", "N":
			return false
		}
		return nil
	}
	return value
}

func _ParseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes":
		return true
	}
	return false
}

func _Parts(parts []int32, points []shp.Point) [][]shp.Point {
	result := make([][]shp.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(points)) {
			continue
		}
		result = append(result, points[start:end])
	}
	return result
}

//*******************************************
// ring utility methods
//*******************************************

func _SignedArea(ring []shp.Point) float64 {
	area := 0.0
	for i := 0; i < len(ring); i++ {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}

func _RingContains(ring []shp.Point, p shp.Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a := ring[i]
		b := ring[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
