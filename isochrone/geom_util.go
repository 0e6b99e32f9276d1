package isochrone

import (
	"github.com/ttpr0/go-walkshed/graph"
)

func _PointInDist(start graph.Coord, end graph.Coord, dist float64) graph.Coord {
	dx := end[0] - start[0]
	dy := end[1] - start[1]
	d := graph.Dist(start, end)
	if d == 0 {
		return start
	}
	return graph.Coord{start[0] + dx*dist/d, start[1] + dy*dist/d}
}

// Cuts the part between the fractions from and to out of line.
//
// Fractions are relative to the geometric length of the line.
func _LineSubstring(line []graph.Coord, from float64, to float64) []graph.Coord {
	total_length := float64(0)
	for i := 0; i < len(line)-1; i++ {
		total_length += graph.Dist(line[i], line[i+1])
	}
	if total_length == 0 {
		return []graph.Coord{line[0], line[len(line)-1]}
	}
	start := from * total_length
	end := to * total_length

	sub := make([]graph.Coord, 0, len(line))
	length := float64(0)
	for i := 0; i < len(line)-1; i++ {
		curr_start := line[i]
		curr_end := line[i+1]
		curr_len := graph.Dist(curr_start, curr_end)
		next_length := length + curr_len
		if next_length < start || curr_len == 0 || (next_length == start && i < len(line)-2) {
			length = next_length
			continue
		}
		if len(sub) == 0 {
			sub = append(sub, _PointInDist(curr_start, curr_end, start-length))
		}
		if next_length >= end {
			sub = append(sub, _PointInDist(curr_start, curr_end, end-length))
			break
		}
		sub = append(sub, curr_end)
		length = next_length
	}
	switch len(sub) {
	case 0:
		last := line[len(line)-1]
		sub = append(sub, last, last)
	case 1:
		sub = append(sub, sub[0])
	}
	return sub
}
