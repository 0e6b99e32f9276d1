package graph

import (
	"math"
)

// Dist returns the planar distance between two coordinates.
func Dist(start Coord, end Coord) float64 {
	return math.Hypot(end[0]-start[0], end[1]-start[1])
}

func _LineLength(line []Coord) float64 {
	length := float64(0)
	for i := 0; i < len(line)-1; i++ {
		length += Dist(line[i], line[i+1])
	}
	return length
}

// Projects point onto line.
//
// Returns the distance between point and line and the length along line up to the projected point.
func _ProjectOnLine(line []Coord, point Coord) (float64, float64) {
	best_dist := math.Inf(1)
	best_along := float64(0)
	along := float64(0)
	for i := 0; i < len(line)-1; i++ {
		a := line[i]
		b := line[i+1]
		seg_len := Dist(a, b)
		t := float64(0)
		if seg_len > 0 {
			t = ((point[0]-a[0])*(b[0]-a[0]) + (point[1]-a[1])*(b[1]-a[1])) / (seg_len * seg_len)
			t = math.Max(0, math.Min(1, t))
		}
		proj := Coord{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		dist := Dist(proj, point)
		if dist < best_dist {
			best_dist = dist
			best_along = along + t*seg_len
		}
		along += seg_len
	}
	return best_dist, best_along
}
