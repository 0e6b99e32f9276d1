package overlay

import (
	"fmt"
)

// CoordinateSystemMismatchError is returned if overlay inputs do not share one
// coordinate system.
type CoordinateSystemMismatchError struct {
	Layer    string
	Expected int
	Actual   int
	// layer whose projection definition differs from Layer, srids are unset then
	Other string
}

func (e *CoordinateSystemMismatchError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("overlay: layer %q has a different projection than %q", e.Layer, e.Other)
	}
	return fmt.Sprintf("overlay: layer %q has srid %d, expected %d", e.Layer, e.Actual, e.Expected)
}

// GeometryValidityError is returned if an overlay or buffer result has invalid topology
// even after the fixed-precision retry.
type GeometryValidityError struct {
	Op      string
	Layer   string
	Feature int64
	Reason  string
}

func (e *GeometryValidityError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("overlay: %s produced invalid geometry: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("overlay: %s produced invalid geometry for %s/%d: %s", e.Op, e.Layer, e.Feature, e.Reason)
}
