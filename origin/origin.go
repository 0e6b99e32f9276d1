package origin

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

//*******************************************
// origins
//*******************************************

// Origin is an input location with pass-through attributes.
type Origin struct {
	ID         string
	X          float64
	Y          float64
	Attributes map[string]any
}

// With returns a copy of the origin with key set to value.
//
// The attribute map of the receiver is never modified.
func (self Origin) With(key string, value any) Origin {
	attrs := make(map[string]any, len(self.Attributes)+1)
	for k, v := range self.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	self.Attributes = attrs
	return self
}

// Attribute returns the trimmed string form of an attribute, "" if it is missing.
func (self Origin) Attribute(key string) string {
	value, ok := self.Attributes[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// Index maps origin ids to origins. The first origin wins for repeated ids.
func Index(origins []Origin) map[string]Origin {
	index := make(map[string]Origin, len(origins))
	for _, o := range origins {
		if _, ok := index[o.ID]; ok {
			continue
		}
		index[o.ID] = o
	}
	return index
}

//*******************************************
// selection
//*******************************************

// Selection filters origins by attribute membership.
type Selection struct {
	Field  string
	Values []string
	// keep origins NOT matching the values
	Negate bool
}

// Apply returns the selected origins in input order.
//
// An empty field selects every origin.
func (self Selection) Apply(origins []Origin) []Origin {
	selected := make([]Origin, 0, len(origins))
	for _, o := range origins {
		if self.Matches(o) {
			selected = append(selected, o)
		}
	}
	return selected
}

func (self Selection) Matches(o Origin) bool {
	if self.Field == "" {
		return true
	}
	contained := slices.Contains(self.Values, o.Attribute(self.Field))
	return contained != self.Negate
}
