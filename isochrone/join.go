package isochrone

import (
	"fmt"
	"strings"

	"github.com/ttpr0/go-walkshed/origin"
)

// MissingOriginError is returned if an isochrone has no matching origin record.
type MissingOriginError struct {
	OriginID string
}

func (e *MissingOriginError) Error() string {
	return fmt.Sprintf("isochrone: no origin record for id %q", e.OriginID)
}

// Join copies origin attributes onto isochrones by origin id.
//
// Only the listed fields are copied, all attributes if fields is empty. String
// values are trimmed of surrounding whitespace. Isochrones are not modified.
func Join(isochrones []Isochrone, origins map[string]origin.Origin, fields []string) ([]Isochrone, error) {
	joined := make([]Isochrone, len(isochrones))
	for i, iso := range isochrones {
		o, ok := origins[iso.OriginID]
		if !ok {
			return nil, &MissingOriginError{OriginID: iso.OriginID}
		}
		attrs := make(map[string]any, len(iso.Attributes)+len(o.Attributes))
		for k, v := range iso.Attributes {
			attrs[k] = v
		}
		if len(fields) == 0 {
			for k, v := range o.Attributes {
				attrs[k] = _Trim(v)
			}
		} else {
			for _, field := range fields {
				if v, ok := o.Attributes[field]; ok {
					attrs[field] = _Trim(v)
				} else {
					attrs[field] = nil
				}
			}
		}
		iso.Attributes = attrs
		joined[i] = iso
	}
	return joined, nil
}

func _Trim(value any) any {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}
