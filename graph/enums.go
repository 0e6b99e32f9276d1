package graph

import (
	"strings"

	"github.com/rotisserie/eris"
)

//*******************************************
// enums
//*******************************************

type TravelMode string

const (
	WALKING TravelMode = "foot"
	CYCLING TravelMode = "bicycle"
	DRIVING TravelMode = "motor_vehicle"
)

func TravelModeFromString(value string) (TravelMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "foot", "walking", "pedestrian":
		return WALKING, nil
	case "bicycle", "cycling", "bike":
		return CYCLING, nil
	case "motor_vehicle", "driving", "car":
		return DRIVING, nil
	}
	return "", eris.Errorf("graph: unknown travel mode %q", value)
}

// ParseModeTags splits a delimited tag list like "foot;bicycle".
func ParseModeTags(value string) ([]TravelMode, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ';' || r == ',' || r == '|' || r == ' '
	})
	modes := make([]TravelMode, 0, len(tokens))
	for _, token := range tokens {
		mode, err := TravelModeFromString(token)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}
