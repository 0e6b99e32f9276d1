package origin

import (
	"strings"

	"golang.org/x/exp/slices"
)

// YearRule assigns an inception year to origins served by one of the given routes.
type YearRule struct {
	RoutesContains []string `yaml:"routes_contains" mapstructure:"routes_contains"`
	ZonesIn        []string `yaml:"zones_in" mapstructure:"zones_in"`
	ZonesNotIn     []string `yaml:"zones_not_in" mapstructure:"zones_not_in"`
	Year           int      `yaml:"year" mapstructure:"year"`
}

func (self YearRule) Matches(routes string, zone string) bool {
	served := false
	for _, route := range self.RoutesContains {
		if strings.Contains(routes, route) {
			served = true
			break
		}
	}
	if !served {
		return false
	}
	if len(self.ZonesIn) > 0 && !slices.Contains(self.ZonesIn, zone) {
		return false
	}
	return !slices.Contains(self.ZonesNotIn, zone)
}

// DefaultYearRules are the decision-to-build years of the light rail lines.
// Stops on several lines get the year of the oldest one.
func DefaultYearRules() []YearRule {
	suburbs := []string{"West Suburbs", "Southwest Portland"}
	return []YearRule{
		{RoutesContains: []string{":MAX Blue Line:"}, ZonesNotIn: suburbs, Year: 1980},
		{RoutesContains: []string{":MAX Blue Line:"}, ZonesIn: suburbs, Year: 1990},
		{RoutesContains: []string{":MAX Red Line:"}, Year: 1997},
		{RoutesContains: []string{":MAX Yellow Line:"}, Year: 1999},
		{RoutesContains: []string{":MAX Green Line:", ":MAX Orange Line:"}, Year: 2003},
	}
}

// AssignYears writes the year of the first matching rule to year_field.
//
// Origins matching no rule keep their attributes unchanged.
func AssignYears(origins []Origin, rules []YearRule, routes_field string, zone_field string, year_field string) []Origin {
	assigned := make([]Origin, len(origins))
	for i, o := range origins {
		assigned[i] = o
		routes := o.Attribute(routes_field)
		zone := o.Attribute(zone_field)
		for _, rule := range rules {
			if rule.Matches(routes, zone) {
				assigned[i] = o.With(year_field, rule.Year)
				break
			}
		}
	}
	return assigned
}
