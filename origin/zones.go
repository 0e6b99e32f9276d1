package origin

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geos"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/overlay"
)

// TagZones writes the name of the first zone feature containing each origin to attr.
//
// Origins outside every zone get an empty string.
func TagZones(origins []Origin, zones overlay.Layer, name_field string, attr string) ([]Origin, error) {
	ctx := geos.NewContext()
	prepared := make([]*geos.PrepGeom, 0, zones.Len())
	names := make([]string, 0, zones.Len())
	for _, zone := range zones.Features {
		g, err := overlay.ToGEOS(ctx, zone.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "origin: load zone %d", zone.ID)
		}
		prepared = append(prepared, g.Prepare())
		names = append(names, Origin{Attributes: zone.Attributes}.Attribute(name_field))
	}

	tagged := make([]Origin, len(origins))
	untagged := 0
	for i, o := range origins {
		point := ctx.NewPoint([]float64{o.X, o.Y})
		zone := ""
		for j, p := range prepared {
			if p.Intersects(point) {
				zone = names[j]
				break
			}
		}
		if zone == "" {
			untagged += 1
		}
		tagged[i] = o.With(attr, zone)
	}
	zap.L().Info("tagged origins with zones",
		zap.Int("origins", len(origins)),
		zap.Int("zones", zones.Len()),
		zap.Int("untagged", untagged),
	)
	return tagged, nil
}
