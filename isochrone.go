package main

import (
	"context"
	"math"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/ttpr0/go-walkshed/algorithm"
	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/origin"
	"github.com/ttpr0/go-walkshed/pipeline"
	"github.com/ttpr0/go-walkshed/snapping"
)

//**********************************************************
// isochrone handlers
//**********************************************************

func (self *Manager) HandleIsochroneRequest(ctx context.Context, req IsochroneRequestParams) Result {
	if len(req.Locations) == 0 {
		return BadRequest("no locations given")
	}
	if req.IDs != nil && len(req.IDs) != len(req.Locations) {
		return BadRequest("ids and locations differ in length")
	}
	if !_ValidRange(req.Range) {
		return BadRequest("range must be a positive finite number")
	}
	origins := make([]origin.Origin, len(req.Locations))
	for i, loc := range req.Locations {
		id := strconv.Itoa(i)
		if req.IDs != nil {
			id = req.IDs[i]
		}
		origins[i] = origin.Origin{ID: id, X: loc[0], Y: loc[1]}
	}
	opts := self.IsochroneOptions()
	if req.BufferWidth > 0 {
		opts.Builder.BufferWidth = req.BufferWidth
	}

	resp, err := self._ComputeIsochrones(ctx, origins, req.Range, opts)
	if err != nil {
		return InternalError(err)
	}
	return OK(resp)
}

// HandleOriginIsochroneRequest computes the isochrone of a loaded origin.
//
// Without a range the break of the first batch selecting the origin is used.
func (self *Manager) HandleOriginIsochroneRequest(ctx context.Context, req OriginIsochroneParams) Result {
	if req.Range != 0 && !_ValidRange(req.Range) {
		return BadRequest("range must be a positive finite number")
	}
	var found *origin.Origin
	for i := range self.origins {
		if self.origins[i].ID == req.ID {
			found = &self.origins[i]
			break
		}
	}
	if found == nil {
		return NotFound("unknown origin " + req.ID)
	}
	brk := req.Range
	if brk == 0 {
		batch, ok := _FirstBatch(self.config.Batches, *found)
		if !ok {
			return BadRequest("origin " + req.ID + " is in no batch, a range is required")
		}
		brk = batch.Break
	}

	resp, err := self._ComputeIsochrones(ctx, []origin.Origin{*found}, brk, self.IsochroneOptions())
	if err != nil {
		return InternalError(err)
	}
	return OK(resp)
}

func (self *Manager) HandleHealthRequest(ctx context.Context, req HealthParams) Result {
	return OK(HealthResponse{
		Status: "ok",
		Nodes:  self.graph.NodeCount(),
		Edges:  self.graph.EdgeCount(),
	})
}

func (self *Manager) _ComputeIsochrones(ctx context.Context, origins []origin.Origin, brk float64, opts pipeline.IsochroneOptions) (IsochroneResponse, error) {
	snapped, failures := snapping.SnapAll(origins, self.graph, opts.Mode, opts.SnapTolerance)
	sets, err := algorithm.SolveAll(ctx, self.graph, snapped, brk, opts.Mode, opts.Workers)
	if err != nil {
		return IsochroneResponse{}, err
	}
	isos, err := isochrone.BuildAll(ctx, self.graph, sets, "request", opts.Builder, opts.Workers)
	if err != nil {
		return IsochroneResponse{}, err
	}
	isos, err = isochrone.Join(isos, origin.Index(origins), nil)
	if err != nil {
		return IsochroneResponse{}, err
	}

	resp := IsochroneResponse{
		Type:      "FeatureCollection",
		Features:  make([]*geojson.Feature, 0, len(isos)),
		Unsnapped: make([]string, 0, len(failures)),
	}
	for _, f := range failures {
		resp.Unsnapped = append(resp.Unsnapped, f.OriginID)
	}
	for _, iso := range isos {
		if iso.IsEmpty() {
			continue
		}
		properties := make(map[string]any, len(iso.Attributes)+2)
		for k, v := range iso.Attributes {
			properties[k] = v
		}
		properties["origin_id"] = iso.OriginID
		properties["break"] = iso.Break
		resp.Features = append(resp.Features, &geojson.Feature{
			ID:         iso.OriginID,
			Geometry:   iso.Geometry,
			Properties: properties,
		})
	}
	return resp, nil
}

func _FirstBatch(batches []pipeline.Batch, o origin.Origin) (pipeline.Batch, bool) {
	for _, batch := range batches {
		if batch.Selection().Matches(o) {
			return batch, true
		}
	}
	return pipeline.Batch{}, false
}

func _ValidRange(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r > 0
}
