package main

import (
	"github.com/twpayne/go-geom/encoding/geojson"
)

type ErrorResponse struct {
	Request string `json:"request"`
	Error   any    `json:"error"`
}

func NewErrorResponse(request string, error any) ErrorResponse {
	return ErrorResponse{
		Request: request,
		Error:   error,
	}
}

type IsochroneResponse struct {
	Type     string             `json:"type"`
	Features []*geojson.Feature `json:"features"`
	// ids of locations without a traversable edge in snapping distance
	Unsnapped []string `json:"unsnapped"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
}
