package main

type IsochroneRequestParams struct {
	// *************************************
	// locations as [x, y] in the network coordinate system
	// *************************************
	Locations [][2]float64 `json:"locations"`

	// optional ids of the locations, defaults to their index
	IDs []string `json:"ids"`

	// *************************************
	// range params
	// *************************************
	Range float64 `json:"range"`

	// buffer width of the isochrone polygons, the configured width if 0
	BufferWidth float64 `json:"buffer_width"`
}

type OriginIsochroneParams struct {
	ID    string  `json:"id"`
	Range float64 `json:"range"`
}

type HealthParams struct{}
