package snapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttpr0/go-walkshed/graph"
	"github.com/ttpr0/go-walkshed/origin"
)

func network(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.NodeRecord{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: 100, Y: 0},
		{ID: 3, X: 200, Y: 0},
		{ID: 4, X: 100, Y: 20},
	}
	edges := []graph.EdgeRecord{
		{ID: 1, NodeA: 1, NodeB: 2, Impedance: 100},
		{ID: 2, NodeA: 2, NodeB: 3, Impedance: 100},
		// sky bridge above the first edge
		{ID: 3, NodeA: 1, NodeB: 4, Impedance: 102, Restricted: true},
	}
	g, err := graph.Load(nodes, edges)
	require.NoError(t, err)
	return g
}

func TestSnapOnEdge(t *testing.T) {
	g := network(t)
	snapped, fail := Snap(origin.Origin{ID: "A", X: 25, Y: 4}, g, graph.WALKING, 50)
	require.Nil(t, fail)

	assert.Equal(t, "A", snapped.ID)
	assert.Equal(t, int32(0), snapped.Edge)
	assert.InDelta(t, 0.25, snapped.Fraction, 1e-9)
	assert.InDelta(t, 4, snapped.Distance, 1e-9)
	assert.False(t, snapped.OnNode())
	assert.Equal(t, int32(-1), snapped.Node)
}

func TestSnapBindsEndpoints(t *testing.T) {
	g := network(t)

	snapped, fail := Snap(origin.Origin{ID: "A", X: -5, Y: 0}, g, graph.WALKING, 50)
	require.Nil(t, fail)
	assert.True(t, snapped.OnNode())
	assert.Equal(t, int32(0), snapped.Node)

	// the shared node prefers the lower edge id
	snapped, fail = Snap(origin.Origin{ID: "B", X: 100, Y: -3}, g, graph.WALKING, 50)
	require.Nil(t, fail)
	assert.Equal(t, int32(0), snapped.Edge)
	assert.Equal(t, int32(1), snapped.Node)
}

func TestSnapFailure(t *testing.T) {
	g := network(t)
	_, fail := Snap(origin.Origin{ID: "far", X: 100, Y: 500}, g, graph.WALKING, 50)
	require.NotNil(t, fail)
	assert.Equal(t, "far", fail.OriginID)

	var err error = fail
	var sf *SnapFailure
	assert.True(t, errors.As(err, &sf))
}

func TestSnapAll(t *testing.T) {
	g := network(t)
	origins := []origin.Origin{
		{ID: "1", X: 10, Y: 1},
		{ID: "2", X: 100, Y: 900},
		{ID: "3", X: 150, Y: -1},
	}
	snapped, failures := SnapAll(origins, g, graph.WALKING, 10)

	require.Len(t, snapped, 2)
	assert.Equal(t, "1", snapped[0].ID)
	assert.Equal(t, "3", snapped[1].ID)
	assert.Equal(t, int32(1), snapped[1].Edge)
	require.Len(t, failures, 1)
	assert.Equal(t, "2", failures[0].OriginID)
}

func TestSnapIsPure(t *testing.T) {
	g := network(t)
	o := origin.Origin{ID: "A", X: 42, Y: 7}
	first, _ := Snap(o, g, graph.WALKING, 50)
	second, _ := Snap(o, g, graph.WALKING, 50)
	assert.Equal(t, first, second)
}
