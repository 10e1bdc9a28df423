package pathfind

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlab/doseplan/internal/dosefield"
	"github.com/hazlab/doseplan/internal/gridmap"
)

func emptyGrid(t *testing.T, rows, cols int) *gridmap.Grid {
	t.Helper()
	return gridmap.New(rows, cols, gridmap.DefaultGeometry())
}

func wall(t *testing.T, g *gridmap.Grid, r, c int) {
	t.Helper()
	require.NoError(t, g.SetKind(gridmap.Point{Row: r, Col: c}, gridmap.KindWall))
}

// pathCost evaluates a path under the search cost model: per step, the step
// distance plus weight times the normalized dose of the entered cell.
func pathCost(path []gridmap.Point, field *dosefield.Field, weight float64) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		dr := float64(path[i].Row - path[i-1].Row)
		dc := float64(path[i].Col - path[i-1].Col)
		total += math.Sqrt(dr*dr+dc*dc) + weight*field.Normalized(path[i].Row, path[i].Col)
	}
	return total
}

func TestSearch_DiagonalAcrossEmptyGrid(t *testing.T) {
	g := emptyGrid(t, 5, 5)

	path, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 4, Col: 4}, Options{Connectivity: Eight})
	require.NoError(t, err)

	want := []gridmap.Point{
		{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 2, Col: 2}, {Row: 3, Col: 3}, {Row: 4, Col: 4},
	}
	assert.Equal(t, want, path, "zero dose and weight 0 should walk the diagonal")
	assert.InDelta(t, 4*math.Sqrt2, pathCost(path, dosefield.Zero(5, 5), 0), 1e-12)
}

func TestSearch_DetoursAroundHotCell(t *testing.T) {
	g := emptyGrid(t, 5, 5)

	values := make([]float64, 25)
	for i := range values {
		values[i] = 1
	}
	values[2*5+2] = 100 // hot cell at (2,2)
	field, err := dosefield.New(5, 5, values)
	require.NoError(t, err)

	path, err := Search(g, field, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 4, Col: 4}, Options{
		Weight:       1000,
		Connectivity: Eight,
	})
	require.NoError(t, err)
	assert.NotContains(t, path, gridmap.Point{Row: 2, Col: 2}, "high weight must push the path off the hot cell")
	assert.Equal(t, gridmap.Point{Row: 0, Col: 0}, path[0])
	assert.Equal(t, gridmap.Point{Row: 4, Col: 4}, path[len(path)-1])
}

func TestSearch_WeightZeroIsShortest(t *testing.T) {
	// 3x5 corridor: wall column at col 2 with a gap at row 2 forces a detour.
	g := emptyGrid(t, 3, 5)
	wall(t, g, 0, 2)
	wall(t, g, 1, 2)

	path, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 0, Col: 4}, Options{Connectivity: Four})
	require.NoError(t, err)

	// True shortest 4-connected distance: down 2, across 4, up 2 = 8 steps.
	assert.Len(t, path, 9)
	assert.InDelta(t, 8.0, pathCost(path, dosefield.Zero(3, 5), 0), 1e-12)
}

func TestSearch_MonotoneAvoidance(t *testing.T) {
	g := emptyGrid(t, 5, 5)
	values := make([]float64, 25)
	for i := range values {
		values[i] = float64(i % 7)
	}
	field, err := dosefield.New(5, 5, values)
	require.NoError(t, err)

	start, goal := gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 4, Col: 4}

	for _, w := range []struct{ lo, hi float64 }{{0, 1}, {1, 10}, {10, 500}} {
		pLo, err := Search(g, field, start, goal, Options{Weight: w.lo, Connectivity: Eight})
		require.NoError(t, err)
		pHi, err := Search(g, field, start, goal, Options{Weight: w.hi, Connectivity: Eight})
		require.NoError(t, err)

		assert.LessOrEqual(t,
			pathCost(pHi, field, w.hi), pathCost(pLo, field, w.hi)+1e-9,
			"path found at weight %g must not cost more under that weight than the weight-%g path", w.hi, w.lo)
	}
}

func TestSearch_NoCornerCutting(t *testing.T) {
	// Walls at (0,1) and (1,0) pinch the diagonal from (0,0) to (1,1).
	g := emptyGrid(t, 2, 2)
	wall(t, g, 0, 1)
	wall(t, g, 1, 0)

	_, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 1, Col: 1}, Options{Connectivity: Eight})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPath), "pinched diagonal should be unreachable")
}

func TestSearch_DiagonalAllowedPastSingleWall(t *testing.T) {
	// Only one of the two orthogonal cells is a wall: the diagonal stays legal.
	g := emptyGrid(t, 2, 2)
	wall(t, g, 0, 1)

	path, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 1, Col: 1}, Options{Connectivity: Eight})
	require.NoError(t, err)
	assert.Equal(t, []gridmap.Point{{Row: 0, Col: 0}, {Row: 1, Col: 1}}, path)
}

func TestSearch_Disconnected(t *testing.T) {
	g := emptyGrid(t, 3, 3)
	wall(t, g, 0, 1)
	wall(t, g, 1, 1)
	wall(t, g, 2, 1)

	_, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 0, Col: 2}, Options{Connectivity: Four})
	assert.True(t, errors.Is(err, ErrNoPath))
}

func TestSearch_StartEqualsGoal(t *testing.T) {
	g := emptyGrid(t, 3, 3)
	path, err := Search(g, nil, gridmap.Point{Row: 1, Col: 1}, gridmap.Point{Row: 1, Col: 1}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []gridmap.Point{{Row: 1, Col: 1}}, path)
}

func TestSearch_Deterministic(t *testing.T) {
	g := emptyGrid(t, 8, 8)
	wall(t, g, 3, 3)
	wall(t, g, 3, 4)

	first, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 7, Col: 7}, Options{Connectivity: Eight})
	require.NoError(t, err)
	second, err := Search(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 7, Col: 7}, Options{Connectivity: Eight})
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical inputs must yield identical paths")
}

func TestFindRoute_MiddleWaypointJoinsWithoutDuplicate(t *testing.T) {
	g := emptyGrid(t, 5, 5)
	mid := gridmap.Point{Row: 4, Col: 0}

	path, err := FindRoute(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 4, Col: 4}, &mid, Options{Connectivity: Four})
	require.NoError(t, err)

	assert.Contains(t, path, mid)
	for i := 1; i < len(path); i++ {
		assert.NotEqual(t, path[i-1], path[i], "junction point must not be duplicated")
	}
	assert.Len(t, path, 9, "4 steps down plus 4 steps across, junction counted once")
}

func TestFindRoute_FailedLegFailsRoute(t *testing.T) {
	g := emptyGrid(t, 3, 3)
	wall(t, g, 0, 1)
	wall(t, g, 1, 1)
	wall(t, g, 2, 1)
	mid := gridmap.Point{Row: 0, Col: 2}

	_, err := FindRoute(g, nil, gridmap.Point{Row: 0, Col: 0}, gridmap.Point{Row: 2, Col: 0}, &mid, Options{Connectivity: Four})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPath))
}
