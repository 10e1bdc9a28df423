package gridmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetKind_UniqueMarkersMove(t *testing.T) {
	g := New(5, 5, DefaultGeometry())

	require.NoError(t, g.SetKind(Point{0, 0}, KindStart))
	require.NoError(t, g.SetKind(Point{4, 4}, KindStart))

	start, ok := g.Start()
	require.True(t, ok)
	assert.Equal(t, Point{4, 4}, start, "placing a second start should move the marker")
	assert.Equal(t, KindFloor, g.KindAt(Point{0, 0}), "old start cell should revert to floor")
}

func TestWalkable_WallsAndBounds(t *testing.T) {
	g := New(3, 3, DefaultGeometry())
	require.NoError(t, g.SetKind(Point{1, 1}, KindWall))

	assert.False(t, g.Walkable(Point{1, 1}))
	assert.False(t, g.Walkable(Point{-1, 0}), "out of bounds is not walkable")
	assert.False(t, g.Walkable(Point{3, 0}))
	assert.True(t, g.Walkable(Point{0, 0}))
	assert.True(t, g.Walkable(Point{2, 2}))
}

func TestPhysicalBounds_RowZeroAtTop(t *testing.T) {
	geom := Geometry{CellSizeX: 50, CellSizeY: 50, CellHeightZ: 200, WorldMargin: 100}
	g := New(4, 4, geom)

	// Row 0 maps to the highest Y band.
	b := g.PhysicalBounds(Point{0, 0})
	assert.Equal(t, 0.0, b.XMin)
	assert.Equal(t, 50.0, b.XMax)
	assert.Equal(t, 150.0, b.YMin)
	assert.Equal(t, 200.0, b.YMax)
	assert.Equal(t, 0.0, b.ZMin)
	assert.Equal(t, 200.0, b.ZMax)

	// Bottom-right cell.
	b = g.PhysicalBounds(Point{3, 3})
	assert.Equal(t, 150.0, b.XMin)
	assert.Equal(t, 0.0, b.YMin)

	x, y, z := g.Center(Point{0, 0})
	assert.Equal(t, 25.0, x)
	assert.Equal(t, 175.0, y)
	assert.Equal(t, 100.0, z)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	g := New(3, 4, DefaultGeometry())
	require.NoError(t, g.SetKind(Point{0, 0}, KindStart))
	require.NoError(t, g.SetKind(Point{2, 3}, KindGoal))
	require.NoError(t, g.SetKind(Point{1, 1}, KindWall))
	require.NoError(t, g.SetKind(Point{1, 2}, KindSource))
	require.NoError(t, g.SetSourceInfo(Point{1, 2}, "Cs-137", "1.0E+12"))

	path := filepath.Join(t.TempDir(), "grid.json")
	require.NoError(t, g.Save(path))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Rows())
	assert.Equal(t, 4, got.Cols())
	assert.Equal(t, KindWall, got.KindAt(Point{1, 1}))

	start, ok := got.Start()
	require.True(t, ok)
	assert.Equal(t, Point{0, 0}, start)

	sources := got.Sources()
	require.Len(t, sources, 1)
	assert.Equal(t, "Cs-137", sources[0].Nuclide)
	assert.Equal(t, "1.0E+12", sources[0].Activity)
}

func TestLoad_RejectsRaggedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := []byte(`{"rows":2,"cols":2,"cells":[[0,0],[0]],"geometry":{"cellSizeX":50,"cellSizeY":50,"cellHeightZ":200,"worldMargin":100}}`)
	require.NoError(t, os.WriteFile(path, bad, 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestLoad_RejectsUnknownCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	bad := []byte(`{"rows":1,"cols":1,"cells":[[7]],"geometry":{"cellSizeX":50,"cellSizeY":50,"cellHeightZ":200,"worldMargin":100}}`)
	require.NoError(t, os.WriteFile(path, bad, 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cell code 7")
}
