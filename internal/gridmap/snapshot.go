package gridmap

import (
	"encoding/json"
	"fmt"
	"os"
)

// snapshot is the on-disk JSON form of a grid, shared with the editor.
type snapshot struct {
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Cells    [][]int  `json:"cells"`
	Sources  []Source `json:"sources,omitempty"`
	Geometry Geometry `json:"geometry"`
}

// Load reads a grid snapshot written by the editor collaborator.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gridmap: read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("gridmap: parse snapshot %s: %w", path, err)
	}
	return fromSnapshot(&snap, path)
}

func fromSnapshot(snap *snapshot, path string) (*Grid, error) {
	if snap.Rows <= 0 || snap.Cols <= 0 {
		return nil, fmt.Errorf("gridmap: snapshot %s has invalid size %dx%d", path, snap.Rows, snap.Cols)
	}
	if len(snap.Cells) != snap.Rows {
		return nil, fmt.Errorf("gridmap: snapshot %s has %d cell rows, want %d", path, len(snap.Cells), snap.Rows)
	}

	geom := snap.Geometry
	if geom.CellSizeX == 0 && geom.CellSizeY == 0 {
		geom = DefaultGeometry()
	}

	g := New(snap.Rows, snap.Cols, geom)
	for r, row := range snap.Cells {
		if len(row) != snap.Cols {
			return nil, fmt.Errorf("gridmap: snapshot %s row %d has %d cells, want %d", path, r, len(row), snap.Cols)
		}
		for c, code := range row {
			kind, err := KindFromCode(code)
			if err != nil {
				return nil, fmt.Errorf("gridmap: snapshot %s cell (%d,%d): %w", path, r, c, err)
			}
			g.kinds[r*snap.Cols+c] = kind
		}
	}

	for _, s := range snap.Sources {
		if g.KindAt(s.Point) != KindSource {
			return nil, fmt.Errorf("gridmap: snapshot %s lists source metadata at %s but the cell is %s",
				path, s.Point, g.KindAt(s.Point))
		}
		g.sources[s.Point] = s
	}

	return g, nil
}

// Save writes the grid as a snapshot the editor can reload.
func (g *Grid) Save(path string) error {
	snap := snapshot{
		Rows:     g.rows,
		Cols:     g.cols,
		Cells:    make([][]int, g.rows),
		Sources:  nil,
		Geometry: g.geom,
	}
	for r := 0; r < g.rows; r++ {
		row := make([]int, g.cols)
		for c := 0; c < g.cols; c++ {
			row[c] = g.KindAt(Point{Row: r, Col: c}).Code()
		}
		snap.Cells[r] = row
	}
	for _, s := range g.Sources() {
		if s.Nuclide != "" || s.Activity != "" {
			snap.Sources = append(snap.Sources, s)
		}
	}

	out, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("gridmap: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("gridmap: write snapshot: %w", err)
	}
	return nil
}
