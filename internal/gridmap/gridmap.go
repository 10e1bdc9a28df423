// Package gridmap models the planning grid the external editor produces:
// walkable and blocked cells, the start/goal/middle markers, and radiation
// source markers, plus the mapping from grid coordinates to the physical
// coordinate system used in generated simulation decks.
package gridmap

import "fmt"

// CellKind classifies a single grid cell.
type CellKind int

const (
	// KindFloor is an empty, walkable cell.
	KindFloor CellKind = iota

	// KindWall is a blocked cell.
	KindWall

	// KindStart marks the route start. At most one per grid.
	KindStart

	// KindGoal marks the route goal. At most one per grid.
	KindGoal

	// KindMiddle marks an optional intermediate waypoint. At most one per grid.
	KindMiddle

	// KindSource marks a radiation source cell.
	KindSource
)

// snapshot codes used by the editor collaborator's JSON files.
// Floor=0, Wall=1, Start=2, Goal=3, Middle=4, Source=9.
var kindCodes = map[CellKind]int{
	KindFloor:  0,
	KindWall:   1,
	KindStart:  2,
	KindGoal:   3,
	KindMiddle: 4,
	KindSource: 9,
}

var codeKinds = map[int]CellKind{
	0: KindFloor,
	1: KindWall,
	2: KindStart,
	3: KindGoal,
	4: KindMiddle,
	9: KindSource,
}

func (k CellKind) String() string {
	switch k {
	case KindFloor:
		return "floor"
	case KindWall:
		return "wall"
	case KindStart:
		return "start"
	case KindGoal:
		return "goal"
	case KindMiddle:
		return "middle"
	case KindSource:
		return "source"
	default:
		return "unknown"
	}
}

// Code returns the numeric snapshot code for the kind.
func (k CellKind) Code() int {
	return kindCodes[k]
}

// KindFromCode converts a snapshot code back to a CellKind.
func KindFromCode(code int) (CellKind, error) {
	k, ok := codeKinds[code]
	if !ok {
		return KindFloor, fmt.Errorf("gridmap: unknown cell code %d", code)
	}
	return k, nil
}

// Point is a grid coordinate (row, column), 0-indexed from the top-left.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Source is a radiation source cell with its nuclide and activity.
// Activity is kept as a string in simulation input notation (e.g. "1.0E+12").
type Source struct {
	Point    Point  `json:"point"`
	Nuclide  string `json:"nuclide,omitempty"`
	Activity string `json:"activity,omitempty"`
}

// Geometry maps grid coordinates to the physical coordinate system, in cm.
type Geometry struct {
	CellSizeX   float64 `json:"cellSizeX"`
	CellSizeY   float64 `json:"cellSizeY"`
	CellHeightZ float64 `json:"cellHeightZ"`
	WorldMargin float64 `json:"worldMargin"`
}

// DefaultGeometry matches the editor's default cell dimensions.
func DefaultGeometry() Geometry {
	return Geometry{
		CellSizeX:   50.0,
		CellSizeY:   50.0,
		CellHeightZ: 200.0,
		WorldMargin: 100.0,
	}
}

// Bounds is an axis-aligned physical box.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// Grid is the planning grid. It is mutable at edit time and treated as
// read-only by the pathfinder and the deck generators.
type Grid struct {
	rows, cols int
	kinds      []CellKind
	sources    map[Point]Source
	geom       Geometry
}

// New creates a grid of all-floor cells with the given geometry.
func New(rows, cols int, geom Geometry) *Grid {
	return &Grid{
		rows:    rows,
		cols:    cols,
		kinds:   make([]CellKind, rows*cols),
		sources: make(map[Point]Source),
		geom:    geom,
	}
}

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.cols }

// Geometry returns the physical cell geometry.
func (g *Grid) Geometry() Geometry { return g.geom }

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.Row >= 0 && p.Row < g.rows && p.Col >= 0 && p.Col < g.cols
}

// KindAt returns the kind of the cell at p. Out-of-bounds points are walls.
func (g *Grid) KindAt(p Point) CellKind {
	if !g.InBounds(p) {
		return KindWall
	}
	return g.kinds[p.Row*g.cols+p.Col]
}

// Walkable reports whether p can be traversed.
func (g *Grid) Walkable(p Point) bool {
	return g.InBounds(p) && g.KindAt(p) != KindWall
}

// SetKind sets the cell kind at p. Start, goal and middle markers are unique:
// setting one clears any previous cell of the same kind back to floor.
func (g *Grid) SetKind(p Point, k CellKind) error {
	if !g.InBounds(p) {
		return fmt.Errorf("gridmap: point %s outside %dx%d grid", p, g.rows, g.cols)
	}
	switch k {
	case KindStart, KindGoal, KindMiddle:
		for i, existing := range g.kinds {
			if existing == k {
				g.kinds[i] = KindFloor
			}
		}
	}
	prev := g.kinds[p.Row*g.cols+p.Col]
	if prev == KindSource && k != KindSource {
		delete(g.sources, p)
	}
	g.kinds[p.Row*g.cols+p.Col] = k
	return nil
}

// SetSourceInfo attaches nuclide/activity metadata to a source cell.
func (g *Grid) SetSourceInfo(p Point, nuclide, activity string) error {
	if g.KindAt(p) != KindSource {
		return fmt.Errorf("gridmap: %s is not a source cell", p)
	}
	g.sources[p] = Source{Point: p, Nuclide: nuclide, Activity: activity}
	return nil
}

// find returns the unique cell of the given kind, scanning in row-major order.
func (g *Grid) find(k CellKind) (Point, bool) {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			p := Point{Row: r, Col: c}
			if g.KindAt(p) == k {
				return p, true
			}
		}
	}
	return Point{}, false
}

// Start returns the start marker, if placed.
func (g *Grid) Start() (Point, bool) { return g.find(KindStart) }

// Goal returns the goal marker, if placed.
func (g *Grid) Goal() (Point, bool) { return g.find(KindGoal) }

// Middle returns the middle waypoint marker, if placed.
func (g *Grid) Middle() (Point, bool) { return g.find(KindMiddle) }

// Sources returns all source cells in row-major order. Cells without
// attached metadata are returned with empty nuclide/activity; callers fill
// in configured defaults.
func (g *Grid) Sources() []Source {
	var out []Source
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			p := Point{Row: r, Col: c}
			if g.KindAt(p) != KindSource {
				continue
			}
			if s, ok := g.sources[p]; ok {
				out = append(out, s)
			} else {
				out = append(out, Source{Point: p})
			}
		}
	}
	return out
}

// PhysicalBounds returns the physical box of the cell at p. Row 0 maps to
// the maximum Y so that the deck's coordinate system has Y increasing upward
// while the grid indexes rows downward.
func (g *Grid) PhysicalBounds(p Point) Bounds {
	geom := g.geom
	return Bounds{
		XMin: float64(p.Col) * geom.CellSizeX,
		XMax: float64(p.Col+1) * geom.CellSizeX,
		YMin: float64(g.rows-p.Row-1) * geom.CellSizeY,
		YMax: float64(g.rows-p.Row) * geom.CellSizeY,
		ZMin: 0.0,
		ZMax: geom.CellHeightZ,
	}
}

// Center returns the physical center of the cell at p.
func (g *Grid) Center(p Point) (x, y, z float64) {
	b := g.PhysicalBounds(p)
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2, (b.ZMin + b.ZMax) / 2
}

// Width returns the physical extent of the grid along X, in cm.
func (g *Grid) Width() float64 { return float64(g.cols) * g.geom.CellSizeX }

// Height returns the physical extent of the grid along Y, in cm.
func (g *Grid) Height() float64 { return float64(g.rows) * g.geom.CellSizeY }
