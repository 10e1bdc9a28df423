// Package route models named planning routes and their waypoint sampling.
// A route records where a path was requested (start, optional middle, goal),
// the planner settings used, and the planned cell path; sampling turns that
// path into physical waypoints spaced by arc length for the batch generator.
package route

import (
	"fmt"
	"math"

	"github.com/hazlab/doseplan/internal/gridmap"
)

// Waypoint is a physical position in cm.
type Waypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Route is a named, planned route. Path is the cell sequence produced by the
// planner; it is stored so input generation never needs to re-run the search.
type Route struct {
	Name   string          `json:"name"`
	Start  gridmap.Point   `json:"start"`
	Middle *gridmap.Point  `json:"middle,omitempty"`
	Goal   gridmap.Point   `json:"goal"`
	Step   float64         `json:"step"`
	Weight float64         `json:"weight"`
	Path   []gridmap.Point `json:"path,omitempty"`
}

// Validate checks the fields every stored route must carry.
func (r Route) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("route: route has no name")
	}
	if r.Step <= 0 {
		return fmt.Errorf("route: %s: step must be positive, got %g", r.Name, r.Step)
	}
	if r.Weight < 0 {
		return fmt.Errorf("route: %s: weight must be non-negative, got %g", r.Name, r.Weight)
	}
	return nil
}

// Waypoints samples the route's planned path on grid g at the route's step.
func (r Route) Waypoints(g *gridmap.Grid) ([]Waypoint, error) {
	if len(r.Path) == 0 {
		return nil, fmt.Errorf("route: %s: no planned path to sample", r.Name)
	}
	poly := make([]Waypoint, len(r.Path))
	for i, p := range r.Path {
		x, y, z := g.Center(p)
		poly[i] = Waypoint{X: x, Y: y, Z: z}
	}
	return Sample(poly, r.Step), nil
}

// Sample walks the polyline segment by segment, emitting a waypoint every
// step cm of accumulated arc length. Every vertex of the polyline is crossed
// exactly, so both endpoints (and a middle marker, which is always a vertex)
// appear in the output. A non-positive step yields the vertices unchanged.
func Sample(poly []Waypoint, step float64) []Waypoint {
	if len(poly) == 0 {
		return nil
	}
	out := []Waypoint{poly[0]}
	if step <= 0 {
		out = append(out, poly[1:]...)
		return out
	}

	for i := 1; i < len(poly); i++ {
		a, b := poly[i-1], poly[i]
		length := distance(a, b)
		for t := step; t < length; t += step {
			f := t / length
			out = append(out, Waypoint{
				X: a.X + (b.X-a.X)*f,
				Y: a.Y + (b.Y-a.Y)*f,
				Z: a.Z + (b.Z-a.Z)*f,
			})
		}
		if length > 0 {
			out = append(out, b)
		}
	}
	return out
}

func distance(a, b Waypoint) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
