// Package pathfind implements dose-weighted A* search over the planning grid.
// The dose field acts as a cost overlay: moving onto a cell costs the step
// distance plus the avoidance weight times the cell's max-normalized dose.
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/hazlab/doseplan/internal/dosefield"
	"github.com/hazlab/doseplan/internal/gridmap"
)

// ErrNoPath is returned when the frontier empties before reaching the goal.
var ErrNoPath = errors.New("pathfind: no path between start and goal")

// Connectivity selects the neighbor set offered during search.
type Connectivity int

const (
	// Four offers axis-aligned moves only.
	Four Connectivity = 4

	// Eight additionally offers diagonal moves, except through wall corners.
	Eight Connectivity = 8
)

// Options tunes a search.
type Options struct {
	// Weight scales the normalized dose cost. Must be >= 0; 0 ignores dose.
	Weight float64

	// Connectivity is Four or Eight. Zero value defaults to Four.
	Connectivity Connectivity
}

// neighbor move tables: the first four entries are the axis-aligned moves,
// the remainder the diagonals, so Four uses a prefix of the Eight table.
var (
	moveRow  = [8]int{-1, 1, 0, 0, -1, -1, 1, 1}
	moveCol  = [8]int{0, 0, -1, 1, -1, 1, -1, 1}
	moveCost = [8]float64{1, 1, 1, 1, math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2}
)

// Search runs A* from start to goal and returns the waypoint sequence
// including both endpoints. A nil field is treated as uniformly zero dose.
// The grid and field are not mutated. Ties on f = g + h are broken
// first-in-first-out so identical inputs yield identical paths.
func Search(grid *gridmap.Grid, field *dosefield.Field, start, goal gridmap.Point, opts Options) ([]gridmap.Point, error) {
	if opts.Weight < 0 {
		return nil, fmt.Errorf("pathfind: negative weight %g", opts.Weight)
	}
	conn := opts.Connectivity
	if conn == 0 {
		conn = Four
	}
	if conn != Four && conn != Eight {
		return nil, fmt.Errorf("pathfind: unsupported connectivity %d", conn)
	}
	if !grid.Walkable(start) {
		return nil, fmt.Errorf("pathfind: start %s is not walkable", start)
	}
	if !grid.Walkable(goal) {
		return nil, fmt.Errorf("pathfind: goal %s is not walkable", goal)
	}
	if field == nil {
		field = dosefield.Zero(grid.Rows(), grid.Cols())
	}
	if fr, fc := field.Dims(); fr != grid.Rows() || fc != grid.Cols() {
		return nil, fmt.Errorf("pathfind: dose field is %dx%d but grid is %dx%d",
			fr, fc, grid.Rows(), grid.Cols())
	}

	if start == goal {
		return []gridmap.Point{start}, nil
	}

	gScore := map[gridmap.Point]float64{start: 0}
	cameFrom := make(map[gridmap.Point]gridmap.Point)
	visited := make(map[gridmap.Point]bool)

	pq := &searchQueue{}
	heap.Init(pq)
	pq.push(start, euclidean(start, goal))

	for pq.Len() > 0 {
		cur := pq.pop()

		if cur == goal {
			return reconstruct(cameFrom, goal), nil
		}
		if visited[cur] {
			continue // stale queue entry; a cheaper g was finalized earlier
		}
		visited[cur] = true
		curG := gScore[cur]

		for d := 0; d < int(conn); d++ {
			next := gridmap.Point{Row: cur.Row + moveRow[d], Col: cur.Col + moveCol[d]}
			if !grid.Walkable(next) || visited[next] {
				continue
			}
			if d >= 4 && cutsCorner(grid, cur, next) {
				continue
			}

			tentative := curG + moveCost[d] + opts.Weight*field.Normalized(next.Row, next.Col)
			if prev, seen := gScore[next]; seen && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			cameFrom[next] = cur
			pq.push(next, tentative+euclidean(next, goal))
		}
	}

	return nil, ErrNoPath
}

// FindRoute searches start→goal, optionally via a middle waypoint. With a
// middle point the two legs are searched independently and joined with the
// duplicated junction removed; if either leg fails the whole route fails.
func FindRoute(grid *gridmap.Grid, field *dosefield.Field, start, goal gridmap.Point, middle *gridmap.Point, opts Options) ([]gridmap.Point, error) {
	if middle == nil {
		return Search(grid, field, start, goal, opts)
	}

	first, err := Search(grid, field, start, *middle, opts)
	if err != nil {
		return nil, fmt.Errorf("pathfind: start to middle leg: %w", err)
	}
	second, err := Search(grid, field, *middle, goal, opts)
	if err != nil {
		return nil, fmt.Errorf("pathfind: middle to goal leg: %w", err)
	}
	return append(first, second[1:]...), nil
}

// cutsCorner reports whether the diagonal move cur→next squeezes between two
// walls: both orthogonal cells adjacent to the move must be open.
func cutsCorner(grid *gridmap.Grid, cur, next gridmap.Point) bool {
	side1 := gridmap.Point{Row: cur.Row, Col: next.Col}
	side2 := gridmap.Point{Row: next.Row, Col: cur.Col}
	return !grid.Walkable(side1) && !grid.Walkable(side2)
}

// euclidean is the straight-line heuristic. It never overestimates the true
// remaining cost because per-step distance cost is at least the metric and
// the dose term is non-negative.
func euclidean(a, b gridmap.Point) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return math.Sqrt(dr*dr + dc*dc)
}

// reconstruct walks predecessor links back to the start, then reverses.
func reconstruct(cameFrom map[gridmap.Point]gridmap.Point, goal gridmap.Point) []gridmap.Point {
	var path []gridmap.Point
	for p, ok := goal, true; ok; p, ok = cameFrom[p] {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// searchItem is a frontier entry. seq preserves insertion order among equal
// f values so the search is deterministic.
type searchItem struct {
	point gridmap.Point
	f     float64
	seq   int
}

// searchQueue implements heap.Interface ordered by f, then insertion order.
type searchQueue struct {
	items []searchItem
	next  int
}

func (q *searchQueue) Len() int { return len(q.items) }

func (q *searchQueue) Less(i, j int) bool {
	if q.items[i].f != q.items[j].f {
		return q.items[i].f < q.items[j].f
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *searchQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *searchQueue) Push(x any) {
	q.items = append(q.items, x.(searchItem))
}

func (q *searchQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

func (q *searchQueue) push(p gridmap.Point, f float64) {
	heap.Push(q, searchItem{point: p, f: f, seq: q.next})
	q.next++
}

func (q *searchQueue) pop() gridmap.Point {
	return heap.Pop(q).(searchItem).point
}
