// Package oracle provides the known-cost index: cheapest travel costs from
// the agent's position over the tiles it has discovered.
package oracle

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/heap"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

var (
	ErrUnreachable = errors.New("destination unreachable with current knowledge")
	ErrStale       = errors.New("cost index not computed for current map")
)

const unreachable = 1<<31 - 1

type frontierEntry struct {
	idx  int // Flat grid index (row*size + col)
	dist int
}

// Index stores single-source shortest travel costs over a known map.
// Step cost is the WalkCost of the tile being entered.
type Index struct {
	grid   *world.Grid
	origin world.Coord
	valid  bool
	dist   []int
	prev   []int
}

// New creates an empty index. Update and Recompute must run before queries.
func New() *Index {
	return &Index{}
}

// Update replaces the map the index searches over and invalidates costs.
func (x *Index) Update(g *world.Grid) {
	x.grid = g
	x.valid = false
	size := g.Size * g.Size
	if cap(x.dist) < size {
		x.dist = make([]int, size)
		x.prev = make([]int, size)
	} else {
		x.dist = x.dist[:size]
		x.prev = x.prev[:size]
	}
}

// Recompute runs Dijkstra from the given origin.
func (x *Index) Recompute(from world.Coord) error {
	if x.grid == nil {
		return ErrStale
	}
	g := x.grid
	if !g.InBounds(from.Row, from.Col) {
		return fmt.Errorf("recompute from %v: %w", from, world.ErrOutOfBounds)
	}

	for i := range x.dist {
		x.dist[i] = unreachable
		x.prev[i] = -1
	}
	start := from.Row*g.Size + from.Col
	x.dist[start] = 0

	frontier := heap.New[frontierEntry](func(a, b frontierEntry) bool { return a.dist < b.dist })
	frontier.Push(frontierEntry{idx: start})

	for frontier.Size() > 0 {
		e, _ := frontier.Pop()
		if e.dist > x.dist[e.idx] {
			continue // Stale entry
		}
		cur := world.Coord{Row: e.idx / g.Size, Col: e.idx % g.Size}
		for _, d := range world.Directions {
			n := cur.Step(d)
			if !g.Walkable(n) {
				continue
			}
			ni := n.Row*g.Size + n.Col
			nd := e.dist + g.Tiles[ni].Kind.WalkCost()
			if nd < x.dist[ni] {
				x.dist[ni] = nd
				x.prev[ni] = e.idx
				frontier.Push(frontierEntry{idx: ni, dist: nd})
			}
		}
	}

	x.origin = from
	x.valid = true
	return nil
}

// Origin returns the coordinate the costs were computed from.
func (x *Index) Origin() world.Coord {
	return x.origin
}

// Cost returns the cheapest known travel cost to c.
func (x *Index) Cost(c world.Coord) (int, bool) {
	if !x.valid || !x.grid.InBounds(c.Row, c.Col) {
		return 0, false
	}
	d := x.dist[c.Row*x.grid.Size+c.Col]
	if d == unreachable {
		return 0, false
	}
	return d, true
}

// Path returns the moves leading from the origin to c.
func (x *Index) Path(to world.Coord) ([]world.Direction, error) {
	if !x.valid {
		return nil, ErrStale
	}
	if _, ok := x.Cost(to); !ok {
		return nil, fmt.Errorf("path to %v: %w", to, ErrUnreachable)
	}

	size := x.grid.Size
	var rev []world.Direction
	for i := to.Row*size + to.Col; x.prev[i] >= 0; i = x.prev[i] {
		p := x.prev[i]
		rev = append(rev, stepBetween(p/size, p%size, i/size, i%size))
	}

	path := make([]world.Direction, len(rev))
	for i, d := range rev {
		path[len(rev)-1-i] = d
	}
	return path, nil
}

func stepBetween(r0, c0, r1, c1 int) world.Direction {
	switch {
	case r1 < r0:
		return world.Up
	case r1 > r0:
		return world.Down
	case c1 < c0:
		return world.Left
	default:
		return world.Right
	}
}
