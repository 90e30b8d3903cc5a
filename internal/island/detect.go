// Package island partitions the walkable cells of a known map into connected
// landmasses and picks the pair of cells a connector should join.
package island

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// Island is a maximal 4-connected set of walkable cells.
type Island struct {
	cells []world.Coord
	set   mapset.Set[world.Coord]
}

func newIsland() *Island {
	return &Island{set: mapset.New[world.Coord]()}
}

func (is *Island) add(c world.Coord) {
	is.cells = append(is.cells, c)
	is.set.Put(c)
}

// Contains reports whether c belongs to the island.
func (is *Island) Contains(c world.Coord) bool {
	return is.set.Has(c)
}

// Len returns the number of cells.
func (is *Island) Len() int {
	return len(is.cells)
}

// Coords returns the cells in discovery order. The slice must not be modified.
func (is *Island) Coords() []world.Coord {
	return is.cells
}

var neighbourOffsets = [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// Detect scans the grid row-major and flood-fills every unvisited walkable
// cell into its own island. The fill uses an explicit stack, so component size
// is bounded only by the grid.
func Detect(g *world.Grid) []*Island {
	visited := make([]bool, g.Size*g.Size)
	var islands []*Island

	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			if visited[r*g.Size+c] || !world.IsWalkable(g.Tiles[r*g.Size+c].Kind) {
				continue
			}
			islands = append(islands, fill(g, world.Coord{Row: r, Col: c}, visited))
		}
	}
	return islands
}

func fill(g *world.Grid, seed world.Coord, visited []bool) *Island {
	is := newIsland()
	stack := []world.Coord{seed}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := cur.Row*g.Size + cur.Col
		if visited[idx] {
			continue
		}
		visited[idx] = true
		is.add(cur)

		for _, off := range neighbourOffsets {
			n := world.Coord{Row: cur.Row + off[0], Col: cur.Col + off[1]}
			if !g.InBounds(n.Row, n.Col) || visited[n.Row*g.Size+n.Col] {
				continue
			}
			if world.IsWalkable(g.At(n).Kind) {
				stack = append(stack, n)
			}
		}
	}
	return is
}
