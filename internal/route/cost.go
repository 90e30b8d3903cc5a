// Package route computes connector construction costs and ranks known
// resource tiles by their travel cost.
package route

import (
	"sort"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// TileCost is the number of rocks needed to pave a tile of the given kind.
func TileCost(kind world.TileKind) int {
	switch kind {
	case world.DeepWater, world.Lava:
		return 3
	case world.ShallowWater:
		return 2
	case world.Mountain:
		return 0
	default:
		return 1
	}
}

// PaveCost sums TileCost along the L-shaped connector from one cell to
// another: first along the row axis holding the column at from.Col, then
// along the column axis holding the row at to.Row. The last tile stepped onto
// is the destination and is not counted. Cells outside g count as deep water.
func PaveCost(g *world.Grid, from, to world.Coord) int {
	cost, last := 0, 0
	cur := from

	for cur.Row != to.Row {
		cur.Row += sign(to.Row - cur.Row)
		last = tileCostAt(g, cur)
		cost += last
	}
	for cur.Col != to.Col {
		cur.Col += sign(to.Col - cur.Col)
		last = tileCostAt(g, cur)
		cost += last
	}
	return cost - last
}

func tileCostAt(g *world.Grid, c world.Coord) int {
	if !g.InBounds(c.Row, c.Col) {
		return TileCost(world.DeepWater)
	}
	return TileCost(g.At(c).Kind)
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// CostIndex answers the cheapest known travel cost from the agent's current
// position. It must be refreshed by the caller before use.
type CostIndex interface {
	Cost(c world.Coord) (int, bool)
}

// ContentRouteCost returns the cheapest known route cost to c, or false when
// c is unreachable with current knowledge.
func ContentRouteCost(idx CostIndex, c world.Coord) (int, bool) {
	return idx.Cost(c)
}

// Entry pairs a candidate coordinate with its route cost.
type Entry struct {
	Cost  int         `json:"cost"`
	Coord world.Coord `json:"coord"`
}

// SortEntries orders entries by ascending cost, then row, then column.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if a.Coord.Row != b.Coord.Row {
			return a.Coord.Row < b.Coord.Row
		}
		return a.Coord.Col < b.Coord.Col
	})
}

// Rank returns every reachable tile of g holding the given content, cheapest
// first. exclude is skipped (usually the agent's own cell).
func Rank(g *world.Grid, idx CostIndex, kind world.ContentKind, exclude world.Coord) []Entry {
	var entries []Entry
	for _, c := range g.FindContent(kind) {
		if c == exclude {
			continue
		}
		if cost, ok := ContentRouteCost(idx, c); ok {
			entries = append(entries, Entry{Cost: cost, Coord: c})
		}
	}
	SortEntries(entries)
	return entries
}
