package world

import "fmt"

// Coord is a (row, col) position. Values may go negative during offset
// arithmetic; check Grid.InBounds before indexing.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Step returns the neighbouring coordinate in the given direction.
func (c Coord) Step(d Direction) Coord {
	dr, dc := d.Offset()
	return Coord{Row: c.Row + dr, Col: c.Col + dc}
}

// Manhattan returns the 4-directional distance between two coordinates.
func Manhattan(a, b Coord) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// Direction is one of the four moves available to the agent.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists the four moves in a fixed order.
var Directions = [4]Direction{Up, Down, Left, Right}

// Offset returns the (row, col) delta of a direction.
func (d Direction) Offset() (int, int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	default:
		return 0, 1
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Left:
		return "Left"
	default:
		return "Right"
	}
}

// Grid is a square, row-major tile grid.
type Grid struct {
	Size  int    `json:"size"`
	Tiles []Tile `json:"tiles"` // Tiles[row*Size + col]
}

// NewGrid creates a grid of the given size filled with the Unknown placeholder.
func NewGrid(size int) *Grid {
	tiles := make([]Tile, size*size)
	for i := range tiles {
		tiles[i] = Unknown
	}
	return &Grid{Size: size, Tiles: tiles}
}

// FromSnapshot materialises a world snapshot. Unknown (nil) cells become
// DeepWater placeholders so they are never treated as walkable.
func FromSnapshot(snap [][]*Tile) *Grid {
	g := NewGrid(len(snap))
	for r, row := range snap {
		for c, t := range row {
			if t != nil && c < g.Size {
				g.Tiles[r*g.Size+c] = *t
			}
		}
	}
	return g
}

// InBounds returns true if both coordinates are within [0, Size).
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.Size && col < g.Size
}

// At returns the tile at c. Callers must check InBounds first.
func (g *Grid) At(c Coord) Tile {
	return g.Tiles[c.Row*g.Size+c.Col]
}

// Set replaces the tile at c.
func (g *Grid) Set(c Coord, t Tile) {
	g.Tiles[c.Row*g.Size+c.Col] = t
}

// Walkable combines the bounds check and the walkability rule.
func (g *Grid) Walkable(c Coord) bool {
	return g.InBounds(c.Row, c.Col) && IsWalkable(g.At(c).Kind)
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	tiles := make([]Tile, len(g.Tiles))
	copy(tiles, g.Tiles)
	return &Grid{Size: g.Size, Tiles: tiles}
}

// FindContent returns, in row-major order, every coordinate whose tile
// holds content of the given kind.
func (g *Grid) FindContent(kind ContentKind) []Coord {
	var out []Coord
	for i, t := range g.Tiles {
		if t.Content.Kind == kind && t.Content.Amount > 0 {
			out = append(out, Coord{Row: i / g.Size, Col: i % g.Size})
		}
	}
	return out
}

// KindCounts returns a summary of the terrain distribution.
func KindCounts(g *Grid) map[TileKind]int {
	counts := make(map[TileKind]int)
	for _, t := range g.Tiles {
		counts[t.Kind]++
	}
	return counts
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(size=%d, tiles=%d)", g.Size, len(g.Tiles))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
