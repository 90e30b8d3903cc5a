package world

import (
	"fmt"
	"strings"
)

var kindLetters = map[TileKind]byte{
	DeepWater:    'D',
	ShallowWater: 'o',
	Sand:         'S',
	Grass:        'G',
	Street:       'R',
	Hill:         'H',
	Mountain:     'M',
	Snow:         'N',
	Lava:         'L',
	Teleport:     'T',
	Wall:         'W',
}

// Letter returns the single-character map symbol of a tile kind.
func (k TileKind) Letter() byte {
	if b, ok := kindLetters[k]; ok {
		return b
	}
	return '?'
}

// Render draws the grid one letter per tile, rows separated by newlines.
// The agent cell is drawn as '!'.
func Render(g *Grid, agent Coord) string {
	var sb strings.Builder
	sb.Grow(g.Size * (g.Size + 1))
	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			if r == agent.Row && c == agent.Col {
				sb.WriteByte('!')
				continue
			}
			sb.WriteByte(g.Tiles[r*g.Size+c].Kind.Letter())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RenderSnapshot draws a partially known map; undiscovered cells are '-'.
func RenderSnapshot(snap [][]*Tile, agent Coord) []string {
	rows := make([]string, len(snap))
	for r, row := range snap {
		buf := make([]byte, len(row))
		for c, t := range row {
			switch {
			case r == agent.Row && c == agent.Col:
				buf[c] = '!'
			case t == nil:
				buf[c] = '-'
			default:
				buf[c] = t.Kind.Letter()
			}
		}
		rows[r] = string(buf)
	}
	return rows
}

// Parse reads a square map drawn with the Render alphabet. Two extra symbols
// are accepted: 'r' is Grass holding one Rock and '@' marks the start cell,
// which is Grass. '-' and '!' are read as DeepWater and Grass respectively.
func Parse(lines []string) (*Grid, Coord, error) {
	var rows []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		rows = append(rows, l)
	}
	if len(rows) == 0 {
		return nil, Coord{}, fmt.Errorf("parse map: empty input")
	}

	size := len(rows)
	g := NewGrid(size)
	start := Coord{Row: -1, Col: -1}
	for r, row := range rows {
		if len(row) != size {
			return nil, Coord{}, fmt.Errorf("parse map: row %d has %d cells, want %d", r, len(row), size)
		}
		for c := 0; c < size; c++ {
			t, isStart, err := parseCell(row[c])
			if err != nil {
				return nil, Coord{}, fmt.Errorf("parse map: cell (%d,%d): %w", r, c, err)
			}
			if isStart {
				start = Coord{Row: r, Col: c}
			}
			g.Tiles[r*size+c] = t
		}
	}
	return g, start, nil
}

func parseCell(b byte) (Tile, bool, error) {
	switch b {
	case 'r':
		return Tile{Kind: Grass, Content: Content{Kind: ContentRock, Amount: 1}}, false, nil
	case '@', '!':
		return Tile{Kind: Grass}, true, nil
	case '-':
		return Unknown, false, nil
	}
	for k, l := range kindLetters {
		if l == b {
			return Tile{Kind: k}, false, nil
		}
	}
	return Tile{}, false, fmt.Errorf("unknown symbol %q", b)
}
