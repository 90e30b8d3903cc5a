package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

type staticIndex map[world.Coord]int

func (s staticIndex) Cost(c world.Coord) (int, bool) {
	v, ok := s[c]
	return v, ok
}

func parse(t *testing.T, lines ...string) *world.Grid {
	t.Helper()
	g, _, err := world.Parse(lines)
	require.NoError(t, err)
	return g
}

func TestTileCost(t *testing.T) {
	tests := []struct {
		kind world.TileKind
		want int
	}{
		{world.DeepWater, 3},
		{world.Lava, 3},
		{world.ShallowWater, 2},
		{world.Mountain, 0},
		{world.Grass, 1},
		{world.Sand, 1},
		{world.Street, 1},
		{world.Wall, 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TileCost(tt.kind))
		})
	}
}

func TestPaveCostStraightLavaRow(t *testing.T) {
	g := parse(t,
		"GLLLG",
		"DDDDD",
		"DDDDD",
		"DDDDD",
		"DDDDD",
	)
	from := world.Coord{Row: 0, Col: 0}
	to := world.Coord{Row: 0, Col: 4}
	assert.Equal(t, 9, PaveCost(g, from, to))
	assert.Equal(t, 9, PaveCost(g, to, from))
}

func TestPaveCostSameCell(t *testing.T) {
	g := parse(t, "GL", "LG")
	c := world.Coord{Row: 1, Col: 1}
	assert.Zero(t, PaveCost(g, c, c))
}

func TestPaveCostRowThenColumn(t *testing.T) {
	g := parse(t,
		"GoooD",
		"LDDDD",
		"LDDDD",
		"MMMMG",
		"DDDDD",
	)
	// Down the first column over two lava tiles and a mountain, then right
	// along row 3 over three mountains to the destination.
	assert.Equal(t, 6, PaveCost(g, world.Coord{Row: 0, Col: 0}, world.Coord{Row: 3, Col: 4}))
}

func TestPaveCostAxisAlignedSymmetry(t *testing.T) {
	g := world.Generate(world.SmallTestConfig())
	for r := 0; r < g.Size; r += 3 {
		a := world.Coord{Row: r, Col: 1}
		b := world.Coord{Row: r, Col: g.Size - 2}
		assert.Equal(t, PaveCost(g, a, b), PaveCost(g, b, a), "row %d", r)

		c := world.Coord{Row: 1, Col: r}
		d := world.Coord{Row: g.Size - 2, Col: r}
		assert.Equal(t, PaveCost(g, c, d), PaveCost(g, d, c), "col %d", r)
	}
}

func TestPaveCostUniformIsSymmetric(t *testing.T) {
	g := world.NewGrid(6)
	a := world.Coord{Row: 0, Col: 1}
	b := world.Coord{Row: 5, Col: 4}
	assert.Equal(t, PaveCost(g, a, b), PaveCost(g, b, a))
	assert.Equal(t, 3*(5+3-1), PaveCost(g, a, b))
}

func TestPaveCostNonNegative(t *testing.T) {
	g := world.Generate(world.SmallTestConfig())
	for i := 0; i < g.Size; i += 2 {
		for j := 0; j < g.Size; j += 5 {
			from := world.Coord{Row: i, Col: j}
			to := world.Coord{Row: j, Col: i}
			assert.GreaterOrEqual(t, PaveCost(g, from, to), 0)
		}
	}
}

func TestSortEntries(t *testing.T) {
	entries := []Entry{
		{Cost: 5, Coord: world.Coord{Row: 1, Col: 1}},
		{Cost: 2, Coord: world.Coord{Row: 3, Col: 3}},
		{Cost: 8, Coord: world.Coord{Row: 0, Col: 0}},
	}
	SortEntries(entries)
	assert.Equal(t, []Entry{
		{Cost: 2, Coord: world.Coord{Row: 3, Col: 3}},
		{Cost: 5, Coord: world.Coord{Row: 1, Col: 1}},
		{Cost: 8, Coord: world.Coord{Row: 0, Col: 0}},
	}, entries)
}

func TestSortEntriesTiesByCoord(t *testing.T) {
	entries := []Entry{
		{Cost: 4, Coord: world.Coord{Row: 2, Col: 1}},
		{Cost: 4, Coord: world.Coord{Row: 1, Col: 5}},
		{Cost: 4, Coord: world.Coord{Row: 1, Col: 2}},
	}
	SortEntries(entries)
	assert.Equal(t, world.Coord{Row: 1, Col: 2}, entries[0].Coord)
	assert.Equal(t, world.Coord{Row: 1, Col: 5}, entries[1].Coord)
	assert.Equal(t, world.Coord{Row: 2, Col: 1}, entries[2].Coord)
}

func TestRank(t *testing.T) {
	g := parse(t,
		"@GrG",
		"GGGG",
		"rGGr",
		"GGGr",
	)
	idx := staticIndex{
		{Row: 0, Col: 2}: 5,
		{Row: 2, Col: 0}: 2,
		{Row: 2, Col: 3}: 8,
		// (3,3) holds a rock but is unknown to the index.
	}
	got := Rank(g, idx, world.ContentRock, world.Coord{})
	require.Len(t, got, 3)
	assert.Equal(t, world.Coord{Row: 2, Col: 0}, got[0].Coord)
	assert.Equal(t, 2, got[0].Cost)
	assert.Equal(t, world.Coord{Row: 2, Col: 3}, got[2].Coord)

	excluded := Rank(g, idx, world.ContentRock, world.Coord{Row: 2, Col: 0})
	require.Len(t, excluded, 2)
	assert.Equal(t, world.Coord{Row: 0, Col: 2}, excluded[0].Coord)

	assert.Empty(t, Rank(g, idx, world.ContentTree, world.Coord{}))
}
