package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

func newWorld(t *testing.T, opts Options, lines ...string) *World {
	t.Helper()
	g, start, err := world.Parse(lines)
	require.NoError(t, err)
	w, err := New(g, start, opts)
	require.NoError(t, err)
	return w
}

func TestNewRejectsBlockedStart(t *testing.T) {
	g, _, err := world.Parse([]string{"LG", "GG"})
	require.NoError(t, err)
	_, err = New(g, world.Coord{}, Options{})
	assert.ErrorIs(t, err, world.ErrCannotWalk)
}

func TestRevealOnStartAndMove(t *testing.T) {
	w := newWorld(t, Options{},
		"@GGGG",
		"GGGGG",
		"GGGGG",
		"GGGGG",
		"GGGGG",
	)
	known := w.KnownMap()
	assert.NotNil(t, known[1][1])
	assert.Nil(t, known[2][2])

	require.NoError(t, w.Go(world.Down))
	require.NoError(t, w.Go(world.Right))
	assert.Equal(t, world.Coord{Row: 1, Col: 1}, w.Position())
	assert.NotNil(t, w.KnownMap()[2][2])
	assert.Equal(t, MaxEnergy-2, w.Energy())
	assert.Equal(t, 2, w.Stats().Steps)
}

func TestGoErrors(t *testing.T) {
	w := newWorld(t, Options{},
		"@L",
		"GG",
	)
	assert.ErrorIs(t, w.Go(world.Up), world.ErrOutOfBounds)
	assert.ErrorIs(t, w.Go(world.Right), world.ErrCannotWalk)
	assert.Equal(t, world.Coord{}, w.Position())
	assert.Equal(t, MaxEnergy, w.Energy())
}

func TestGoNotEnoughEnergy(t *testing.T) {
	w := newWorld(t, Options{},
		"@M",
		"GG",
	)
	w.energy = 4
	assert.ErrorIs(t, w.Go(world.Right), world.ErrNotEnoughEnergy)
	w.Recharge()
	assert.Equal(t, MaxEnergy, w.Energy())
	require.NoError(t, w.Go(world.Right))
	assert.Equal(t, MaxEnergy-5, w.Energy())
}

func TestDestroyHarvestsRock(t *testing.T) {
	w := newWorld(t, Options{},
		"@r",
		"GG",
	)
	n, err := w.Destroy(world.Right)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, w.Backpack(world.ContentRock))
	assert.Equal(t, world.ContentNone, w.KnownMap()[0][1].Content.Kind)

	_, err = w.Destroy(world.Right)
	assert.ErrorIs(t, err, world.ErrNoContent)
	_, err = w.Destroy(world.Up)
	assert.ErrorIs(t, err, world.ErrOutOfBounds)
}

func TestDestroyRespectsCapacity(t *testing.T) {
	g, start, err := world.Parse([]string{"@G", "GG"})
	require.NoError(t, err)
	g.Set(world.Coord{Row: 0, Col: 1}, world.Tile{
		Kind:    world.Grass,
		Content: world.Content{Kind: world.ContentRock, Amount: 5},
	})
	w, err := New(g, start, Options{Capacity: 3})
	require.NoError(t, err)

	n, err := w.Destroy(world.Right)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, w.KnownMap()[0][1].Content.Amount)

	_, err = w.Destroy(world.Right)
	assert.ErrorIs(t, err, world.ErrNotEnoughSpace)
}

func TestDestroyCannotDestroyBuildings(t *testing.T) {
	g, start, err := world.Parse([]string{"@G", "GG"})
	require.NoError(t, err)
	g.Set(world.Coord{Row: 1, Col: 0}, world.Tile{
		Kind:    world.Grass,
		Content: world.Content{Kind: world.ContentBank, Amount: 1},
	})
	w, err := New(g, start, Options{})
	require.NoError(t, err)
	_, err = w.Destroy(world.Down)
	assert.ErrorIs(t, err, world.ErrCannotDestroy)
}

func TestPutPavesLava(t *testing.T) {
	w := newWorld(t, Options{Backpack: map[world.ContentKind]int{world.ContentRock: 5}},
		"@LG",
		"GLG",
		"GLG",
	)
	err := w.Put(world.Right, world.ContentRock, 2)
	assert.ErrorIs(t, err, world.ErrNotEnoughMaterial)

	require.NoError(t, w.Put(world.Right, world.ContentRock, 3))
	assert.Equal(t, 2, w.Backpack(world.ContentRock))
	assert.Equal(t, world.Street, w.KnownMap()[0][1].Kind)
	require.NoError(t, w.Go(world.Right))
	assert.Equal(t, 1, w.Stats().Paved)

	err = w.Put(world.Right, world.ContentTree, 1)
	assert.ErrorIs(t, err, world.ErrCannotPlaceHere)
}

func TestPutNeedsEmptyTile(t *testing.T) {
	w := newWorld(t, Options{Backpack: map[world.ContentKind]int{world.ContentRock: 5}},
		"@r",
		"GG",
	)
	assert.ErrorIs(t, w.Put(world.Right, world.ContentRock, 1), world.ErrMustDestroyContentFirst)
}

func TestPutWithoutRocks(t *testing.T) {
	w := newWorld(t, Options{},
		"@o",
		"GG",
	)
	assert.ErrorIs(t, w.Put(world.Right, world.ContentRock, 2), world.ErrNotEnoughMaterial)
}

func TestDiscover(t *testing.T) {
	lines := make([]string, 9)
	for i := range lines {
		lines[i] = "GGGGGGGGG"
	}
	lines[4] = "GGGG@GGGG"
	w := newWorld(t, Options{}, lines...)

	n, err := w.Discover(world.Coord{Row: 4, Col: 4}, 4, 300, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 81-9, n)
	assert.Equal(t, MaxEnergy-RevealCost*n, w.Energy())

	_, err = w.Discover(world.Coord{Row: 4, Col: 4}, 4, 300, 0.5)
	assert.ErrorIs(t, err, world.ErrNoMoreDiscovery)
}

func TestDiscoverBudget(t *testing.T) {
	lines := make([]string, 9)
	for i := range lines {
		lines[i] = "GGGGGGGGG"
	}
	lines[4] = "GGGG@GGGG"
	w := newWorld(t, Options{}, lines...)

	n, err := w.Discover(world.Coord{Row: 4, Col: 4}, 4, 30, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestDiscoverSkipsMostlyKnownRings(t *testing.T) {
	w := newWorld(t, Options{FullKnowledge: true},
		"@G",
		"GG",
	)
	_, err := w.Discover(world.Coord{}, 3, 300, 0.5)
	assert.ErrorIs(t, err, world.ErrNoMoreDiscovery)
}
