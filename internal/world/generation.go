// World generation using layered simplex noise.
// Elevation shapes an archipelago, a heat layer places lava fields, and rocks
// are scattered over walkable land.

package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Size         int     // Grid side length
	Seed         int64   // Random seed (0 = random)
	SeaLevel     float64 // Elevation below which tiles are deep water (0.0–1.0)
	ShallowLevel float64 // Elevation below which tiles are shallow water
	MountainLvl  float64 // Elevation above which tiles are mountains
	LavaLevel    float64 // Heat above which land turns to lava
	RockDensity  float64 // Probability that a walkable tile holds a rock
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Size:         64,
		Seed:         0,
		SeaLevel:     0.30,
		ShallowLevel: 0.36,
		MountainLvl:  0.80,
		LavaLevel:    0.82,
		RockDensity:  0.06,
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Size = 24
	cfg.Seed = 42
	return cfg
}

// Generate creates a complete world grid with terrain and rocks.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)
	heatNoise := opensimplex.NewNormalized(seed + 2)
	rng := rand.New(rand.NewSource(seed + 100))

	g := NewGrid(cfg.Size)
	half := float64(cfg.Size) / 2

	for r := 0; r < cfg.Size; r++ {
		for c := 0; c < cfg.Size; c++ {
			x, y := float64(c), float64(r)

			elev := octaveNoise(elevNoise, x, y, 4, 0.09, 0.5)
			moist := octaveNoise(moistNoise, x, y, 3, 0.07, 0.5)
			heat := octaveNoise(heatNoise, x, y, 2, 0.11, 0.5)

			// Push the border under water so every map is surrounded by sea.
			dx, dy := (x-half)/half, (y-half)/half
			dist := math.Max(math.Abs(dx), math.Abs(dy))
			falloff := 1.0 - math.Pow(dist, 4)
			if falloff < 0 {
				falloff = 0
			}
			elev *= falloff

			kind := deriveKind(elev, moist, heat, cfg)
			t := Tile{Kind: kind, Elevation: int(elev * 100)}
			if IsWalkable(kind) && kind != Mountain && rng.Float64() < cfg.RockDensity {
				t.Content = Content{Kind: ContentRock, Amount: 1 + rng.Intn(3)}
			}
			g.Tiles[r*cfg.Size+c] = t
		}
	}

	return g
}

// deriveKind determines the tile kind from environmental parameters.
func deriveKind(elev, moist, heat float64, cfg GenConfig) TileKind {
	if elev < cfg.SeaLevel {
		return DeepWater
	}
	if elev < cfg.ShallowLevel {
		return ShallowWater
	}
	if heat > cfg.LavaLevel {
		return Lava
	}
	if elev > cfg.MountainLvl {
		if heat < 0.3 {
			return Snow
		}
		return Mountain
	}
	if elev < cfg.ShallowLevel+0.04 {
		return Sand
	}
	if elev > 0.65 {
		return Hill
	}
	if moist < 0.2 {
		return Sand
	}
	return Grass
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// FindStart returns the walkable tile closest to the grid centre, scanning
// outward ring by ring. ok is false when the grid has no walkable tile.
func FindStart(g *Grid) (Coord, bool) {
	center := Coord{Row: g.Size / 2, Col: g.Size / 2}
	best, bestDist := Coord{}, -1
	for i, t := range g.Tiles {
		if !IsWalkable(t.Kind) {
			continue
		}
		c := Coord{Row: i / g.Size, Col: i % g.Size}
		if d := Manhattan(c, center); bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist >= 0
}
