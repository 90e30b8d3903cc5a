// Package sim provides a simulated world the miner acts on: hidden terrain
// revealed by movement and discovery scans, an energy budget, a backpack, and
// the paving primitive that turns blocking tiles into street.
package sim

import (
	"fmt"
	"sync"

	"github.com/nTorre/HolyCrabUI/internal/route"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

const (
	MaxEnergy       = 1000
	DefaultCapacity = 40
	DestroyCost     = 3 // Energy per harvest
	RevealCost      = 3 // Energy per tile revealed by Discover
	PutCostPerUnit  = 1 // Energy per rock placed
)

// Options configures a simulated world.
type Options struct {
	Capacity      int                       // Backpack slots; DefaultCapacity if zero
	FullKnowledge bool                      // Reveal the whole map up front
	Backpack      map[world.ContentKind]int // Initial backpack contents
}

// Stats counts the actions the world has accepted.
type Stats struct {
	Steps      int `json:"steps"`
	Harvested  int `json:"harvested"`
	Paved      int `json:"paved"`
	Revealed   int `json:"revealed"`
	Recharges  int `json:"recharges"`
	EnergyUsed int `json:"energy_used"`
}

// World holds the ground truth and everything the agent has learned about it.
// All methods are safe for concurrent use; the engine calls them from a single
// goroutine while the API reads snapshots.
type World struct {
	mu       sync.RWMutex
	truth    *world.Grid
	known    []bool
	pos      world.Coord
	energy   int
	backpack map[world.ContentKind]int
	capacity int
	stats    Stats
}

// New places an agent on truth at start.
func New(truth *world.Grid, start world.Coord, opts Options) (*World, error) {
	if !truth.Walkable(start) {
		return nil, fmt.Errorf("start %v: %w", start, world.ErrCannotWalk)
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	w := &World{
		truth:    truth.Clone(),
		known:    make([]bool, truth.Size*truth.Size),
		pos:      start,
		energy:   MaxEnergy,
		backpack: make(map[world.ContentKind]int),
		capacity: capacity,
	}
	for k, v := range opts.Backpack {
		w.backpack[k] = v
	}
	if opts.FullKnowledge {
		for i := range w.known {
			w.known[i] = true
		}
	}
	w.revealAround(start)
	return w, nil
}

// KnownMap returns the agent's view: nil for undiscovered cells.
func (w *World) KnownMap() [][]*world.Tile {
	w.mu.RLock()
	defer w.mu.RUnlock()

	size := w.truth.Size
	out := make([][]*world.Tile, size)
	for r := 0; r < size; r++ {
		row := make([]*world.Tile, size)
		for c := 0; c < size; c++ {
			if w.known[r*size+c] {
				t := w.truth.Tiles[r*size+c]
				row[c] = &t
			}
		}
		out[r] = row
	}
	return out
}

// Position returns the agent's coordinate.
func (w *World) Position() world.Coord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pos
}

// Energy returns the agent's energy level.
func (w *World) Energy() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.energy
}

// Backpack returns how many items of kind the agent carries.
func (w *World) Backpack(kind world.ContentKind) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.backpack[kind]
}

// Stats returns a copy of the action counters.
func (w *World) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Truth returns a copy of the full map. Only used for rendering and tests.
func (w *World) Truth() *world.Grid {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.truth.Clone()
}

// Go moves the agent one tile.
func (w *World) Go(dir world.Direction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.pos.Step(dir)
	if !w.truth.InBounds(next.Row, next.Col) {
		return fmt.Errorf("go %s: %w", dir, world.ErrOutOfBounds)
	}
	kind := w.truth.At(next).Kind
	if !world.IsWalkable(kind) {
		return fmt.Errorf("go %s onto %s: %w", dir, kind, world.ErrCannotWalk)
	}
	if err := w.spend(kind.WalkCost()); err != nil {
		return fmt.Errorf("go %s: %w", dir, err)
	}
	w.pos = next
	w.stats.Steps++
	w.revealAround(next)
	return nil
}

// Destroy harvests the content of the adjacent tile into the backpack and
// returns the amount collected.
func (w *World) Destroy(dir world.Direction) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	target := w.pos.Step(dir)
	if !w.truth.InBounds(target.Row, target.Col) {
		return 0, fmt.Errorf("destroy %s: %w", dir, world.ErrOutOfBounds)
	}
	tile := w.truth.At(target)
	w.known[target.Row*w.truth.Size+target.Col] = true
	if tile.Content.Kind == world.ContentNone || tile.Content.Amount <= 0 {
		return 0, fmt.Errorf("destroy %s: %w", dir, world.ErrNoContent)
	}
	if !tile.Content.Kind.Harvestable() {
		return 0, fmt.Errorf("destroy %s %s: %w", dir, tile.Content.Kind, world.ErrCannotDestroy)
	}
	free := w.capacity - w.carried()
	if free <= 0 {
		return 0, fmt.Errorf("destroy %s: %w", dir, world.ErrNotEnoughSpace)
	}
	if err := w.spend(DestroyCost); err != nil {
		return 0, fmt.Errorf("destroy %s: %w", dir, err)
	}

	kind := tile.Content.Kind
	n := tile.Content.Amount
	if n > free {
		n = free
	}
	tile.Content.Amount -= n
	if tile.Content.Amount == 0 {
		tile.Content = world.Content{}
	}
	w.truth.Set(target, tile)
	w.backpack[kind] += n
	w.stats.Harvested += n
	return n, nil
}

// Put places qty items of kind on the adjacent tile. Only rocks can be
// placed; enough rocks on a blocking tile pave it into street.
func (w *World) Put(dir world.Direction, kind world.ContentKind, qty int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	target := w.pos.Step(dir)
	if !w.truth.InBounds(target.Row, target.Col) {
		return fmt.Errorf("put %s: %w", dir, world.ErrOutOfBounds)
	}
	if kind != world.ContentRock {
		return fmt.Errorf("put %s %s: %w", dir, kind, world.ErrCannotPlaceHere)
	}
	tile := w.truth.At(target)
	if tile.Content.Kind != world.ContentNone {
		return fmt.Errorf("put %s: %w", dir, world.ErrMustDestroyContentFirst)
	}
	need := route.TileCost(tile.Kind)
	if need < 1 {
		need = 1
	}
	if qty < need || w.backpack[world.ContentRock] < qty {
		return fmt.Errorf("put %s: have %d, need %d: %w",
			dir, w.backpack[world.ContentRock], need, world.ErrNotEnoughMaterial)
	}
	if err := w.spend(qty * PutCostPerUnit); err != nil {
		return fmt.Errorf("put %s: %w", dir, err)
	}

	w.backpack[world.ContentRock] -= qty
	tile.Kind = world.Street
	w.truth.Set(target, tile)
	w.known[target.Row*w.truth.Size+target.Col] = true
	w.stats.Paved++
	return nil
}

// Recharge refills the agent's energy.
func (w *World) Recharge() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.energy = MaxEnergy
	w.stats.Recharges++
}

func (w *World) spend(n int) error {
	if w.energy < n {
		return world.ErrNotEnoughEnergy
	}
	w.energy -= n
	w.stats.EnergyUsed += n
	return nil
}

func (w *World) carried() int {
	n := 0
	for _, v := range w.backpack {
		n += v
	}
	return n
}

// revealAround marks the 3x3 block around c as known. Caller holds the lock
// or owns w exclusively.
func (w *World) revealAround(c world.Coord) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			r, col := c.Row+dr, c.Col+dc
			if w.truth.InBounds(r, col) {
				w.known[r*w.truth.Size+col] = true
			}
		}
	}
}
