package sim

import (
	"fmt"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// Discover reveals unknown tiles in square rings around center, innermost
// first, spending RevealCost energy per tile until budget is used up. A ring
// whose known fraction already reaches threshold is skipped. It returns the
// number of tiles revealed, or ErrNoMoreDiscovery if there was nothing left
// to reveal within radius.
func (w *World) Discover(center world.Coord, radius, budget int, threshold float64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	size := w.truth.Size
	spent, revealed := 0, 0

	for ring := 1; ring <= radius; ring++ {
		cells := ringCells(center, ring, w.truth)
		if len(cells) == 0 {
			continue
		}
		known := 0
		for _, c := range cells {
			if w.known[c.Row*size+c.Col] {
				known++
			}
		}
		if float64(known)/float64(len(cells)) >= threshold {
			continue
		}

		for _, c := range cells {
			idx := c.Row*size + c.Col
			if w.known[idx] {
				continue
			}
			if spent+RevealCost > budget {
				return revealed, nil
			}
			if err := w.spend(RevealCost); err != nil {
				if revealed == 0 {
					return 0, fmt.Errorf("discover: %w", err)
				}
				return revealed, nil
			}
			spent += RevealCost
			w.known[idx] = true
			revealed++
			w.stats.Revealed++
		}
	}

	if revealed == 0 {
		return 0, world.ErrNoMoreDiscovery
	}
	return revealed, nil
}

// ringCells returns the in-bounds cells at Chebyshev distance ring from
// center, clockwise from the top-left corner.
func ringCells(center world.Coord, ring int, g *world.Grid) []world.Coord {
	var out []world.Coord
	add := func(r, c int) {
		if g.InBounds(r, c) {
			out = append(out, world.Coord{Row: r, Col: c})
		}
	}
	top, bottom := center.Row-ring, center.Row+ring
	left, right := center.Col-ring, center.Col+ring
	for c := left; c <= right; c++ {
		add(top, c)
	}
	for r := top + 1; r <= bottom; r++ {
		add(r, right)
	}
	for c := right - 1; c >= left; c-- {
		add(bottom, c)
	}
	for r := bottom - 1; r > top; r-- {
		add(r, left)
	}
	return out
}
