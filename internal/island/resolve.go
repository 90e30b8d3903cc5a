package island

import (
	"math"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// Target is the pair of cells a connector joins: Start lies on the agent's
// island, End on the destination island.
type Target struct {
	Start world.Coord `json:"start"`
	End   world.Coord `json:"end"`
}

// AgentIsland returns the island containing the agent, or nil.
func AgentIsland(islands []*Island, agent world.Coord) *Island {
	for _, is := range islands {
		if is.Contains(agent) {
			return is
		}
	}
	return nil
}

// NearestOther returns the island, other than own, whose closest cell is
// nearest to the agent by Manhattan distance. Ties go to the island found
// first. Returns nil when own is nil or no other island exists.
func NearestOther(islands []*Island, own *Island, agent world.Coord) *Island {
	if own == nil {
		return nil
	}
	var best *Island
	bestDist := math.MaxInt
	for _, is := range islands {
		if is == own {
			continue
		}
		d := math.MaxInt
		for _, c := range is.cells {
			if m := world.Manhattan(c, agent); m < d {
				d = m
			}
		}
		if d < bestDist {
			best, bestDist = is, d
		}
	}
	return best
}

// ClosestPoints searches the full cross product of the two islands for the
// pair at minimum Manhattan distance. Cells of own that are out of bounds or
// not walkable in g are skipped. The first minimum found is kept.
func ClosestPoints(g *world.Grid, own, target *Island) (Target, bool) {
	if own == nil || target == nil {
		return Target{}, false
	}
	var (
		best  Target
		found bool
		bestD = math.MaxInt
	)
	for _, t := range target.cells {
		for _, a := range own.cells {
			if !g.Walkable(a) {
				continue
			}
			if d := world.Manhattan(t, a); d < bestD {
				bestD = d
				best = Target{Start: a, End: t}
				found = true
			}
		}
	}
	return best, found
}

// Resolve runs detection and target selection on g for an agent at the given
// position. ok is false when the agent is not on a walkable island or no
// other island is known.
func Resolve(g *world.Grid, agent world.Coord) (Target, bool) {
	islands := Detect(g)
	own := AgentIsland(islands, agent)
	other := NearestOther(islands, own, agent)
	if other == nil {
		return Target{}, false
	}
	return ClosestPoints(g, own, other)
}
