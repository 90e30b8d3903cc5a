package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// Stage is how far the no-progress escalation went in one tick.
type Stage uint8

const (
	StageWiden  Stage = iota // Radius widened, vicinity swept
	StageInline              // Also walked a line harvesting rocks
	StageAbort               // Episode halted
)

func (s Stage) String() string {
	switch s {
	case StageInline:
		return "inline"
	case StageAbort:
		return "abort"
	default:
		return "widen"
	}
}

// escalate widens the discovery radius, sweeps the vicinity, and depending
// on how wide the radius has grown falls back to inline collection or ends
// the episode.
func (m *Miner) escalate() Stage {
	inc := m.Params.ScanIncrease
	m.ScanDistance += inc
	m.WorldScanned = false
	m.Widenings++
	slog.Info("increased scan", "miner", m.Name, "radius", m.ScanDistance, "widenings", m.Widenings)
	m.note("escalation", "no progress, discovery radius widened to %d", m.ScanDistance)

	m.collectAround(m.Params.CollectRange)

	switch {
	case m.ScanDistance > 4*inc:
		reason := fmt.Sprintf("no reachable %s within radius %d", m.Params.Resource, m.ScanDistance)
		slog.Warn("game over", "miner", m.Name, "reason", reason)
		slog.Info(m.String())
		m.note("escalation", "episode halted: %s", reason)
		m.beacon.Halt(reason)
		return StageAbort
	case m.ScanDistance > 3*inc:
		m.collectInline(world.Up)
		return StageInline
	default:
		return StageWiden
	}
}

// collectAround discovers the square of the given radius around the miner
// and harvests every reachable resource tile inside it.
func (m *Miner) collectAround(radius int) int {
	center := m.world.Position()
	if _, err := m.world.Discover(center, radius, m.Params.EnergyBudget, 1.0); err != nil &&
		!errors.Is(err, world.ErrNoMoreDiscovery) {
		m.handleActionError("discover vicinity", err)
	}

	collected := 0
	attempts := (2*radius + 1) * (2*radius + 1)
	for i := 0; i < attempts; i++ {
		var target *world.Coord
		for _, e := range m.rankResources(m.Params.Resource) {
			if chebyshev(e.Coord, center) <= radius {
				c := e.Coord
				target = &c
				break
			}
		}
		if target == nil {
			break
		}
		before := m.world.Backpack(m.Params.Resource)
		if !m.harvestAt(*target, m.Params.Resource) {
			break
		}
		collected += m.world.Backpack(m.Params.Resource) - before
	}
	if collected > 0 {
		m.note("harvest", "vicinity sweep collected %d", collected)
	}
	return collected
}

// collectInline walks in dir until blocked, harvesting rocks ahead and to
// both sides along the way.
func (m *Miner) collectInline(dir world.Direction) int {
	collected := 0
	sides := sideDirections(dir)

	for steps := 0; steps < m.Params.ScanIncrease; steps++ {
		for _, d := range []world.Direction{dir, sides[0], sides[1]} {
			collected += m.takeRock(d)
		}

		g := world.FromSnapshot(m.world.KnownMap())
		next := m.world.Position().Step(dir)
		if !g.Walkable(next) || !m.step(dir) {
			break
		}
	}
	m.syncRocks()
	slog.Info("inline collection finished", "miner", m.Name, "direction", dir, "collected", collected)
	m.note("harvest", "inline collection toward %s collected %d", dir, collected)
	return collected
}

func (m *Miner) takeRock(d world.Direction) int {
	target := m.world.Position().Step(d)
	g := world.FromSnapshot(m.world.KnownMap())
	if !g.InBounds(target.Row, target.Col) || g.At(target).Content.Kind != world.ContentRock {
		return 0
	}
	return m.harvest(d, world.ContentRock)
}

func sideDirections(d world.Direction) [2]world.Direction {
	if d == world.Up || d == world.Down {
		return [2]world.Direction{world.Left, world.Right}
	}
	return [2]world.Direction{world.Up, world.Down}
}

func chebyshev(a, b world.Coord) int {
	dr, dc := a.Row-b.Row, a.Col-b.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return max(dr, dc)
}
