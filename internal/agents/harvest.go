package agents

import (
	"log/slog"

	"github.com/nTorre/HolyCrabUI/internal/goals"
	"github.com/nTorre/HolyCrabUI/internal/route"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

// MoveAndCollect heads for the cheapest known tile holding kind, harvests it
// from the neighbouring cell and steps onto it. When the miner ends the call
// where it started, the escalation ladder runs.
func (m *Miner) MoveAndCollect(kind world.ContentKind) {
	start := m.world.Position()
	m.State = CollectingRocks

	entries := m.rankResources(kind)
	if len(entries) == 0 {
		slog.Info("no candidate", "miner", m.Name, "content", kind)
	} else {
		m.harvestAt(entries[0].Coord, kind)
	}

	if m.world.Position() == start {
		m.escalate()
	}
}

// refreshIndex loads the current known map into the index and recomputes
// costs from the miner's position.
func (m *Miner) refreshIndex() (*world.Grid, bool) {
	g := world.FromSnapshot(m.world.KnownMap())
	m.index.Update(g)
	if err := m.index.Recompute(m.world.Position()); err != nil {
		slog.Warn("cost index refresh failed", "miner", m.Name, "error", err)
		return g, false
	}
	return g, true
}

// rankResources returns every reachable known tile holding kind, cheapest
// first, excluding the miner's own cell.
func (m *Miner) rankResources(kind world.ContentKind) []route.Entry {
	g, ok := m.refreshIndex()
	if !ok {
		return nil
	}
	return route.Rank(g, m.index, kind, m.world.Position())
}

// harvestAt follows the index path to target, harvesting before the final
// step. The index must have been refreshed from the current position.
func (m *Miner) harvestAt(target world.Coord, kind world.ContentKind) bool {
	path, err := m.index.Path(target)
	if err != nil {
		slog.Warn("no path to resource", "miner", m.Name, "target", target, "error", err)
		return false
	}

	for i, dir := range path {
		if i == len(path)-1 {
			m.harvest(dir, kind)
		}
		if !m.step(dir) {
			return false
		}
	}
	return true
}

func (m *Miner) harvest(dir world.Direction, kind world.ContentKind) int {
	n, err := m.world.Destroy(dir)
	if err != nil {
		m.handleActionError("destroy "+dir.String(), err)
		return 0
	}
	m.syncRocks()
	if done := m.Goals.UpdateManual(goals.GetItems, kind, n); done > 0 {
		slog.Info("goal reached", "miner", m.Name, "content", kind)
	}
	target := m.world.Position().Step(dir)
	slog.Debug("harvested", "miner", m.Name, "at", target, "content", kind, "amount", n, "rocks", m.Rocks)
	m.note("harvest", "harvested %d %s at %v", n, kind, target)
	return n
}

// relocate walks the index path to dest. It reports whether the miner
// arrived.
func (m *Miner) relocate(dest world.Coord) bool {
	if _, ok := m.refreshIndex(); !ok {
		return false
	}
	path, err := m.index.Path(dest)
	if err != nil {
		slog.Warn("cannot relocate", "miner", m.Name, "dest", dest, "error", err)
		return false
	}
	for _, dir := range path {
		if !m.step(dir) {
			return false
		}
	}
	return m.world.Position() == dest
}
