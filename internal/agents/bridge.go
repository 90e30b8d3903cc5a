// Bridge building: the convergence loop that re-validates a connector target
// before committing rocks to it.

package agents

import (
	"fmt"
	"log/slog"

	"github.com/nTorre/HolyCrabUI/internal/island"
	"github.com/nTorre/HolyCrabUI/internal/route"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

// Phase is where a PaveBridge call ended up.
type Phase uint8

const (
	PhaseSearching  Phase = iota // Recomputing the target
	PhaseRelocating              // Walking to a candidate start
	PhaseCommitted               // Connector built
	PhaseAborted                 // Target never stabilised
	PhaseIdle                    // No target, or not enough rocks
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "Searching"
	case PhaseRelocating:
		return "Relocating"
	case PhaseCommitted:
		return "Committed"
	case PhaseAborted:
		return "Aborted"
	default:
		return "Idle"
	}
}

// Outcome summarises one PaveBridge call.
type Outcome struct {
	Phase      Phase
	Iterations int
	Target     island.Target
	Cost       int
}

// PaveBridge builds a connector to the nearest other island once enough
// rocks are held and the target stays the same across a relocation. The
// loop runs at most Params.MaxConvergence times; running out halts the
// episode.
func (m *Miner) PaveBridge() Outcome {
	g, target, ok := m.resolveTarget()
	if !ok {
		slog.Debug("no bridge target", "miner", m.Name)
		return Outcome{Phase: PhaseIdle}
	}

	for iter := 0; iter < m.Params.MaxConvergence; iter++ {
		cost := route.PaveCost(g, target.Start, target.End)
		if m.Rocks < cost {
			slog.Debug("not enough rocks for bridge", "miner", m.Name, "rocks", m.Rocks, "cost", cost, "target", target.End)
			return Outcome{Phase: PhaseIdle, Iterations: iter, Target: target, Cost: cost}
		}

		if m.world.Position() != target.Start {
			slog.Debug("relocating to bridge start", "miner", m.Name, "start", target.Start, "iteration", iter)
			if !m.relocate(target.Start) {
				slog.Warn("relocation to bridge start failed", "miner", m.Name,
					"start", target.Start, "at", m.world.Position(), "iteration", iter)
			}
		}

		var next island.Target
		g, next, ok = m.resolveTarget()
		if !ok {
			return Outcome{Phase: PhaseIdle, Iterations: iter + 1}
		}
		if next.End != target.End {
			slog.Debug("bridge target moved", "miner", m.Name, "from", target.End, "to", next.End)
			target = next
			continue
		}

		// Stable target. Build from where the miner actually stands.
		pos := m.world.Position()
		cost = route.PaveCost(g, pos, target.End)
		if m.Rocks < cost {
			return Outcome{Phase: PhaseIdle, Iterations: iter + 1, Target: target, Cost: cost}
		}
		m.State = PavingBridge
		paved := m.buildConnector(target.End)
		m.Rocks -= cost
		m.Bridges++
		slog.Info("bridge built", "miner", m.Name, "from", pos, "to", target.End, "cost", cost, "paved", paved)
		m.note("bridge", "paved connector %v -> %v (%d rocks, %d tiles)", pos, target.End, cost, paved)
		return Outcome{Phase: PhaseCommitted, Iterations: iter + 1, Target: island.Target{Start: pos, End: target.End}, Cost: cost}
	}

	reason := fmt.Sprintf("bridge target kept changing after %d iterations", m.Params.MaxConvergence)
	slog.Warn("game over", "miner", m.Name, "reason", reason)
	slog.Info(m.String())
	m.note("bridge", "episode halted: %s", reason)
	m.beacon.Halt(reason)
	return Outcome{Phase: PhaseAborted, Iterations: m.Params.MaxConvergence, Target: target}
}

// resolveTarget reads a fresh snapshot and resolves the connector target on it.
func (m *Miner) resolveTarget() (*world.Grid, island.Target, bool) {
	g := world.FromSnapshot(m.world.KnownMap())
	t, ok := island.Resolve(g, m.world.Position())
	return g, t, ok
}

// buildConnector paves an L-shaped connector from the miner's position to
// end: the row run first, then the column run. The destination itself is
// not entered. It returns the number of tiles paved.
func (m *Miner) buildConnector(end world.Coord) int {
	pos := m.world.Position()
	dr, dc := end.Row-pos.Row, end.Col-pos.Col
	if dr == 0 && dc == 0 {
		slog.Warn("cannot build, already on the target tile", "miner", m.Name, "at", pos)
		return 0
	}

	rowSteps, colSteps := abs(dr), abs(dc)
	if colSteps == 0 {
		rowSteps--
	} else {
		colSteps--
	}

	paved := 0
	if dr > 0 {
		paved += m.buildRun(world.Down, rowSteps)
	} else if dr < 0 {
		paved += m.buildRun(world.Up, rowSteps)
	}
	if dc > 0 {
		paved += m.buildRun(world.Right, colSteps)
	} else if dc < 0 {
		paved += m.buildRun(world.Left, colSteps)
	}
	return paved
}

// buildRun advances n tiles in dir, paving every blocking tile before
// stepping onto it.
func (m *Miner) buildRun(dir world.Direction, n int) int {
	paved := 0
	for i := 0; i < n; i++ {
		g := world.FromSnapshot(m.world.KnownMap())
		next := m.world.Position().Step(dir)

		if g.InBounds(next.Row, next.Col) && !world.IsWalkable(g.At(next).Kind) {
			kind := g.At(next).Kind
			if !m.put(dir, route.TileCost(kind)) {
				continue
			}
			paved++
			slog.Debug("paved", "miner", m.Name, "at", next, "was", kind)
		}
		m.step(dir)
	}
	return paved
}

// put places qty rocks in dir, retrying once after an energy recharge.
func (m *Miner) put(dir world.Direction, qty int) bool {
	err := m.world.Put(dir, world.ContentRock, qty)
	if err == nil {
		return true
	}
	if m.handleActionError("put "+dir.String(), err) {
		if err = m.world.Put(dir, world.ContentRock, qty); err == nil {
			return true
		}
		m.handleActionError("put "+dir.String(), err)
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
