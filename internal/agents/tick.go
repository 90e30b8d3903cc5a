package agents

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/nTorre/HolyCrabUI/internal/beacon"
	"github.com/nTorre/HolyCrabUI/internal/goals"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

// ProcessTick runs one decision cycle and returns what happened.
// Order: discovery scan, goal upkeep, map log, harvest, bridge, energy,
// status publication.
func (m *Miner) ProcessTick(tick uint64) []Note {
	m.tick = tick
	m.notes = nil

	m.scanWorld()
	m.handleGoals()
	m.logMap()
	m.MoveAndCollect(m.Params.Resource)
	if !m.beacon.Halted() {
		m.PaveBridge()
	}
	m.manageEnergy()
	m.publish()

	return m.notes
}

// scanWorld runs a discovery scan once per radius.
func (m *Miner) scanWorld() {
	if m.WorldScanned {
		return
	}
	m.WorldScanned = true

	pos := m.world.Position()
	n, err := m.world.Discover(pos, m.ScanDistance, m.Params.EnergyBudget, m.Params.ViewThreshold)
	switch {
	case err == nil:
		slog.Info("scan complete", "miner", m.Name, "radius", m.ScanDistance, "revealed", n)
		m.note("discovery", "scanned radius %d around %v, revealed %d tiles", m.ScanDistance, pos, n)
	case errors.Is(err, world.ErrNoMoreDiscovery):
		slog.Info("scan found nothing new", "miner", m.Name, "radius", m.ScanDistance)
	default:
		slog.Warn("scan failed", "miner", m.Name, "radius", m.ScanDistance, "error", err)
		m.handleActionError("discover", err)
	}
}

// handleGoals adds a collection goal when none is active and otherwise
// drops completed ones.
func (m *Miner) handleGoals() {
	if m.Goals.Len() == 0 {
		m.Goals.Add(goals.ForContent(m.Params.Resource, m.Params.GoalQuantity))
		return
	}
	if n := m.Goals.CleanCompleted(); n > 0 {
		slog.Info("goals completed", "miner", m.Name, "count", n, "total", m.Goals.CompletedCount())
		m.note("goal", "%d goal(s) completed", n)
	}
}

func (m *Miner) logMap() {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	rows := world.RenderSnapshot(m.world.KnownMap(), m.world.Position())
	slog.Debug("known map", "miner", m.Name, "tick", m.tick, "map", "\n"+strings.Join(rows, "\n"))
}

// manageEnergy recharges when energy drops below the configured floor.
func (m *Miner) manageEnergy() {
	if m.world.Energy() < m.Params.MinEnergy {
		m.recharge()
	}
}

func (m *Miner) recharge() {
	m.world.Recharge()
	slog.Debug("recharged", "miner", m.Name, "energy", m.world.Energy())
}

// handleActionError logs a failed action. Energy failures trigger a
// recharge; the return value reports whether the action may be retried.
func (m *Miner) handleActionError(op string, err error) bool {
	switch {
	case errors.Is(err, world.ErrNotEnoughEnergy):
		slog.Warn("not enough energy, recharging", "miner", m.Name, "op", op)
		m.recharge()
		return true
	case errors.Is(err, world.ErrOutOfBounds),
		errors.Is(err, world.ErrNoContent),
		errors.Is(err, world.ErrNotEnoughSpace),
		errors.Is(err, world.ErrCannotDestroy),
		errors.Is(err, world.ErrNotCraftable),
		errors.Is(err, world.ErrNoMoreDiscovery),
		errors.Is(err, world.ErrCannotWalk),
		errors.Is(err, world.ErrCannotPlaceHere),
		errors.Is(err, world.ErrNotEnoughMaterial),
		errors.Is(err, world.ErrNoRockHere),
		errors.Is(err, world.ErrMustDestroyContentFirst):
		slog.Warn("action failed", "miner", m.Name, "op", op, "error", err)
	default:
		slog.Error("unexpected action failure", "miner", m.Name, "op", op, "error", err)
	}
	return false
}

// step moves one tile, retrying once after an energy recharge.
func (m *Miner) step(dir world.Direction) bool {
	m.manageEnergy()
	err := m.world.Go(dir)
	if err == nil {
		return true
	}
	if m.handleActionError("go "+dir.String(), err) {
		if err = m.world.Go(dir); err == nil {
			return true
		}
		m.handleActionError("go "+dir.String(), err)
	}
	return false
}

func (m *Miner) syncRocks() {
	m.Rocks = m.world.Backpack(world.ContentRock)
}

func (m *Miner) publish() {
	pos := m.world.Position()
	m.beacon.Publish(beacon.Status{
		Tick:         m.tick,
		Row:          pos.Row,
		Col:          pos.Col,
		State:        m.State.String(),
		Rocks:        m.Rocks,
		Energy:       m.world.Energy(),
		ScanDistance: m.ScanDistance,
		Bridges:      m.Bridges,
		Goals:        m.Goals.Len(),
		Completed:    m.Goals.CompletedCount(),
	}, world.RenderSnapshot(m.world.KnownMap(), pos))
}
