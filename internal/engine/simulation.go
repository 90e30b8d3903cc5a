// Simulation ties the miner, its world and the status beacon together and
// keeps the recent event log the API serves.
package engine

import (
	"log/slog"
	"sync"

	"github.com/nTorre/HolyCrabUI/internal/agents"
	"github.com/nTorre/HolyCrabUI/internal/beacon"
	"github.com/nTorre/HolyCrabUI/internal/sim"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Event is a notable occurrence during a run.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "harvest", "bridge", "discovery", "escalation", "goal"
}

// Simulation holds the run state and wires the systems together.
type Simulation struct {
	World  *sim.World
	Miner  *agents.Miner
	Beacon *beacon.Beacon

	mu       sync.RWMutex
	events   []Event
	pending  []Event // Not yet persisted
	lastTick uint64
}

// NewSimulation creates a Simulation from its components.
func NewSimulation(w *sim.World, m *agents.Miner, b *beacon.Beacon) *Simulation {
	return &Simulation{World: w, Miner: m, Beacon: b}
}

// Step runs one miner tick and records its notes as events.
func (s *Simulation) Step(tick uint64) {
	notes := s.Miner.ProcessTick(tick)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTick = tick
	for _, n := range notes {
		e := Event{Tick: tick, Description: n.Description, Category: n.Category}
		s.events = append(s.events, e)
		s.pending = append(s.pending, e)
	}
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}

	if len(notes) > 0 {
		slog.Debug("tick", "tick", tick, "events", len(notes), "rocks", s.Miner.Rocks, "bridges", s.Miner.Bridges)
	}
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// DrainPending returns events recorded since the last call and clears them.
func (s *Simulation) DrainPending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// KnownGrid returns the miner's current view of the world.
func (s *Simulation) KnownGrid() *world.Grid {
	return world.FromSnapshot(s.World.KnownMap())
}
