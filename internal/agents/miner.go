// Package agents provides the miner: a single agent that discovers terrain,
// harvests rocks along the cheapest known routes, and paves connectors from
// its landmass to the nearest other one.
package agents

import (
	"fmt"
	"strings"

	"github.com/nTorre/HolyCrabUI/internal/beacon"
	"github.com/nTorre/HolyCrabUI/internal/goals"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

// World is the simulated environment the miner acts on.
type World interface {
	KnownMap() [][]*world.Tile // nil for undiscovered cells
	Position() world.Coord
	Energy() int
	Backpack(kind world.ContentKind) int
	Go(dir world.Direction) error
	Put(dir world.Direction, kind world.ContentKind, qty int) error
	Destroy(dir world.Direction) (int, error)
	Discover(center world.Coord, radius, budget int, threshold float64) (int, error)
	Recharge()
}

// CostIndex is the known-cost index the miner refreshes every tick before
// ranking or following routes.
type CostIndex interface {
	Update(g *world.Grid)
	Recompute(from world.Coord) error
	Cost(c world.Coord) (int, bool)
	Path(to world.Coord) ([]world.Direction, error)
}

// State is the miner's high-level activity, changed only inside a tick.
type State uint8

const (
	CollectingRocks State = iota
	PavingBridge
)

func (s State) String() string {
	switch s {
	case PavingBridge:
		return "PavingBridge"
	default:
		return "CollectingRocks"
	}
}

// Params tunes the miner's behaviour.
type Params struct {
	Resource       world.ContentKind // What the miner harvests
	GoalQuantity   int               // Units per collection goal
	EnergyBudget   int               // Energy one discovery scan may spend
	ViewThreshold  float64           // Known fraction above which a scan ring is skipped
	ScanDistance   int               // Initial discovery radius
	ScanIncrease   int               // Radius step when no progress is made
	MinEnergy      int               // Recharge below this level
	MaxConvergence int               // Bridge target re-validation limit
	CollectRange   int               // Radius of the vicinity sweep
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		Resource:       world.ContentRock,
		GoalQuantity:   5,
		EnergyBudget:   300,
		ViewThreshold:  0.5,
		ScanDistance:   10,
		ScanIncrease:   10,
		MinEnergy:      100,
		MaxConvergence: 10,
		CollectRange:   2,
	}
}

// Note is something that happened during a tick, surfaced as an event.
type Note struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Miner is the agent. All fields are owned by the goroutine running ticks.
type Miner struct {
	Name         string
	State        State
	Rocks        int // Rocks available for paving
	ScanDistance int
	WorldScanned bool
	Widenings    int
	Bridges      int
	Goals        *goals.Tracker
	Params       Params

	world  World
	index  CostIndex
	beacon *beacon.Beacon
	tick   uint64
	notes  []Note
}

// NewMiner creates a miner acting on w.
func NewMiner(name string, w World, idx CostIndex, b *beacon.Beacon, p Params) *Miner {
	return &Miner{
		Name:         name,
		State:        CollectingRocks,
		ScanDistance: p.ScanDistance,
		Goals:        goals.NewTracker(),
		Params:       p,
		world:        w,
		index:        idx,
		beacon:       b,
	}
}

func (m *Miner) note(category, format string, args ...any) {
	m.notes = append(m.notes, Note{Category: category, Description: fmt.Sprintf(format, args...)})
}

// String renders the miner's stats.
func (m *Miner) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s's STATS\n", m.Name)
	fmt.Fprintf(&sb, "- Coordinates: %v\n", m.world.Position())
	fmt.Fprintf(&sb, "- Energy: %d\n", m.world.Energy())
	fmt.Fprintf(&sb, "- Goals: %v\n", m.Goals.Goals())
	fmt.Fprintf(&sb, "- Completed: %d\n", m.Goals.CompletedCount())
	fmt.Fprintf(&sb, "- Rocks collected: %d\n", m.Rocks)
	fmt.Fprintf(&sb, "- Bridges: %d\n", m.Bridges)
	fmt.Fprintf(&sb, "- State: %s\n", m.State)
	return sb.String()
}
