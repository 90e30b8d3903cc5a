// Package goals tracks the miner's progress objectives.
package goals

import (
	"fmt"

	"github.com/nTorre/HolyCrabUI/internal/world"
)

// Type is the category of a goal.
type Type uint8

const (
	GetItems Type = iota
)

func (t Type) String() string {
	switch t {
	case GetItems:
		return "GetItems"
	default:
		return "Unknown"
	}
}

// Goal is a counted objective, e.g. "collect 5 rocks".
type Goal struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        Type              `json:"type"`
	Content     world.ContentKind `json:"content"`
	Target      int               `json:"target"`
	Progress    int               `json:"progress"`
}

// Completed reports whether the goal has reached its target.
func (g Goal) Completed() bool {
	return g.Progress >= g.Target
}

func (g Goal) String() string {
	return fmt.Sprintf("%s (%d/%d)", g.Name, g.Progress, g.Target)
}

// Tracker holds active goals and counts completed ones.
type Tracker struct {
	goals     []Goal
	completed int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add appends a goal.
func (t *Tracker) Add(g Goal) {
	t.goals = append(t.goals, g)
}

// ForContent builds a GetItems goal for the given content kind.
func ForContent(kind world.ContentKind, quantity int) Goal {
	return Goal{
		Name:        goalName(kind),
		Description: goalDescription(kind),
		Type:        GetItems,
		Content:     kind,
		Target:      quantity,
	}
}

// Goals returns a copy of the active goals.
func (t *Tracker) Goals() []Goal {
	out := make([]Goal, len(t.goals))
	copy(out, t.goals)
	return out
}

// Len returns the number of active goals.
func (t *Tracker) Len() int {
	return len(t.goals)
}

// CompletedCount returns how many goals have been cleaned up as completed.
func (t *Tracker) CompletedCount() int {
	return t.completed
}

// UpdateManual records quantity units of progress on every active goal of
// the given type and content. It returns the number of goals that became
// complete with this update.
func (t *Tracker) UpdateManual(typ Type, kind world.ContentKind, quantity int) int {
	done := 0
	for i := range t.goals {
		g := &t.goals[i]
		if g.Type != typ || g.Content != kind || g.Completed() {
			continue
		}
		g.Progress += quantity
		if g.Completed() {
			done++
		}
	}
	return done
}

// CleanCompleted drops completed goals and returns how many were removed.
func (t *Tracker) CleanCompleted() int {
	kept := t.goals[:0]
	removed := 0
	for _, g := range t.goals {
		if g.Completed() {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	t.goals = kept
	t.completed += removed
	return removed
}

func goalName(kind world.ContentKind) string {
	switch kind {
	case world.ContentRock:
		return "Looking for Rocks"
	case world.ContentNone:
		return "Looking for None"
	default:
		return "Looking for " + kind.String()
	}
}

func goalDescription(kind world.ContentKind) string {
	switch kind {
	case world.ContentBank:
		return "Going to the Bank"
	case world.ContentBin:
		return "Using the bin"
	case world.ContentBuilding:
		return "Building?"
	case world.ContentBush:
		return "Hiding in the bush"
	case world.ContentCrate:
		return "Crate!"
	case world.ContentCoin:
		return "Making money"
	case world.ContentFire:
		return "Looking for fire"
	case world.ContentFish:
		return "Fishing"
	case world.ContentGarbage:
		return "Garbage collecting"
	case world.ContentJollyBlock:
		return "JollyBlocking"
	case world.ContentMarket:
		return "Going to the market"
	case world.ContentRock:
		return "Collecting Rocks"
	case world.ContentScarecrow:
		return "Scarecrowing"
	case world.ContentTree:
		return "Looking for a forest"
	case world.ContentWater:
		return "In need of Water"
	default:
		return "None"
	}
}
