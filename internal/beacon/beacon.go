// Package beacon publishes the miner's latest status to observers and carries
// the episode stop flag checked by the run loop between ticks.
package beacon

import (
	"sync"
)

// Status is the per-tick snapshot observers read.
type Status struct {
	Tick         uint64 `json:"tick"`
	Row          int    `json:"row"`
	Col          int    `json:"col"`
	State        string `json:"state"`
	Rocks        int    `json:"rocks"`
	Energy       int    `json:"energy"`
	ScanDistance int    `json:"scan_distance"`
	Bridges      int    `json:"bridges"`
	Goals        int    `json:"goals"`
	Completed    int    `json:"completed_goals"`
	Halted       bool   `json:"halted"`
	HaltReason   string `json:"halt_reason,omitempty"`
}

// Beacon is a lock-guarded cell holding the latest Status and rendered map.
// Writers replace the whole value; readers always see a complete snapshot.
type Beacon struct {
	mu         sync.RWMutex
	status     Status
	mapRows    []string
	halted     bool
	haltReason string
	subs       map[int]chan Status
	nextSub    int
}

// New creates an empty beacon.
func New() *Beacon {
	return &Beacon{subs: make(map[int]chan Status)}
}

// Publish replaces the latest status and map, then fans the status out to
// subscribers. Slow subscribers miss updates rather than block the tick.
func (b *Beacon) Publish(s Status, mapRows []string) {
	b.mu.Lock()
	s.Halted = b.halted
	s.HaltReason = b.haltReason
	b.status = s
	b.mapRows = mapRows
	defer b.mu.Unlock()

	// Sends never block, so holding the lock keeps unsubscribe from closing
	// a channel mid-send.
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Latest returns the most recently published status.
func (b *Beacon) Latest() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// LatestMap returns the most recently published map rows.
func (b *Beacon) LatestMap() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.mapRows))
	copy(out, b.mapRows)
	return out
}

// Halt sets the stop flag. The first reason wins.
func (b *Beacon) Halt(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.halted {
		return
	}
	b.halted = true
	b.haltReason = reason
	b.status.Halted = true
	b.status.HaltReason = reason
}

// Halted reports whether the episode has been stopped.
func (b *Beacon) Halted() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.halted
}

// HaltReason returns the reason passed to the first Halt call.
func (b *Beacon) HaltReason() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.haltReason
}

// Subscribe returns a channel receiving every published status and a function
// that unsubscribes and closes the channel.
func (b *Beacon) Subscribe(buffer int) (<-chan Status, func()) {
	ch := make(chan Status, buffer)
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}
