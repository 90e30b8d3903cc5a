// Package engine provides the tick-based run loop and the simulation that
// binds the miner to its world.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Engine drives the simulation forward one tick at a time.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Base tick interval
	MaxTicks uint64        // Stop after this many ticks (0 = unlimited)

	CheckpointEvery uint64 // Call OnCheckpoint every N ticks (0 = never)

	// Callbacks populated during setup.
	OnTick       func(tick uint64)
	OnCheckpoint func(tick uint64)
	Halted       func() bool // Checked between ticks; true ends the run

	running atomic.Bool
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	e := &Engine{Interval: 2 * time.Second}
	e.SetSpeed(1.0)
	return e
}

// Speed returns the tick rate multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the tick rate multiplier. Safe to call while Run is active.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

// Run starts the loop. It blocks until Stop is called, ctx is cancelled,
// the Halted callback reports true, or MaxTicks is reached.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("engine started", "tick", e.Tick, "interval", e.Interval, "max_ticks", e.MaxTicks)

	for e.running.Load() {
		if e.Halted != nil && e.Halted() {
			slog.Info("episode halted", "tick", e.Tick)
			break
		}
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			slog.Info("tick limit reached", "tick", e.Tick)
			break
		}
		speed := e.Speed()
		if speed <= 0 {
			// Paused, check again shortly.
			if !sleep(ctx, 100*time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()
		e.step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target && !sleep(ctx, target-elapsed) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	slog.Info("engine stopped", "tick", e.Tick)
}

// Stop ends the loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.CheckpointEvery > 0 && e.Tick%e.CheckpointEvery == 0 && e.OnCheckpoint != nil {
		e.OnCheckpoint(e.Tick)
	}
}

// sleep waits for d or until ctx is done. It returns false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
