// Package engine provides the tick-based game loop and the Simulation that
// orchestrates the business and territory stores each tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Calendar constants in game minutes.
const (
	MinutesPerHour = 60
	MinutesPerDay  = 1440
)

// Engine drives the game clock forward. Each tick advances the clock by
// MinutesPerTick game minutes; Interval is the real time between ticks at
// speed 1.
type Engine struct {
	Tick           uint64        // Current tick counter (monotonic, never resets)
	Minutes        float64       // Absolute game clock
	Interval       time.Duration // Base tick interval (default 1 second)
	MinutesPerTick float64

	// Callbacks for each tick layer, populated during setup.
	OnTick func(elapsed, minutes float64) // Every tick
	OnHour func(hour int64)               // Every crossed game hour
	OnDay  func(day int64)                // Every crossed game day

	mu    sync.Mutex
	speed float64
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:       time.Second,
		MinutesPerTick: 1,
		speed:          1,
	}
}

// Speed returns the current speed multiplier: 1 is normal, 0 is paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Negative values pause.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	e.speed = max(0, speed)
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", speed)
}

// Run drives the loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "tick", e.Tick, "time", SimTime(e.Minutes), "speed", e.Speed())

	for {
		speed := e.Speed()
		wait := 100 * time.Millisecond
		start := time.Now()
		if speed > 0 {
			e.Step()
			// Sleep for the remainder of the tick interval, adjusted for speed.
			wait = time.Duration(float64(e.Interval)/speed) - time.Since(start)
		}

		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick, "time", SimTime(e.Minutes))
			return
		case <-time.After(max(wait, 0)):
		}
	}
}

// Step advances the clock by one tick and fires the callbacks.
func (e *Engine) Step() {
	mpt := e.MinutesPerTick
	if mpt <= 0 {
		mpt = 1
	}
	before := e.Minutes
	e.Tick++
	e.Minutes += mpt

	if e.OnTick != nil {
		e.OnTick(mpt, e.Minutes)
	}

	if e.OnHour != nil {
		for h := hourOf(before) + 1; h <= hourOf(e.Minutes); h++ {
			e.OnHour(h)
		}
	}

	if e.OnDay != nil {
		for d := dayOf(before) + 1; d <= dayOf(e.Minutes); d++ {
			e.OnDay(d)
		}
	}
}

func hourOf(minutes float64) int64 { return int64(math.Floor(minutes / MinutesPerHour)) }
func dayOf(minutes float64) int64  { return int64(math.Floor(minutes / MinutesPerDay)) }

// SimTime returns a human-readable game time.
func SimTime(minutes float64) string {
	total := int64(math.Floor(max(0, minutes)))
	day := total/MinutesPerDay + 1
	hour := (total % MinutesPerDay) / 60
	minute := total % 60
	return fmt.Sprintf("Day %d, %02d:%02d", day, hour, minute)
}
