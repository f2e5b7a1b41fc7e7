package stats

import (
	"fmt"
	"math"

	"github.com/sarchlab/prefetchsweep/sim"
	"github.com/sarchlab/prefetchsweep/sweep"
)

// DefaultTicksPerCycle is the tick-to-cycle ratio the prefetcher study
// reports have always been normalized with.
const DefaultTicksPerCycle = 333

// DefaultTickRate is gem5's default simulation tick frequency.
const DefaultTickRate = sim.THz

// A CycleModel converts the simulated tick count of a run into core cycles.
type CycleModel interface {
	Cycles(ticks float64, k sweep.Key) (float64, error)
}

// FixedRatio divides ticks by a constant, whatever clock the run used.
type FixedRatio struct {
	TicksPerCycle float64
}

// Validate reports a ratio that cannot convert any tick count.
func (m FixedRatio) Validate() error {
	if m.TicksPerCycle <= 0 || math.IsNaN(m.TicksPerCycle) ||
		math.IsInf(m.TicksPerCycle, 0) {
		return fmt.Errorf("ticks per cycle must be positive, got %g",
			m.TicksPerCycle)
	}

	return nil
}

// Cycles implements CycleModel.
func (m FixedRatio) Cycles(ticks float64, _ sweep.Key) (float64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	return ticks / m.TicksPerCycle, nil
}

// ClockDerived uses the clock speed of each run to find its ticks per cycle.
type ClockDerived struct {
	TickRate sim.Freq
}

// Cycles implements CycleModel.
func (m ClockDerived) Cycles(ticks float64, k sweep.Key) (float64, error) {
	clock, err := sim.ParseFreq(k.Clock)
	if err != nil {
		return 0, err
	}

	tickRate := m.TickRate
	if tickRate == 0 {
		tickRate = DefaultTickRate
	}

	return ticks / clock.TicksPerCycle(tickRate), nil
}
