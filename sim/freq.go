package sim

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
)

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
	THz Freq = 1e12
)

var freqUnits = []struct {
	suffix string
	unit   Freq
}{
	{"THz", THz},
	{"GHz", GHz},
	{"MHz", MHz},
	{"kHz", KHz},
	{"KHz", KHz},
	{"Hz", Hz},
}

// ParseFreq parses a frequency written the way the simulator accepts it on
// its command line, for example "1GHz", "500MHz" or "2.5 GHz".
func ParseFreq(s string) (Freq, error) {
	str := strings.TrimSpace(s)

	for _, u := range freqUnits {
		if !strings.HasSuffix(str, u.suffix) {
			continue
		}

		num := strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
		}

		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("invalid frequency %q: must be positive", s)
		}

		return Freq(v) * u.unit, nil
	}

	return 0, fmt.Errorf("invalid frequency %q: missing unit", s)
}

// Period returns the time between two consecutive ticks, in seconds.
func (f Freq) Period() float64 {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return float64(1.0 / f)
}

// Cycle converts a time in seconds to the number of cycles passed since
// time 0.
func (f Freq) Cycle(seconds float64) uint64 {
	return uint64(math.Round(seconds * float64(f)))
}

// TicksPerCycle returns how many ticks of a clock running at tickRate fit in
// one cycle of f. With gem5's default 1THz tick rate, a 1GHz core has 1000
// ticks per cycle.
func (f Freq) TicksPerCycle(tickRate Freq) float64 {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return float64(tickRate / f)
}

// String formats the frequency with the largest unit that keeps the value
// at or above 1.
func (f Freq) String() string {
	for _, u := range freqUnits {
		if u.suffix == "KHz" {
			continue
		}

		if f >= u.unit {
			return strconv.FormatFloat(float64(f/u.unit), 'g', -1, 64) + u.suffix
		}
	}

	return strconv.FormatFloat(float64(f), 'g', -1, 64) + "Hz"
}
