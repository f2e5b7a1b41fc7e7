package stats

import (
	"math"
)

// Status tells whether a value was measured.
type Status int

// The statuses a looked up or derived value can have.
const (
	// Present means the value was read from the report or computed from
	// present values.
	Present Status = iota
	// AbsentStat means the report was read but did not contain the
	// statistic.
	AbsentStat
	// UnreadableFile means the report was missing, unreadable, or too
	// short to hold any statistic.
	UnreadableFile
	// Undefined means a derived value has no meaning, such as a ratio with
	// a zero denominator.
	Undefined
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case AbsentStat:
		return "absent"
	case UnreadableFile:
		return "unreadable"
	case Undefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// A Lookup is a value together with whether it is meaningful.
type Lookup struct {
	Status Status
	Value  float64
}

// PresentValue wraps a measured value.
func PresentValue(v float64) Lookup {
	return Lookup{Status: Present, Value: v}
}

// Missing returns a lookup without a value.
func Missing(s Status) Lookup {
	return Lookup{Status: s}
}

// OK reports whether the lookup holds a value.
func (l Lookup) OK() bool {
	return l.Status == Present
}

// Float returns the value, 0 for absent or unreadable statistics, and NaN
// for undefined ones.
func (l Lookup) Float() float64 {
	switch l.Status {
	case Present:
		return l.Value
	case Undefined:
		return math.NaN()
	default:
		return 0
	}
}

// Scale divides a present value by d. Other lookups pass through.
func (l Lookup) Scale(d float64) Lookup {
	if !l.OK() {
		return l
	}

	return PresentValue(l.Value / d)
}

// Divide computes a / b. A missing operand makes the result missing with
// the more severe of the two statuses; a zero denominator makes it
// Undefined.
func Divide(a, b Lookup) Lookup {
	if !a.OK() || !b.OK() {
		return Missing(worst(a.Status, b.Status))
	}

	if b.Value == 0 {
		return Missing(Undefined)
	}

	q := a.Value / b.Value
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return Missing(Undefined)
	}

	return PresentValue(q)
}

// Reciprocal computes 1 / l.
func Reciprocal(l Lookup) Lookup {
	return Divide(PresentValue(1), l)
}

func worst(a, b Status) Status {
	if a == Present {
		return b
	}

	if b == Present {
		return a
	}

	if a > b {
		return a
	}

	return b
}
