package runner

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle stage of a job.
type State int

// The job states. A job moves JobPending -> JobDispatched -> JobRunning and
// ends in JobCompleted or JobFailed. It can also fail before it runs.
const (
	JobPending State = iota
	JobDispatched
	JobRunning
	JobCompleted
	JobFailed
)

var stateNames = map[State]string{
	JobPending:    "pending",
	JobDispatched: "dispatched",
	JobRunning:    "running",
	JobCompleted:  "completed",
	JobFailed:     "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition can leave the state.
func (s State) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}

	return fmt.Errorf("unknown job state %q", text)
}

var legalTransitions = map[State][]State{
	JobPending:    {JobDispatched, JobFailed},
	JobDispatched: {JobRunning, JobFailed},
	JobRunning:    {JobCompleted, JobFailed},
}

// ErrIllegalTransition is returned when a job is moved to a state it cannot
// reach from its current one.
var ErrIllegalTransition = errors.New("illegal job state transition")

// A Tracker owns the state of every job of a dispatch. It is safe for
// concurrent use.
type Tracker struct {
	lock   sync.Mutex
	states map[string]State
	counts map[State]int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[string]State),
		counts: make(map[State]int),
	}
}

// Add registers a job in the JobPending state.
func (t *Tracker) Add(id string) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.states[id]; ok {
		return fmt.Errorf("job %s is already tracked", id)
	}

	t.states[id] = JobPending
	t.counts[JobPending]++

	return nil
}

// Transition moves a job to a new state.
func (t *Tracker) Transition(id string, to State) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	from, ok := t.states[id]
	if !ok {
		return fmt.Errorf("job %s is not tracked", id)
	}

	if !canTransition(from, to) {
		return fmt.Errorf("%w: job %s from %s to %s",
			ErrIllegalTransition, id, from, to)
	}

	t.states[id] = to
	t.counts[from]--
	t.counts[to]++

	return nil
}

func canTransition(from, to State) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

// State returns the current state of a job.
func (t *Tracker) State(id string) (State, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	s, ok := t.states[id]

	return s, ok
}

// Count returns how many jobs are in the given state.
func (t *Tracker) Count(s State) int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[s]
}
