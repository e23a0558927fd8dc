package patrol

/*
The patrol rule is simple: step forward in the current heading; if the cell ahead is
blocked, turn right instead and look again. The agent leaves when the cell ahead lies
off the grid. Because the rule is deterministic and the grid never changes during a run,
the agent's future is a function of its (position, heading) alone, so revisiting any such
pair means the agent is looping. There are at most width*height*4 pairs, which bounds
every run.
*/

import (
	"errors"
	"fmt"
	"strings"

	"gridpatrol/metrics"

	. "gridpatrol/grid_world"
)

// StepResult is the outcome of a single simulator step.
type StepResult int

const (
	Moved StepResult = iota
	Exited
	LoopDetected
	// Deadlocked is only produced under DeadlockError, alongside ErrDeadlock.
	Deadlocked
)

func (r StepResult) String() string {
	switch r {
	case Moved:
		return "moved"
	case Exited:
		return "exited"
	case LoopDetected:
		return "loop"
	case Deadlocked:
		return "deadlocked"
	}
	return fmt.Sprintf("StepResult(%d)", int(r))
}

// Terminal reports whether no further steps follow this result.
func (r StepResult) Terminal() bool {
	return r == Exited || r == LoopDetected
}

// DeadlockPolicy decides what happens when every neighbor of the agent's cell is blocked.
type DeadlockPolicy int

const (
	// DeadlockLoop ends the run as a loop: the agent can never leave.
	DeadlockLoop DeadlockPolicy = iota
	// DeadlockError fails the run with ErrDeadlock.
	DeadlockError
)

func (dp DeadlockPolicy) String() string {
	if dp == DeadlockError {
		return "error"
	}
	return "loop"
}

// ParseDeadlockPolicy accepts "loop" or "error"; the empty string is "loop".
func ParseDeadlockPolicy(s string) (DeadlockPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loop":
		return DeadlockLoop, nil
	case "error":
		return DeadlockError, nil
	}
	return DeadlockLoop, fmt.Errorf("deadlock policy %q: %w", s, ErrInvalidConfig)
}

var (
	// ErrDeadlock means the agent is boxed in on all four sides.
	ErrDeadlock = errors.New("agent is blocked on all sides")
	// ErrTerminated is returned when stepping a run that already exited or looped.
	ErrTerminated = errors.New("run already terminated")
	// ErrStateSpaceExceeded means a run made more moves than it has distinct states,
	// which a correct history makes impossible.
	ErrStateSpaceExceeded = errors.New("run exceeded its state space without detecting a loop")
)

// Agent is the patrolling agent's state. Exited and InLoop are terminal and exclusive.
type Agent struct {
	Position Position
	Heading  Heading
	Exited   bool
	InLoop   bool
}

func newAgent(start Start) Agent {
	return Agent{
		Position: start.Position,
		Heading:  start.Heading,
	}
}

// Outcome summarizes a run.
type Outcome struct {
	Result StepResult
	// Moves is the number of cells entered, not counting turns.
	Moves    int
	Coverage *Coverage
	// HistoryLen is the number of distinct (position, heading) pairs recorded.
	HistoryLen int
}

// Simulator advances one agent against a read-only occupancy grid.
// A Simulator owns its history and coverage; it is not safe for concurrent use,
// but any number of simulators may share the same grid.
type Simulator struct {
	occ      Occupancy
	agent    Agent
	history  *History
	coverage *Coverage
	policy   DeadlockPolicy
	moves    int
}

// Option configures a Simulator.
type Option func(*Simulator)

func WithDeadlockPolicy(policy DeadlockPolicy) Option {
	return func(sim *Simulator) {
		sim.policy = policy
	}
}

// NewSimulator places a fresh agent at start. The start cell counts as covered.
func NewSimulator(occ Occupancy, start Start, opts ...Option) *Simulator {
	sim := &Simulator{
		occ:      occ,
		agent:    newAgent(start),
		history:  NewHistory(),
		coverage: NewCoverage(),
	}
	for _, opt := range opts {
		opt(sim)
	}
	sim.coverage.Add(start.Position)
	return sim
}

func (sim *Simulator) Agent() Agent {
	return sim.agent
}

func (sim *Simulator) History() *History {
	return sim.history
}

func (sim *Simulator) Coverage() *Coverage {
	return sim.coverage
}

// Step applies the patrol rule once: exit if the cell ahead is off the grid, turn right
// while it is blocked (at most a full turn), otherwise move into it and check the history.
func (sim *Simulator) Step() (StepResult, error) {
	agent := &sim.agent
	switch {
	case agent.Exited:
		return Exited, ErrTerminated
	case agent.InLoop:
		return LoopDetected, ErrTerminated
	}

	for turns := 0; turns < NUM_HEADINGS; turns++ {
		next := agent.Position.Step(agent.Heading)
		if !sim.occ.InBounds(next) {
			agent.Exited = true
			return Exited, nil
		}
		if sim.occ.Occupied(next) {
			agent.Heading = agent.Heading.Rotate()
			continue
		}

		agent.Position = next
		sim.moves++
		sim.coverage.Add(next)
		if sim.history.Observe(next, agent.Heading) {
			agent.InLoop = true
			return LoopDetected, nil
		}
		return Moved, nil
	}

	// A full turn brought the agent back to its original heading without finding a free cell.
	if sim.policy == DeadlockError {
		return Deadlocked, fmt.Errorf("at %v: %w", agent.Position, ErrDeadlock)
	}
	agent.InLoop = true
	return LoopDetected, nil
}

// Run steps until the agent exits or loops.
func (sim *Simulator) Run() (out Outcome, err error) {
	maxMoves := NUM_HEADINGS*sim.occ.Width()*sim.occ.Height() + 1
	result := Moved
	for !result.Terminal() {
		if result, err = sim.Step(); err != nil {
			break
		}
		if sim.moves > maxMoves {
			err = fmt.Errorf("%d moves: %w", sim.moves, ErrStateSpaceExceeded)
			break
		}
	}

	out = Outcome{
		Result:     result,
		Moves:      sim.moves,
		Coverage:   sim.coverage,
		HistoryLen: sim.history.Len(),
	}
	metrics.ObserveRun(result.String(), sim.moves)
	return
}

// Walk runs the agent over the unperturbed grid. When it exits, the coverage size is the
// number of distinct cells patrolled.
func Walk(occ Occupancy, start Start, opts ...Option) (Outcome, error) {
	return NewSimulator(occ, start, opts...).Run()
}
