package patrol

import (
	"sort"

	. "gridpatrol/grid_world"
)

// state is the identity of the agent for cycle detection: where it stands and which way it faces.
type state struct {
	Position
	Heading
}

// History records the (position, heading) pairs observed during a single run.
// Since motion is deterministic, observing any pair twice means the run repeats forever.
type History struct {
	seen map[state]struct{}
}

func NewHistory() *History {
	return &History{
		seen: map[state]struct{}{},
	}
}

// Observe inserts the pair and returns false, or returns true if it was already recorded.
func (hist *History) Observe(p Position, h Heading) (repeated bool) {
	key := state{Position: p, Heading: h}
	if _, repeated = hist.seen[key]; !repeated {
		hist.seen[key] = struct{}{}
	}
	return
}

// Contains reports whether the pair was observed, without recording it.
func (hist *History) Contains(p Position, h Heading) bool {
	_, ok := hist.seen[state{Position: p, Heading: h}]
	return ok
}

func (hist *History) Len() int {
	return len(hist.seen)
}

// Coverage is the set of distinct cells the agent has stood on.
type Coverage struct {
	cells map[Position]struct{}
}

func NewCoverage() *Coverage {
	return &Coverage{
		cells: map[Position]struct{}{},
	}
}

func (cov *Coverage) Add(p Position) {
	cov.cells[p] = struct{}{}
}

func (cov *Coverage) Contains(p Position) bool {
	_, ok := cov.cells[p]
	return ok
}

func (cov *Coverage) Len() int {
	return len(cov.cells)
}

// Positions returns the covered cells in row-major order.
func (cov *Coverage) Positions() []Position {
	positions := make([]Position, 0, len(cov.cells))
	for p := range cov.cells {
		positions = append(positions, p)
	}
	sortRowMajor(positions)
	return positions
}

func sortRowMajor(positions []Position) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Y != positions[j].Y {
			return positions[i].Y < positions[j].Y
		}
		return positions[i].X < positions[j].X
	})
}
