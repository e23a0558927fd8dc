package grid_world

import (
	"fmt"
	"strings"
)

// Console markers for rendered runs.
const (
	COVERED     = 'X'
	OBSTRUCTION = 'O'
)

// Covered is satisfied by any set of visited positions.
type Covered interface {
	Contains(p Position) bool
}

// Show the grid and the agent's start, for visual reference.
func ShowGrid(occ Occupancy, start Start) {
	fmt.Print(RenderGrid(occ, start))
}

// RenderGrid returns the grid as it would be read from input.
func RenderGrid(occ Occupancy, start Start) string {
	return render(occ, func(p Position) rune {
		if p == start.Position {
			return start.Heading.Rune()
		}
		return cellRune(occ, p)
	})
}

// Show the cells covered by a run. If the occupancy is an Overlay its obstruction
// is marked, which is handy when eyeballing a looping trial.
func ShowCoverage(occ Occupancy, covered Covered) {
	fmt.Print(RenderCoverage(occ, covered))
}

// RenderCoverage returns the grid with covered cells marked.
func RenderCoverage(occ Occupancy, covered Covered) string {
	ov, isOverlay := occ.(*Overlay)
	return render(occ, func(p Position) rune {
		if isOverlay && p == ov.Obstruction {
			return OBSTRUCTION
		}
		if covered.Contains(p) {
			return COVERED
		}
		return cellRune(occ, p)
	})
}

func cellRune(occ Occupancy, p Position) rune {
	if occ.Occupied(p) {
		return WALL
	}
	return FREE
}

func render(occ Occupancy, runeAt func(p Position) rune) string {
	var sb strings.Builder
	sb.Grow((occ.Width() + 1) * occ.Height())
	for y := 0; y < occ.Height(); y++ {
		for x := 0; x < occ.Width(); x++ {
			sb.WriteRune(runeAt(Position{X: x, Y: y}))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
