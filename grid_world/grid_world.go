package grid_world

import (
	"errors"
	"fmt"
	"strings"
)

// Heading is one of the four cardinal directions the agent may face.
// The values are ordered clockwise, so rotating is an increment mod 4.
type Heading int

const (
	Up Heading = iota
	Right
	Down
	Left
	NUM_HEADINGS = 4
)

// Grid cell markers
const (
	FREE  = '.'
	WALL  = '#'
	UP    = '^'
	RIGHT = '>'
	DOWN  = 'v'
	LEFT  = '<'
)

// Rotate returns the heading 90 degrees clockwise of h.
func (h Heading) Rotate() Heading {
	return (h + 1) % NUM_HEADINGS
}

// Delta returns the unit displacement for one step in this heading.
// Rows grow downward, as the grid reads in the console, so Up is -y.
func (h Heading) Delta() (dx, dy int) {
	switch h {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	}
	// Unreachable for the four declared headings.
	panic(fmt.Sprintf("invalid heading %d", int(h)))
}

// Rune returns the console marker for the heading.
func (h Heading) Rune() rune {
	return [NUM_HEADINGS]rune{UP, RIGHT, DOWN, LEFT}[h]
}

func (h Heading) String() string {
	return [NUM_HEADINGS]string{"Up", "Right", "Down", "Left"}[h]
}

// headingOf maps an agent marker to its heading.
func headingOf(marker rune) (Heading, bool) {
	switch marker {
	case UP:
		return Up, true
	case RIGHT:
		return Right, true
	case DOWN:
		return Down, true
	case LEFT:
		return Left, true
	}
	return 0, false
}

// Position is an x/y grid coordinate; (0,0) is the top left cell when printed.
type Position struct {
	X, Y int
}

// Step returns the position one unit away in heading h.
func (p Position) Step(h Heading) Position {
	dx, dy := h.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Start is the agent's parsed initial position and heading.
type Start struct {
	Position Position
	Heading  Heading
}

// Occupancy is the read-only view of a grid that the simulator moves against.
// Occupied must only be called for in-bounds positions.
type Occupancy interface {
	Width() int
	Height() int
	InBounds(p Position) bool
	Occupied(p Position) bool
}

// Grid holds only static walls. The agent is tracked elsewhere and never written into it.
// Cells are stored row-major, indexed [y][x].
type Grid struct {
	width, height int
	walls         [][]bool
}

func (g *Grid) Width() int {
	return g.width
}

func (g *Grid) Height() int {
	return g.height
}

func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

func (g *Grid) Occupied(p Position) bool {
	return g.walls[p.Y][p.X]
}

// FreeCells returns the number of unoccupied cells, including the agent's start cell.
func (g *Grid) FreeCells() (n int) {
	VisitFree(g, func(Position) { n++ })
	return
}

// WithObstruction returns a view of the grid with one extra occupied cell.
// The grid itself is not modified, so any number of overlays may be used concurrently.
func (g *Grid) WithObstruction(p Position) *Overlay {
	return &Overlay{
		Grid:        g,
		Obstruction: p,
	}
}

// Overlay is a base grid plus a single hypothetical obstruction.
type Overlay struct {
	*Grid
	Obstruction Position
}

func (ov *Overlay) Occupied(p Position) bool {
	return p == ov.Obstruction || ov.Grid.Occupied(p)
}

// Parse errors. These are wrapped with row/column details; compare with errors.Is.
var (
	ErrEmptyGrid      = errors.New("grid has no rows or no columns")
	ErrRaggedGrid     = errors.New("grid rows differ in length")
	ErrUnknownCell    = errors.New("unrecognized cell marker")
	ErrNoAgent        = errors.New("no agent marker in grid")
	ErrMultipleAgents = errors.New("more than one agent marker in grid")
)

// DebugGrid is the classical small example. Walking it exits after covering 41 cells, and
// 6 single-cell obstructions trap the agent in a loop.
var DebugGrid []string = []string{
	"....#.....",
	".........#",
	"..........",
	"..#.......",
	".......#..",
	"..........",
	".#..^.....",
	"........#.",
	"#.........",
	"......#...",
}

// ConvertString splits the input into lines and converts them.
func ConvertString(input string) (*Grid, Start, error) {
	return Convert(strings.Split(input, "\n"))
}

// Converts the textual grid into a Grid of walls and the agent's start.
// Trailing carriage returns are stripped and trailing blank lines ignored; any other
// irregularity (ragged rows, unknown markers, zero or several agents) is an error.
func Convert(lines []string) (grid *Grid, start Start, err error) {
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.TrimRight(line, "\r"))
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		err = ErrEmptyGrid
		return
	}

	width := len([]rune(rows[0]))
	height := len(rows)
	grid = &Grid{
		width:  width,
		height: height,
		walls:  make([][]bool, 0, height),
	}

	agents := 0
	for y, row := range rows {
		cells := []rune(row)
		if len(cells) != width {
			err = fmt.Errorf("row %d has %d cells, expected %d: %w", y, len(cells), width, ErrRaggedGrid)
			return nil, Start{}, err
		}

		walls := make([]bool, width)
		for x, c := range cells {
			switch c {
			case FREE:
			case WALL:
				walls[x] = true
			default:
				heading, ok := headingOf(c)
				if !ok {
					err = fmt.Errorf("%q at row %d column %d: %w", c, y, x, ErrUnknownCell)
					return nil, Start{}, err
				}
				agents++
				start = Start{
					Position: Position{X: x, Y: y},
					Heading:  heading,
				}
			}
		}
		grid.walls = append(grid.walls, walls)
	}

	switch {
	case agents == 0:
		return nil, Start{}, ErrNoAgent
	case agents > 1:
		return nil, Start{}, fmt.Errorf("found %d: %w", agents, ErrMultipleAgents)
	}

	return grid, start, nil
}

// Visits every cell, row by row, using the passed function.
func Visit(occ Occupancy, fn func(p Position)) {
	for y := 0; y < occ.Height(); y++ {
		for x := 0; x < occ.Width(); x++ {
			fn(Position{X: x, Y: y})
		}
	}
}

// Visits every unoccupied cell, row by row, using the passed function.
func VisitFree(occ Occupancy, fn func(p Position)) {
	Visit(occ, func(p Position) {
		if !occ.Occupied(p) {
			fn(p)
		}
	})
}
