package cell_views

import (
	"gridpatrol/grid_world"
	"gridpatrol/patrol"
)

// Board is the data model behind the live page: the grid, the unperturbed route,
// and the obstruction search so far. Boards are values; Apply returns a new one,
// so a Board already sent to the views is never modified.
type Board struct {
	Grid  *grid_world.Grid
	Start grid_world.Start
	Route *patrol.Coverage
	// Loops are the loop-inducing obstructions found so far.
	Loops  map[grid_world.Position]bool
	Trials int
	Total  int
	Done   bool
}

// NewBoard returns the board before any trial has completed.
func NewBoard(grid *grid_world.Grid, start grid_world.Start, route *patrol.Coverage) Board {
	return Board{
		Grid:  grid,
		Start: start,
		Route: route,
		Loops: map[grid_world.Position]bool{},
	}
}

// Apply folds a search progress report into a copy of the board.
func (board Board) Apply(progress patrol.Progress) Board {
	loops := make(map[grid_world.Position]bool, len(board.Loops)+len(progress.Latest))
	for p := range board.Loops {
		loops[p] = true
	}
	for _, outcome := range progress.Latest {
		if outcome.Loop {
			loops[outcome.Cell] = true
		}
	}

	board.Loops = loops
	board.Trials = progress.Trials
	board.Total = progress.Total
	board.Done = progress.Done
	return board
}
