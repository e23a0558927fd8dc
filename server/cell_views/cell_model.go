// cell_views contains views derived from the Cell view-model.
package cell_views

import (
	"gridpatrol/grid_world"
)

// Cell kinds. A cell qualifying for several takes the first of start, loop, wall, route.
const (
	FREE  = "free"
	WALL  = "wall"
	ROUTE = "route"
	LOOP  = "loop"
	START = "start"
)

// Cell is a flattened grid cell whose fields are immediately usable as view parameters,
// so that templates need no funcs to interpret the Board.
type Cell struct {
	X, Y int
	Kind string
	Fill string
}

// Grid is the view-model: cells indexed [y][x], plus the search tally.
type Grid struct {
	Cells  [][]Cell
	Trials int
	Total  int
	Loops  int
	Done   bool
}

// Convert transforms a Board into the Grid view-model.
func Convert(board Board) (vm Grid) {
	vm = Grid{
		Cells:  make([][]Cell, board.Grid.Height()),
		Trials: board.Trials,
		Total:  board.Total,
		Loops:  len(board.Loops),
		Done:   board.Done,
	}
	for y := range vm.Cells {
		vm.Cells[y] = make([]Cell, board.Grid.Width())
	}

	grid_world.Visit(board.Grid, func(p grid_world.Position) {
		kind := cellKind(board, p)
		vm.Cells[p.Y][p.X] = Cell{
			X:    p.X,
			Y:    p.Y,
			Kind: kind,
			Fill: getFill(kind),
		}
	})
	return
}

func cellKind(board Board, p grid_world.Position) string {
	switch {
	case p == board.Start.Position:
		return START
	case board.Loops[p]:
		return LOOP
	case board.Grid.Occupied(p):
		return WALL
	case board.Route != nil && board.Route.Contains(p):
		return ROUTE
	}
	return FREE
}

func getFill(kind string) (fill string) {
	switch kind {
	case WALL:
		fill = "dimgray"
	case ROUTE:
		fill = "lightblue"
	case LOOP:
		fill = "crimson"
	case START:
		fill = "gold"
	default:
		fill = "white"
	}
	return
}
