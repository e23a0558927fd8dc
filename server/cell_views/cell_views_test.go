package cell_views

import (
	"html/template"
	"strings"
	"testing"

	"gridpatrol/grid_world"
	"gridpatrol/patrol"
	"gridpatrol/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func debugBoard() Board {
	grid, start, err := grid_world.Convert(grid_world.DebugGrid)
	if err != nil {
		panic(err)
	}
	route, err := patrol.Walk(grid, start)
	if err != nil {
		panic(err)
	}
	return NewBoard(grid, start, route.Coverage)
}

var loopCell = grid_world.Position{X: 3, Y: 6}

func TestBoard(t *testing.T) {
	Convey("When progress is applied to a board", t, func() {
		board := debugBoard()
		next := board.Apply(patrol.Progress{
			Trials: 2,
			Total:  91,
			Loops:  1,
			Latest: []patrol.TrialOutcome{
				{Cell: loopCell, Loop: true},
				{Cell: grid_world.Position{X: 0, Y: 0}},
			},
		})

		Convey("Only the looping trials are recorded", func() {
			So(next.Loops, ShouldResemble, map[grid_world.Position]bool{loopCell: true})
			So(next.Trials, ShouldEqual, 2)
			So(next.Total, ShouldEqual, 91)
			So(next.Done, ShouldBeFalse)
		})

		Convey("The original board is unchanged", func() {
			So(board.Loops, ShouldBeEmpty)
			So(board.Trials, ShouldEqual, 0)
		})

		Convey("Later progress accumulates", func() {
			last := next.Apply(patrol.Progress{
				Trials: 91,
				Total:  91,
				Done:   true,
				Latest: []patrol.TrialOutcome{{Cell: grid_world.Position{X: 6, Y: 7}, Loop: true}},
			})
			So(len(last.Loops), ShouldEqual, 2)
			So(last.Done, ShouldBeTrue)
			So(len(next.Loops), ShouldEqual, 1)
		})
	})
}

func TestConvert(t *testing.T) {
	Convey("When a board is converted to the view-model", t, func() {
		board := debugBoard().Apply(patrol.Progress{
			Trials: 1,
			Total:  91,
			Latest: []patrol.TrialOutcome{{Cell: loopCell, Loop: true}},
		})
		vm := Convert(board)

		So(len(vm.Cells), ShouldEqual, 10)
		So(len(vm.Cells[0]), ShouldEqual, 10)
		So(vm.Loops, ShouldEqual, 1)
		So(vm.Trials, ShouldEqual, 1)

		kinds := map[string]int{}
		for y, row := range vm.Cells {
			for x, cell := range row {
				So(cell.X, ShouldEqual, x)
				So(cell.Y, ShouldEqual, y)
				So(cell.Fill, ShouldEqual, getFill(cell.Kind))
				kinds[cell.Kind]++
			}
		}

		Convey("Each cell takes its highest precedence kind", func() {
			So(vm.Cells[6][4].Kind, ShouldEqual, START)
			So(vm.Cells[6][3].Kind, ShouldEqual, LOOP)
			So(vm.Cells[0][4].Kind, ShouldEqual, WALL)
			So(vm.Cells[0][0].Kind, ShouldEqual, FREE)
			So(kinds[START], ShouldEqual, 1)
			So(kinds[LOOP], ShouldEqual, 1)
			So(kinds[WALL], ShouldEqual, 8)
			// The route covers 41 cells, less the start and the loop cell.
			So(kinds[ROUTE], ShouldEqual, 39)
		})
	})
}

func TestViews(t *testing.T) {
	Convey("When the views receive a view-model", t, func() {
		done := make(chan struct{})
		defer close(done)

		vm := Convert(debugBoard())

		Convey("The grid view updates the fill of every cell", func() {
			grids := make(chan Grid, 1)
			grids <- vm
			pg := NewPatrolGrid(done, grids)

			updates := <-pg.Updates()
			So(len(updates), ShouldEqual, 100)
			So(updates[0], ShouldResemble, fastview.EleUpdate{
				EleId: "0-0-cell",
				Ops:   []fastview.Op{{Key: "fill", Value: getFill(FREE)}},
			})
		})

		Convey("The tally view updates its counts", func() {
			grids := make(chan Grid, 1)
			grids <- Grid{Trials: 3, Total: 91, Loops: 2, Done: true}
			tv := NewTally(done, grids)

			updates := <-tv.Updates()
			So(updates, ShouldResemble, []fastview.EleUpdate{
				{EleId: "tally_trials", Ops: []fastview.Op{{Key: "textContent", Value: "3/91"}}},
				{EleId: "tally_loops", Ops: []fastview.Op{{Key: "textContent", Value: "2"}}},
				{EleId: "tally_status", Ops: []fastview.Op{{Key: "textContent", Value: "done"}}},
			})
		})

		Convey("Both views render their initial form", func() {
			tmpl := template.New("test").Funcs(template.FuncMap{
				"mult": func(i, j int) int { return i * j },
			})
			pgName, err := NewPatrolGrid(done, nil).Parse(tmpl)
			So(err, ShouldBeNil)
			tvName, err := NewTally(done, nil).Parse(tmpl)
			So(err, ShouldBeNil)
			_, err = tmpl.Parse(`{{ template "` + pgName + `" . }}{{ template "` + tvName + `" . }}`)
			So(err, ShouldBeNil)

			var sb strings.Builder
			So(tmpl.Execute(&sb, vm), ShouldBeNil)
			page := sb.String()
			So(page, ShouldContainSubstring, `id="4-6-cell"`)
			So(page, ShouldContainSubstring, `fill="gold"`)
			So(page, ShouldContainSubstring, `width="320px"`)
			So(page, ShouldContainSubstring, `<span id="tally_status">searching</span>`)
		})
	})
}
