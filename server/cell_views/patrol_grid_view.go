package cell_views

import (
	"fmt"
	"html/template"

	"gridpatrol/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Cell height/width in pixels.
const cellDim = 32

// PatrolGrid is an svg of the grid, one rect per cell, colored by the cell's kind.
type PatrolGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewPatrolGrid(
	done <-chan struct{},
	grids <-chan Grid,
) (pg *PatrolGrid) {
	pg = &PatrolGrid{id: "patrolgrid"}
	pg.updates = channerics.Convert(done, grids, pg.onUpdate)
	return
}

func (pg *PatrolGrid) Updates() <-chan []fastview.EleUpdate {
	return pg.updates
}

func cellId(x, y int) string {
	return fmt.Sprintf("%d-%d-cell", x, y)
}

// Returns the fill of every cell. Each update fully specifies the view.
func (pg *PatrolGrid) onUpdate(
	vm Grid,
) (ops []fastview.EleUpdate) {
	for _, row := range vm.Cells {
		for _, cell := range row {
			ops = append(ops, fastview.EleUpdate{
				EleId: cellId(cell.X, cell.Y),
				Ops: []fastview.Op{
					{
						Key:   "fill",
						Value: cell.Fill,
					},
				},
			})
		}
	}
	return
}

// Parse defines the grid's svg template and returns its name.
func (pg *PatrolGrid) Parse(
	t *template.Template,
) (name string, err error) {
	name = pg.id
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			{{ $cell_dim := ` + fmt.Sprintf("%d", cellDim) + ` }}
			{{ $height := mult $cell_dim (len .Cells) }}
			{{ $width := 0 }}
			{{ if .Cells }}{{ $width = mult $cell_dim (len (index .Cells 0)) }}{{ end }}
			<svg id="` + pg.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ $width }}px"
				height="{{ $height }}px"
				style="shape-rendering: crispEdges; stroke: lightgrey; stroke-opacity: 1.0; stroke-width: 1;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
						<rect id="{{$cell.X}}-{{$cell.Y}}-cell"
							x="{{ mult $cell.X $cell_dim }}"
							y="{{ mult $cell.Y $cell_dim }}"
							width="{{ $cell_dim }}"
							height="{{ $cell_dim }}"
							fill="{{ $cell.Fill }}" />
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
