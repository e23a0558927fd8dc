package cell_views

import (
	"fmt"
	"html/template"

	"gridpatrol/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// Tally shows the search's trial and loop counts.
type Tally struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewTally(
	done <-chan struct{},
	grids <-chan Grid,
) (tv *Tally) {
	tv = &Tally{id: "tally"}
	tv.updates = channerics.Convert(done, grids, tv.onUpdate)
	return
}

func (tv *Tally) Updates() <-chan []fastview.EleUpdate {
	return tv.updates
}

func status(done bool) string {
	if done {
		return "done"
	}
	return "searching"
}

func (tv *Tally) onUpdate(
	vm Grid,
) []fastview.EleUpdate {
	text := func(id, value string) fastview.EleUpdate {
		return fastview.EleUpdate{
			EleId: tv.id + "_" + id,
			Ops: []fastview.Op{
				{
					Key:   "textContent",
					Value: value,
				},
			},
		}
	}
	return []fastview.EleUpdate{
		text("trials", fmt.Sprintf("%d/%d", vm.Trials, vm.Total)),
		text("loops", fmt.Sprintf("%d", vm.Loops)),
		text("status", status(vm.Done)),
	}
}

// Parse defines the tally's template and returns its name.
func (tv *Tally) Parse(
	t *template.Template,
) (name string, err error) {
	name = tv.id
	_, err = t.Funcs(template.FuncMap{
		"status": status,
	}).Parse(
		`{{ define "` + name + `" }}
		<div id="` + tv.id + `" style="padding:20px; font-family:monospace;">
			<div>trials: <span id="` + tv.id + `_trials">{{ .Trials }}/{{ .Total }}</span></div>
			<div>loops: <span id="` + tv.id + `_loops">{{ .Loops }}</span></div>
			<div>status: <span id="` + tv.id + `_status">{{ status .Done }}</span></div>
		</div>
		{{ end }}`)
	return
}
