package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gridpatrol/grid_world"
	"gridpatrol/patrol"
	"gridpatrol/server/cell_views"
	"gridpatrol/server/fastview"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

func debugBoard() cell_views.Board {
	grid, start, err := grid_world.Convert(grid_world.DebugGrid)
	if err != nil {
		panic(err)
	}
	route, err := patrol.Walk(grid, start)
	if err != nil {
		panic(err)
	}
	return cell_views.NewBoard(grid, start, route.Coverage)
}

func get(url string) (int, string) {
	resp, err := http.Get(url)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp.StatusCode, string(body)
}

func TestServer(t *testing.T) {
	Convey("When the server is running", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		board := debugBoard()
		boards := make(chan cell_views.Board, 1)
		srv, err := NewServer(ctx, ":0", board, boards)
		So(err, ShouldBeNil)

		ts := httptest.NewServer(srv.Handler())
		defer ts.Close()

		Convey("The index page renders the initial board", func() {
			status, body := get(ts.URL + "/")
			So(status, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, `id="4-6-cell"`)
			So(body, ShouldContainSubstring, `<span id="tally_trials">0/0</span>`)
		})

		Convey("Metrics are exposed", func() {
			status, body := get(ts.URL + "/metrics")
			So(status, ShouldEqual, http.StatusOK)
			So(body, ShouldContainSubstring, "patrol_search_trials_total")
		})

		Convey("Unknown paths are not found", func() {
			status, _ := get(ts.URL + "/nope")
			So(status, ShouldEqual, http.StatusNotFound)
		})

		Convey("A websocket client receives board updates", func() {
			wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			So(err, ShouldBeNil)
			defer conn.Close()

			boards <- board.Apply(patrol.Progress{
				Trials: 1,
				Total:  91,
				Latest: []patrol.TrialOutcome{{Cell: grid_world.Position{X: 3, Y: 6}, Loop: true}},
			})

			ids := map[string]fastview.EleUpdate{}
			_ = conn.SetReadDeadline(time.Now().Add(time.Second * 5))
			for ids["tally_trials"].Ops == nil || ids["3-6-cell"].Ops == nil {
				var updates []fastview.EleUpdate
				if err := conn.ReadJSON(&updates); err != nil {
					So(err, ShouldBeNil)
					return
				}
				for _, update := range updates {
					ids[update.EleId] = update
				}
			}
			So(ids["tally_trials"].Ops, ShouldResemble, []fastview.Op{{Key: "textContent", Value: "1/91"}})
			So(ids["3-6-cell"].Ops, ShouldResemble, []fastview.Op{{Key: "fill", Value: "crimson"}})

			Convey("New page requests render the latest board", func() {
				_, body := get(ts.URL + "/")
				So(body, ShouldContainSubstring, `<span id="tally_trials">1/91</span>`)
			})
		})
	})
}
