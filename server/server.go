package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"gridpatrol/server/cell_views"
	"gridpatrol/server/fastview"
	"gridpatrol/server/root_view"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownWait = 5 * time.Second

// Server serves a single page showing a running obstruction search, with its updates
// pushed over a websocket. The root view's update channel has a single reader, so
// only one websocket client is served at a time; later clients get the page as of
// their request but no live updates until the first disconnects.
// TODO: broadcast root view updates so that multiple clients can be synced at once.
type Server struct {
	addr     string
	rootView *root_view.RootView
	router   *mux.Router

	mu   sync.Mutex
	last cell_views.Board
}

// NewServer initializes all of the views and returns a server. The boards chan
// carries successive snapshots of the search; initial is rendered until the first arrives.
func NewServer(
	ctx context.Context,
	addr string,
	initial cell_views.Board,
	boards <-chan cell_views.Board,
) (*Server, error) {
	server := &Server{
		addr: addr,
		last: initial,
	}

	rootView, err := root_view.NewRootView(ctx, server.track(ctx.Done(), boards))
	if err != nil {
		return nil, fmt.Errorf("root view: %w", err)
	}
	server.rootView = rootView

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	server.router = router

	return server, nil
}

// track records the latest board for rendering new page requests, and forwards it.
// Boards are never queued: while the views are not reading, only the newest is kept.
func (server *Server) track(
	done <-chan struct{},
	boards <-chan cell_views.Board,
) <-chan cell_views.Board {
	output := make(chan cell_views.Board)
	go func() {
		defer close(output)
		var pending *cell_views.Board
		for boards != nil || pending != nil {
			// A nil chan disables its case until there is something to send.
			var out chan<- cell_views.Board
			var next cell_views.Board
			if pending != nil {
				out = output
				next = *pending
			}

			select {
			case <-done:
				return
			case board, ok := <-boards:
				if !ok {
					boards = nil
					continue
				}
				server.setLast(board)
				pending = &board
			case out <- next:
				pending = nil
			}
		}
	}()
	return output
}

func (server *Server) setLast(board cell_views.Board) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.last = board
}

func (server *Server) getLast() cell_views.Board {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.last
}

// Handler returns the server's router.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens on the server's address until ctx is cancelled.
func (server *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving", "addr", server.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return <-shutdownErr
}

// serveWebsocket publishes view updates to the client via websocket.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	client, err := fastview.NewClient(server.rootView.Updates(), w, r)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}

	if err = client.Sync(); err != nil {
		slog.Warn("websocket client sync ended", "err", err)
	}
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, cell_views.Convert(server.getLast())); err != nil {
		slog.Error("render failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
