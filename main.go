/*
Patrol simulates a guard walking a grid: it moves forward until something is in the way, then
turns right. The walk command reports how many cells the guard covers before leaving the grid.
The search command places one extra obstruction on each free cell in turn and counts the
placements that trap the guard in a loop forever. The serve command runs the search behind a
web page that fills in the loop-inducing cells as trials complete.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"gridpatrol/grid_world"
	"gridpatrol/patrol"
	"gridpatrol/server"
	"gridpatrol/server/cell_views"

	"github.com/spf13/cobra"
)

var (
	configPath string
	gridPath   string
	debug      bool
	nworkers   int
	show       bool
	addr       string

	rootCmd = &cobra.Command{
		Use:           "patrol",
		Short:         "Simulate a grid patrol and search for loop-inducing obstructions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(debug)
		},
	}

	walkCmd = &cobra.Command{
		Use:   "walk",
		Short: "Walk the grid and print the number of distinct cells covered",
		Args:  cobra.NoArgs,
		RunE:  runWalk,
	}

	searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Print the number of single-cell obstructions that trap the agent in a loop",
		Args:  cobra.NoArgs,
		RunE:  runSearch,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the obstruction search behind a live web view",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "./config.yaml", "search config file; defaults apply if it does not exist")
	flags.StringVar(&gridPath, "grid", "", "path of the grid file")
	flags.BoolVar(&debug, "debug", false, "use the built-in debug grid when --grid is not given, and log at debug level")
	flags.IntVar(&nworkers, "workers", runtime.NumCPU(), "number of search workers")
	flags.BoolVar(&show, "show", false, "print grids to the console")

	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	rootCmd.AddCommand(walkCmd, searchCmd, serveCmd)
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadGrid reads the grid from --grid, or falls back to the debug grid with --debug.
func loadGrid() (*grid_world.Grid, grid_world.Start, error) {
	if gridPath == "" {
		if !debug {
			return nil, grid_world.Start{}, errors.New("no grid: pass --grid <path> or --debug")
		}
		return grid_world.Convert(grid_world.DebugGrid)
	}

	data, err := os.ReadFile(gridPath)
	if err != nil {
		return nil, grid_world.Start{}, fmt.Errorf("read grid: %w", err)
	}
	grid, start, err := grid_world.ConvertString(string(data))
	if err != nil {
		return nil, grid_world.Start{}, fmt.Errorf("%s: %w", gridPath, err)
	}
	return grid, start, nil
}

// loadConfig reads the config file if present, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*patrol.SearchConfig, error) {
	cfg := patrol.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if cfg, err = patrol.FromYaml(configPath); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	} else {
		slog.Debug("no config file, using defaults", "path", configPath)
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = nworkers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWalk(cmd *cobra.Command, args []string) error {
	grid, start, err := loadGrid()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := patrol.Walk(grid, start, patrol.WithDeadlockPolicy(cfg.Policy()))
	if err != nil {
		return err
	}
	if show {
		grid_world.ShowGrid(grid, start)
		grid_world.ShowCoverage(grid, out.Coverage)
	}
	if out.Result != patrol.Exited {
		slog.Warn("the agent never leaves the grid", "result", out.Result, "moves", out.Moves)
	}

	fmt.Println(out.Coverage.Len())
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	grid, start, err := loadGrid()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	searchCtx, cancel, err := cfg.WithSearchDeadline(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	result, err := patrol.Search(searchCtx, grid, start, cfg, logProgress)
	if err != nil {
		return err
	}

	if show {
		for _, cell := range result.LoopCells {
			overlay := grid.WithObstruction(cell)
			out, err := patrol.Walk(overlay, start, patrol.WithDeadlockPolicy(cfg.Policy()))
			if err != nil {
				return err
			}
			fmt.Println(cell)
			grid_world.ShowCoverage(overlay, out.Coverage)
		}
	}

	fmt.Println(result.Loops)
	return nil
}

func logProgress(_ context.Context, progress patrol.Progress) {
	slog.Debug("search progress",
		"id", progress.ID,
		"trials", progress.Trials,
		"total", progress.Total,
		"loops", progress.Loops)
}

func runServe(cmd *cobra.Command, args []string) error {
	grid, start, err := loadGrid()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	appCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	route, err := patrol.Walk(grid, start, patrol.WithDeadlockPolicy(cfg.Policy()))
	if err != nil {
		return err
	}

	board := cell_views.NewBoard(grid, start, route.Coverage)
	boards := make(chan cell_views.Board, 1)
	srv, err := server.NewServer(appCtx, addr, board, boards)
	if err != nil {
		return err
	}

	searchCtx, cancel, err := cfg.WithSearchDeadline(appCtx)
	if err != nil {
		return err
	}
	defer cancel()

	// Progress callbacks come from a single goroutine, so board needs no lock.
	exportBoard := func(ctx context.Context, progress patrol.Progress) {
		logProgress(ctx, progress)
		board = board.Apply(progress)
		offer(boards, board)
	}
	go func() {
		result, err := patrol.Search(searchCtx, grid, start, cfg, exportBoard)
		if err != nil {
			slog.Error("search failed", "err", err)
			return
		}
		slog.Info("search finished", "id", result.ID, "loops", result.Loops, "elapsed", result.Elapsed)
	}()

	return srv.Serve(appCtx)
}

// offer replaces whatever board is waiting in the single-slot chan, so the search
// never blocks on the server.
func offer(boards chan cell_views.Board, board cell_views.Board) {
	for {
		select {
		case boards <- board:
			return
		default:
		}
		select {
		case <-boards:
		default:
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
