package patrol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gridpatrol/atomic_count"
	"gridpatrol/metrics"

	. "gridpatrol/grid_world"

	"github.com/google/uuid"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

// Candidates returns every free cell except the agent's start, in row-major order.
// An obstruction under the agent is meaningless, and one on a wall changes nothing.
func Candidates(grid *Grid, start Start) (cells []Position) {
	VisitFree(grid, func(p Position) {
		if p != start.Position {
			cells = append(cells, p)
		}
	})
	return
}

// PathCandidates returns the free cells the unperturbed walk enters, except the start.
// An obstruction off this route is never met, so when the walk exits only these can
// trap the agent. When the walk already loops, every placement off the route loops as
// well, so all candidates are returned.
func PathCandidates(grid *Grid, start Start, policy DeadlockPolicy) ([]Position, error) {
	out, err := Walk(grid, start, WithDeadlockPolicy(policy))
	if err != nil {
		return nil, err
	}
	if out.Result != Exited {
		return Candidates(grid, start), nil
	}

	cells := make([]Position, 0, out.Coverage.Len())
	for _, p := range out.Coverage.Positions() {
		if p != start.Position {
			cells = append(cells, p)
		}
	}
	return cells, nil
}

// TrialOutcome is the result of simulating one hypothetical obstruction.
type TrialOutcome struct {
	Cell  Position
	Loop  bool
	Moves int
}

// Trial runs a fresh agent from start against the grid with cell additionally occupied.
// Nothing is shared with other trials except the read-only grid.
func Trial(grid *Grid, start Start, cell Position, policy DeadlockPolicy) (TrialOutcome, error) {
	sim := NewSimulator(grid.WithObstruction(cell), start, WithDeadlockPolicy(policy))
	out, err := sim.Run()
	if err != nil {
		return TrialOutcome{}, fmt.Errorf("trial %v: %w", cell, err)
	}
	return TrialOutcome{
		Cell:  cell,
		Loop:  out.Result == LoopDetected,
		Moves: out.Moves,
	}, nil
}

// Progress is a snapshot of a running search, passed to a ProgressFunc.
type Progress struct {
	ID     uuid.UUID
	Trials int
	Total  int
	Loops  int
	// Latest holds the outcomes completed since the previous callback.
	Latest []TrialOutcome
	Done   bool
}

// ProgressFunc is a callback by which the search lends progress details. It is called from
// the search's collecting goroutine and blocks it, so it should complete quickly.
type ProgressFunc func(context.Context, Progress)

// Result is the outcome of a complete search.
type Result struct {
	ID     uuid.UUID
	Trials int
	Loops  int
	// LoopCells are the loop-inducing obstructions, in row-major order.
	LoopCells []Position
	Elapsed   time.Duration
}

/*
Search counts the single-cell obstructions that trap the agent in a loop.

It is a map-reduce over the candidate cells: a producer feeds cells to a fixed number of
workers, each running independent trials; every loop increments a shared atomic count, and
each worker's outcomes are fanned in to a single collector which reports progress. Trials
share only the base grid and start, neither of which is ever written, so they may finish in
any order. The search stops early on a trial error or when ctx is done.
*/
func Search(
	ctx context.Context,
	grid *Grid,
	start Start,
	cfg *SearchConfig,
	progressFn ProgressFunc,
) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy := cfg.Policy()

	var candidates []Position
	if cfg.Candidates == CANDIDATES_PATH {
		var err error
		if candidates, err = PathCandidates(grid, start, policy); err != nil {
			return nil, err
		}
	} else {
		candidates = Candidates(grid, start)
	}

	id := uuid.New()
	began := time.Now()
	slog.Debug("search started",
		"id", id,
		"candidates", len(candidates),
		"mode", cfg.Candidates,
		"workers", cfg.Workers)

	group, groupCtx := errgroup.WithContext(ctx)
	cells := make(chan Position)
	group.Go(func() error {
		defer close(cells)
		for _, cell := range candidates {
			select {
			case cells <- cell:
			case <-groupCtx.Done():
				return nil
			}
		}
		return nil
	})

	loops := atomic_count.NewAtomicCount(0)
	worker := func(outcomes chan<- TrialOutcome) error {
		defer close(outcomes)
		for cell := range channerics.OrDone(groupCtx.Done(), cells) {
			outcome, err := Trial(grid, start, cell, policy)
			if err != nil {
				return err
			}
			if outcome.Loop {
				loops.AtomicIncrement()
			}

			select {
			case outcomes <- outcome:
			case <-groupCtx.Done():
				return nil
			}
		}
		return nil
	}

	workers := make([]<-chan TrialOutcome, 0, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		outcomes := make(chan TrialOutcome)
		workers = append(workers, outcomes)
		group.Go(func() error { return worker(outcomes) })
	}

	result := &Result{ID: id}
	progress := Progress{ID: id, Total: len(candidates)}
	for outcome := range channerics.Merge(groupCtx.Done(), workers...) {
		metrics.ObserveTrial(outcome.Loop)
		result.Trials++
		if outcome.Loop {
			result.LoopCells = append(result.LoopCells, outcome.Cell)
		}

		if progressFn != nil {
			progress.Latest = append(progress.Latest, outcome)
			if len(progress.Latest) >= cfg.ProgressInterval {
				progress.Trials = result.Trials
				progress.Loops = len(result.LoopCells)
				progressFn(ctx, progress)
				progress.Latest = nil
			}
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Loops = int(loops.AtomicRead())
	result.Elapsed = time.Since(began)
	sortRowMajor(result.LoopCells)
	metrics.ObserveSearch(result.Elapsed)

	if progressFn != nil {
		progress.Trials = result.Trials
		progress.Loops = result.Loops
		progress.Done = true
		progressFn(ctx, progress)
	}

	slog.Debug("search finished",
		"id", id,
		"trials", result.Trials,
		"loops", result.Loops,
		"elapsed", result.Elapsed)
	return result, nil
}
