package rankgo

import (
	"context"
)

const (
	// DefaultMaxIterations bounds an Iterate run.
	DefaultMaxIterations = 150
	// DefaultTolerance is the total rank change at or below which an
	// Iterate run counts as converged.
	DefaultTolerance = 1e-16
)

// DriverOptions configures Iterate. Zero values select the defaults.
type DriverOptions struct {
	MaxIterations int
	// Tolerance is the convergence threshold. A negative value disables
	// the convergence check so that exactly MaxIterations steps run.
	Tolerance float64
	// OnIteration, if set, is called after every step with the 1-based
	// iteration number and the step's total rank change.
	OnIteration func(iteration int, change float64)
}

// Result summarizes an Iterate run.
type Result struct {
	Iterations      int
	TotalRankChange float64
	// Converged is true if the run stopped because the change fell to the
	// tolerance rather than because of the iteration limit.
	Converged bool
}

// Iterate runs NextIteration until the total rank change is at or below the
// tolerance or MaxIterations steps have run. The graph must be initialized.
//
// ctx is checked between steps; a step in progress always completes.
func Iterate(ctx context.Context, g *Graph, opts DriverOptions) (Result, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = DefaultTolerance
	}
	if !g.Initialized() {
		return Result{}, ErrNotInitialized
	}

	var res Result
	for res.Iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		change, err := g.NextIteration(ctx)
		if err != nil {
			return res, err
		}
		res.Iterations++
		res.TotalRankChange = change
		if opts.OnIteration != nil {
			opts.OnIteration(res.Iterations, change)
		}
		if opts.Tolerance >= 0 && change <= opts.Tolerance {
			res.Converged = true
			break
		}
	}

	g.logger.LogConverged(ctx, res.Iterations, res.TotalRankChange, res.Converged)
	return res, nil
}
