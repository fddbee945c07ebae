package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/notargets/DAEInit/model"
)

// TerminationCondition reports why a solve stopped
type TerminationCondition uint8

const (
	TerminationUnknown TerminationCondition = iota
	Optimal
	MaxIterations
	Infeasible
	Singular
	Canceled
	Error
)

func (tc TerminationCondition) String() string {
	switch tc {
	case Optimal:
		return "optimal"
	case MaxIterations:
		return "maxIterations"
	case Infeasible:
		return "infeasible"
	case Singular:
		return "singular"
	case Canceled:
		return "canceled"
	case Error:
		return "error"
	}
	return "unknown"
}

// Result summarizes one solve
type Result struct {
	Termination    TerminationCondition
	Iterations     int
	Residual       float64 // Infinity norm of the active residuals at exit
	NumVariables   int
	NumConstraints int
	Elapsed        time.Duration
}

func (r Result) Optimal() bool { return r.Termination == Optimal }

func (r Result) String() string {
	return fmt.Sprintf("%s after %d iterations (|r|=%.3e, %d vars, %d cons)",
		r.Termination, r.Iterations, r.Residual, r.NumVariables, r.NumConstraints)
}

// Solver solves the active constraints of a block for its unfixed variables,
// writing the solution back into the variables. tee requests that solver
// progress be echoed.
type Solver interface {
	Solve(ctx context.Context, b *model.Block, tee bool) (Result, error)
}

// BatchSolver additionally solves independent blocks as one aggregate
// problem, returning one result per block
type BatchSolver interface {
	Solver
	SolveBatch(ctx context.Context, blocks []*model.Block, tee bool) ([]Result, error)
}

// Func adapts a function to the Solver interface
type Func func(ctx context.Context, b *model.Block, tee bool) (Result, error)

func (f Func) Solve(ctx context.Context, b *model.Block, tee bool) (Result, error) {
	return f(ctx, b, tee)
}
