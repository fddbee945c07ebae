package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/notargets/DAEInit/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Config controls the damped Newton iteration
type Config struct {
	Tolerance     float64 // Infinity norm of the residual accepted as converged
	MaxIterations int
	MinDamping    float64 // Smallest line-search step before the solve is declared infeasible
	FDStep        float64 // Relative finite-difference step of the Jacobian
}

func DefaultConfig() Config {
	return Config{
		Tolerance:     1e-8,
		MaxIterations: 100,
		MinDamping:    1e-4,
		FDStep:        1e-7,
	}
}

// Newton is a damped Newton solver over the active constraints of a block.
// Square systems are stepped with an LU factorization, rectangular ones with
// the least-squares (tall) or minimum-norm (wide) solution.
type Newton struct {
	Config
	log zerolog.Logger
}

// NewNewton fills unset fields of cfg from DefaultConfig
func NewNewton(cfg Config) *Newton {
	def := DefaultConfig()
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.MinDamping <= 0 {
		cfg.MinDamping = def.MinDamping
	}
	if cfg.FDStep <= 0 {
		cfg.FDStep = def.FDStep
	}
	return &Newton{Config: cfg, log: log.Logger.With().Str("solver", "newton").Logger()}
}

// WithLogger routes tee output to l
func (n *Newton) WithLogger(l zerolog.Logger) *Newton {
	n.log = l.With().Str("solver", "newton").Logger()
	return n
}

func (n *Newton) Solve(ctx context.Context, b *model.Block, tee bool) (Result, error) {
	if b == nil {
		return Result{Termination: Error}, errors.New("newton: nil block")
	}
	sys := assemble(b)
	defer sys.release()
	return n.run(ctx, sys, tee)
}

// SolveBatch solves blocks as one aggregate system. Every result carries the
// shared termination and iteration count with per-block sizes and residuals.
func (n *Newton) SolveBatch(ctx context.Context, blocks []*model.Block, tee bool) ([]Result, error) {
	if len(blocks) == 0 {
		return nil, errors.New("newton: no blocks to solve")
	}
	for _, b := range blocks {
		if b == nil {
			return nil, errors.New("newton: nil block in batch")
		}
	}
	sys := assemble(blocks...)
	defer sys.release()
	res, err := n.run(ctx, sys, tee)

	out := make([]Result, len(blocks))
	for i, b := range blocks {
		part := assemble(b)
		r := res
		r.NumConstraints, r.NumVariables = part.dims()
		r.Residual = part.norm()
		part.release()
		out[i] = r
	}
	return out, err
}

func (n *Newton) run(ctx context.Context, sys *system, tee bool) (res Result, err error) {
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	m, nv := sys.dims()
	res.NumConstraints, res.NumVariables = m, nv
	sys.seed()

	var (
		x     = sys.x(nil)
		f     = sys.residual(nil)
		xt    = make([]float64, nv)
		ft    = make([]float64, m)
		fnorm = infNorm(f)
		J     *mat.Dense
	)
	if m > 0 && nv > 0 {
		J = mat.NewDense(m, nv, nil)
	}

	for res.Iterations = 0; ; res.Iterations++ {
		res.Residual = fnorm
		switch {
		case math.IsNaN(fnorm) || math.IsInf(fnorm, 0):
			res.Termination = Error
			return res, nil
		case fnorm <= n.Tolerance:
			res.Termination = Optimal
			if tee {
				n.log.Info().Int("iter", res.Iterations).Float64("residual", fnorm).Msg("converged")
			}
			return res, nil
		case ctx.Err() != nil:
			res.Termination = Canceled
			return res, ctx.Err()
		case res.Iterations >= n.MaxIterations:
			res.Termination = MaxIterations
			return res, nil
		case nv == 0:
			// Violated constraints with nothing left to move
			res.Termination = Infeasible
			return res, nil
		}

		sys.jacobian(J, f, n.FDStep)
		dx, ok := newtonStep(J, f)
		if !ok {
			res.Termination = Singular
			return res, nil
		}

		merit := floats.Norm(f, 2)
		alpha := 1.0
		accepted := false
		for alpha >= n.MinDamping {
			for j := range x {
				xt[j] = x[j] + alpha*dx[j]
			}
			sys.setX(xt)
			sys.residual(ft)
			if trial := floats.Norm(ft, 2); trial < (1-1e-4*alpha)*merit || infNorm(ft) <= n.Tolerance {
				accepted = true
				break
			}
			alpha /= 2
		}
		if !accepted {
			sys.setX(x)
			res.Termination = Infeasible
			return res, nil
		}
		copy(x, xt)
		copy(f, ft)
		fnorm = infNorm(f)
		if tee {
			n.log.Info().Int("iter", res.Iterations+1).Float64("residual", fnorm).
				Float64("alpha", alpha).Msg("newton step")
		}
	}
}

func newtonStep(J *mat.Dense, f []float64) ([]float64, bool) {
	m, nv := J.Dims()
	rhs := mat.NewVecDense(m, nil)
	for i, fi := range f {
		rhs.SetVec(i, -fi)
	}
	var dx mat.VecDense
	if m == nv {
		var lu mat.LU
		lu.Factorize(J)
		if cond := lu.Cond(); math.IsInf(cond, 1) || cond > 1e15 {
			return nil, false
		}
		if err := lu.SolveVecTo(&dx, false, rhs); err != nil {
			return nil, false
		}
	} else if err := dx.SolveVec(J, rhs); err != nil {
		return nil, false
	}
	return dx.RawVector().Data, true
}

func infNorm(f []float64) float64 {
	if len(f) == 0 {
		return 0
	}
	if floats.HasNaN(f) {
		return math.NaN()
	}
	return floats.Norm(f, math.Inf(1))
}
