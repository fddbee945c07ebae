package initialize

import (
	"context"
	"fmt"

	"github.com/notargets/DAEInit/dynutil"
	"github.com/notargets/DAEInit/logging"
	"github.com/notargets/DAEInit/model"
	"github.com/notargets/DAEInit/solver"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the progress of a Stepper
type State uint8

const (
	StateIdle State = iota
	StateConsistentIC
	StatePerElement
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConsistentIC:
		return "consistentIC"
	case StatePerElement:
		return "perElement"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Config struct {
	Solver      solver.Solver // A damped Newton solver when nil
	OutputLevel logging.Level
	IgnoreDOF   bool            // Skip the square-subproblem check before each solve
	Logger      *zerolog.Logger // Base logger, the global logger when nil
}

// Stepper initializes a model discretized over a time domain one finite
// element at a time. A Stepper runs once; the model and time domain remain
// owned by the caller, and two Steppers must never run over the same model
// at the same time.
type Stepper struct {
	blk *model.Block
	td  *model.TimeDomain
	cfg Config

	initLog  logging.Logger
	solveLog logging.Logger

	state   State
	element int
	total   int
	err     error
}

func NewStepper(b *model.Block, td *model.TimeDomain, cfg Config) *Stepper {
	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}
	name := "<nil>"
	if b != nil {
		name = b.Name()
	}
	s := &Stepper{
		blk:      b,
		td:       td,
		cfg:      cfg,
		initLog:  logging.New(base, name, "init", cfg.OutputLevel),
		solveLog: logging.New(base, name, "solve", cfg.OutputLevel),
	}
	if s.cfg.Solver == nil {
		s.cfg.Solver = solver.NewNewton(solver.DefaultConfig()).WithLogger(s.solveLog.Zerolog())
	}
	return s
}

func (s *Stepper) State() State { return s.state }

// Element is the finite element being, or last, solved; 0 before the
// element loop
func (s *Stepper) Element() int { return s.element }
func (s *Stepper) Total() int   { return s.total }
func (s *Stepper) Err() error   { return s.err }

// ByTimeElement runs a new Stepper over b and td
func ByTimeElement(ctx context.Context, b *model.Block, td *model.TimeDomain, cfg Config) error {
	return NewStepper(b, td, cfg).Run(ctx)
}

// run holds the bookkeeping of one pass over the model
type run struct {
	snapshot      dynutil.ActivitySnapshot
	record        dynutil.DeactivationRecord
	unindexedCons []*model.Constraint
	unindexedVars []*model.Var
	pairings      dynutil.DerivativePairing
}

// Run drives the model from Idle to Done. Any failure is terminal: the model
// is left in the activation and fixing state it had at the failure point.
func (s *Stepper) Run(ctx context.Context) error {
	switch {
	case s.state != StateIdle:
		return &ConfigurationError{Msg: fmt.Sprintf("stepper already ran (state %s)", s.state)}
	case s.blk == nil:
		return s.fail(&ConfigurationError{Msg: "no model block"})
	case s.td == nil:
		return s.fail(&ConfigurationError{Msg: "no time domain"})
	}

	info, err := Inspect(s.td)
	if err != nil {
		return s.fail(err)
	}
	s.total = info.NFE
	s.initLog.InfoHigh().Str("time", s.td.String()).Msg("starting element-wise initialization")

	if err := s.checkDOF(StageConsistentIC); err != nil {
		return s.fail(err)
	}

	r := &run{snapshot: dynutil.SnapshotActivity(s.blk)}
	defer func() { *r = run{} }()

	t0 := s.td.First()
	s.state = StateConsistentIC
	r.record, err = dynutil.DeactivateExceptAt(s.blk, s.td, t0)
	if err != nil {
		return s.fail(&ConfigurationError{Msg: err.Error()})
	}
	if err := s.solve(ctx, StageConsistentIC); err != nil {
		return s.fail(err)
	}
	s.initLog.Info().Msg("consistent initial conditions solved")

	atFirst, err := dynutil.DeactivateModelAt(s.blk, s.td, t0)
	if err != nil {
		return s.fail(&ConfigurationError{Msg: err.Error()})
	}
	r.record.Merge(atFirst)

	r.unindexedCons = dynutil.DeactivateConstraintsUnindexedBy(s.blk, s.td)
	r.unindexedVars = dynutil.FixVarsUnindexedBy(s.blk, s.td)
	r.pairings, err = dynutil.PairingsAt(s.blk, s.td, s.td.Points()...)
	if err != nil {
		return s.fail(&ConfigurationError{Msg: err.Error()})
	}

	s.state = StatePerElement
	for i := 1; i <= info.NFE; i++ {
		s.element = i
		if err := s.stepElement(ctx, r, info.NCP, i); err != nil {
			return s.fail(err)
		}
	}

	r.record.ReactivateAll(r.snapshot)
	for _, c := range r.unindexedCons {
		c.Activate()
	}
	for _, v := range r.unindexedVars {
		v.Unfix()
	}
	s.state = StateDone
	s.initLog.InfoHigh().Int("elements", s.total).Msg("element-wise initialization done")
	return nil
}

func (s *Stepper) stepElement(ctx context.Context, r *run, ncp, i int) error {
	tPrev, points := ElementLayout(s.td, ncp, i)
	s.initLog.Info().Int("element", i).Int("total", s.total).
		Float64("t_prev", tPrev).Floats64("points", points).Msg("entering element")

	r.record.ReactivateAt(r.snapshot, points...)

	pairs := r.pairings[tPrev]
	// A variable may sit in two pairs (v is both dx/dt and the state of dv/dt),
	// so every flag is recorded before any is changed
	wasFixed := make(map[model.ComponentID]bool, 2*len(pairs))
	for _, p := range pairs {
		for _, v := range []*model.Var{p.Derivative, p.State} {
			if _, seen := wasFixed[v.ID()]; !seen {
				wasFixed[v.ID()] = v.IsFixed()
			}
		}
	}
	for _, p := range pairs {
		for _, v := range []*model.Var{p.Derivative, p.State} {
			// A variable never given a value must stay free
			if v.HasValue() {
				v.Fix()
			}
		}
	}

	for _, t := range points {
		dynutil.CopyValuesAtTime(s.blk, s.blk, s.td, t, tPrev, false)
	}

	if err := s.checkDOF(StageElement); err != nil {
		return err
	}
	if err := s.solve(ctx, StageElement); err != nil {
		return err
	}
	s.initLog.Info().Int("element", i).Int("total", s.total).Msg("solved element")

	r.record.DeactivateAt(points...)
	for _, p := range pairs {
		for _, v := range []*model.Var{p.Derivative, p.State} {
			if !wasFixed[v.ID()] {
				v.Unfix()
			}
		}
	}
	return nil
}

func (s *Stepper) checkDOF(stage Stage) error {
	if s.cfg.IgnoreDOF {
		return nil
	}
	if dof := model.DegreesOfFreedom(s.blk); dof != 0 {
		return &PreconditionError{DOF: dof, Stage: stage, Element: s.element, Total: s.total}
	}
	return nil
}

func (s *Stepper) solve(ctx context.Context, stage Stage) error {
	res, err := s.cfg.Solver.Solve(ctx, s.blk, logging.SolverTee(s.solveLog))
	s.solveLog.Debug().Str("phase", stage.String()).Int("element", s.element).
		Str("result", res.String()).Dur("elapsed", res.Elapsed).Msg("solve returned")
	if err != nil || !res.Optimal() {
		return &SolveError{
			Stage:       stage,
			Element:     s.element,
			Total:       s.total,
			Termination: res.Termination,
			Err:         err,
		}
	}
	return nil
}

func (s *Stepper) fail(err error) error {
	s.state = StateFailed
	s.err = err
	s.initLog.Error().Err(err).Int("element", s.element).Int("total", s.total).Msg("initialization failed")
	return err
}
