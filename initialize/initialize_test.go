package initialize

import (
	"context"
	"errors"
	"testing"

	"github.com/notargets/DAEInit/logging"
	"github.com/notargets/DAEInit/logging/testlog"
	"github.com/notargets/DAEInit/model"
	"github.com/notargets/DAEInit/solver"
	"github.com/notargets/DAEInit/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTank(t *testing.T, mutate func(*utils.TankConfig)) *utils.Tank {
	t.Helper()
	cfg := utils.DefaultTankConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	tk, err := utils.NewTankModel(cfg)
	require.NoError(t, err)
	return tk
}

// modelState captures every flag and value the initializer may touch
type modelState struct {
	active map[model.ComponentID]bool
	fixed  map[model.ComponentID]bool
	values map[model.ComponentID]float64
}

func captureState(b *model.Block) modelState {
	st := modelState{
		active: make(map[model.ComponentID]bool),
		fixed:  make(map[model.ComponentID]bool),
		values: make(map[model.ComponentID]float64),
	}
	b.Walk(func(c model.Component) bool {
		switch x := c.(type) {
		case model.Activatable:
			st.active[x.ID()] = x.Active()
		case *model.Var:
			st.fixed[x.ID()] = x.IsFixed()
			if x.HasValue() {
				st.values[x.ID()] = x.Value()
			}
		}
		return true
	})
	return st
}

// countingSolver returns Optimal except at call number failAt (1-indexed)
type countingSolver struct {
	calls  int
	failAt int
	onCall func(call int, b *model.Block)
}

func (s *countingSolver) Solve(ctx context.Context, b *model.Block, tee bool) (solver.Result, error) {
	s.calls++
	if s.onCall != nil {
		s.onCall(s.calls, b)
	}
	if s.calls == s.failAt {
		return solver.Result{Termination: solver.Infeasible}, nil
	}
	return solver.Result{Termination: solver.Optimal}, nil
}

func TestInspect(t *testing.T) {
	cases := []struct {
		scheme model.Scheme
		ncp    int
		msg    string
	}{
		{model.BackwardDifference, 1, ""},
		{model.LagrangeRadau, 3, ""},
		{model.LagrangeLegendre, 3, "collocation with Legendre roots unsupported"},
		{model.ForwardDifference, 1, "explicit scheme not implemented"},
		{model.CentralDifference, 1, "not square by construction for this procedure"},
	}
	for _, tc := range cases {
		t.Run(tc.scheme.String(), func(t *testing.T) {
			tk := newTank(t, func(c *utils.TankConfig) { c.Scheme, c.NCP = tc.scheme, tc.ncp })
			info, err := Inspect(tk.Time)
			if tc.msg == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.ncp, info.NCP)
				assert.Equal(t, 5, info.NFE)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.msg, verr.Msg)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	td, err := model.NewTimeDomain("t", 0, 1)
	require.NoError(t, err)
	_, err = Inspect(td)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "not discretized", verr.Msg)

	td.SetDiscretization(model.Discretization{Scheme: model.SchemeUnknown, NFE: 1, NCP: 1})
	_, err = Inspect(td)
	assert.ErrorIs(t, err, ErrValidation)

	td.SetDiscretization(model.Discretization{Scheme: model.LagrangeRadau, NFE: 2, NCP: 2})
	_, err = Inspect(td)
	assert.ErrorIs(t, err, ErrValidation, "point count does not match the metadata")

	td.SetDiscretization(model.Discretization{Scheme: model.BackwardDifference, NFE: 1, NCP: 7})
	info, err := Inspect(td)
	require.NoError(t, err)
	assert.Equal(t, 1, info.NCP, "backward differences have one point per element")
}

func TestElementLayout(t *testing.T) {
	td, err := model.NewTimeDomain("t", 0, 1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, err)
	td.SetDiscretization(model.Discretization{Scheme: model.LagrangeRadau, NFE: 4, NCP: 2})

	tPrev, points := ElementLayout(td, 2, 2)
	assert.Equal(t, td.At(3), tPrev)
	assert.Equal(t, []float64{td.At(4), td.At(5)}, points)

	// Elements partition the non-initial points
	var all []float64
	for i := 1; i <= 4; i++ {
		_, pts := ElementLayout(td, 2, i)
		require.Len(t, pts, 2)
		all = append(all, pts...)
	}
	assert.Equal(t, td.Points()[1:], all)
}

func TestByTimeElementBackward(t *testing.T) {
	testlog.Start(t)
	tk := newTank(t, nil)
	root := tk.Model.Root()
	before := captureState(root)

	newton := solver.NewNewton(solver.DefaultConfig())
	var dofs []int
	var pairsFixed []bool
	calls := 0
	wrapped := solver.Func(func(ctx context.Context, b *model.Block, tee bool) (solver.Result, error) {
		calls++
		dofs = append(dofs, model.DegreesOfFreedom(b))
		if calls > 1 {
			tPrev := tk.Time.At(calls - 1)
			pairsFixed = append(pairsFixed,
				tk.H.At(model.At(tPrev)).IsFixed() && tk.DHDt.At(model.At(tPrev)).IsFixed())
		}
		return newton.Solve(ctx, b, tee)
	})

	s := NewStepper(root, tk.Time, Config{Solver: wrapped, OutputLevel: logging.Debug})
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, 5, s.Element())
	assert.Equal(t, 5, s.Total())
	assert.NoError(t, s.Err())

	assert.Equal(t, 6, calls, "one consistent initial condition solve and one per element")
	for i, dof := range dofs {
		assert.Zerof(t, dof, "solve %d", i+1)
	}
	for i, ok := range pairsFixed {
		assert.Truef(t, ok, "element %d boundary pair fixed", i+1)
	}

	after := captureState(root)
	assert.Equal(t, before.active, after.active)
	assert.Equal(t, before.fixed, after.fixed)

	// Implicit Euler: h1 = (h0 + dt·fin/A) / (1 + dt·k/A)
	cfg := tk.Config
	area := cfg.Area()
	assert.InDelta(t, area, tk.Area.Value(), 1e-9)
	dt := cfg.Horizon / float64(cfg.NFE)
	h := cfg.InitialLevel
	for k, got := range tk.Level() {
		if k > 0 {
			h = (h + dt*cfg.Inflow/area) / (1 + dt*cfg.OutflowCoeff*cfg.Opening/area)
		}
		assert.InDeltaf(t, h, got, 1e-7, "h at %g", tk.Time.At(k+1))
	}
	// dh/dt at t0 from the consistent initial condition
	dhdt0 := (cfg.Inflow - cfg.OutflowCoeff*cfg.Opening*cfg.InitialLevel) / area
	assert.InDelta(t, dhdt0, tk.DHDt.At(model.At(0)).Value(), 1e-7)
}

func TestByTimeElementMatchesSimultaneous(t *testing.T) {
	for _, ncp := range []int{1, 2, 3} {
		mutate := func(c *utils.TankConfig) {
			c.Scheme, c.NFE, c.NCP = model.LagrangeRadau, 4, ncp
		}
		seq := newTank(t, mutate)
		require.NoError(t, ByTimeElement(context.Background(), seq.Model.Root(), seq.Time, Config{}))

		sim := newTank(t, mutate)
		res, err := solver.NewNewton(solver.DefaultConfig()).Solve(context.Background(), sim.Model.Root(), false)
		require.NoError(t, err)
		require.True(t, res.Optimal(), res.String())

		want, got := sim.Level(), seq.Level()
		require.Len(t, got, len(want))
		for k := range want {
			assert.InDeltaf(t, want[k], got[k], 1e-6, "ncp=%d point %d", ncp, k+1)
		}
		// The level rises toward steady state
		last := got[len(got)-1]
		assert.Greater(t, last, seq.Config.InitialLevel)
		assert.Less(t, last, seq.Config.SteadyLevel())
	}
}

func TestElementFailureStopsStepping(t *testing.T) {
	tk := newTank(t, nil)
	// Call 1 is the consistent initial condition, element i is call i+1
	stub := &countingSolver{failAt: 4}
	s := NewStepper(tk.Model.Root(), tk.Time, Config{Solver: stub})
	err := s.Run(context.Background())

	var serr *SolveError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, ErrSolveFailed)
	assert.Equal(t, StageElement, serr.Stage)
	assert.Equal(t, 3, serr.Element)
	assert.Equal(t, 5, serr.Total)
	assert.Equal(t, solver.Infeasible, serr.Termination)
	assert.Contains(t, err.Error(), "element 3 of 5")

	assert.Equal(t, 4, stub.calls, "elements 4 and 5 are never attempted")
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 3, s.Element())
	assert.Same(t, err, s.Err())

	// No rollback: element 3 is still active
	_, pts := ElementLayout(tk.Time, 1, 3)
	assert.True(t, tk.Block.ConFamily("balance").At(model.At(pts[0])).Active())
	assert.False(t, tk.Block.ConFamily("balance").At(model.At(tk.Time.At(6))).Active())
}

func TestConsistentICFailure(t *testing.T) {
	tk := newTank(t, nil)
	stub := &countingSolver{failAt: 1}
	err := ByTimeElement(context.Background(), tk.Model.Root(), tk.Time, Config{Solver: stub})
	var serr *SolveError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageConsistentIC, serr.Stage)
	assert.Contains(t, err.Error(), "consistent initial condition")
	assert.Equal(t, 1, stub.calls)
}

func TestSolverErrorIsWrapped(t *testing.T) {
	tk := newTank(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ByTimeElement(ctx, tk.Model.Root(), tk.Time, Config{})
	assert.ErrorIs(t, err, ErrSolveFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDegreesOfFreedomPrecondition(t *testing.T) {
	t.Run("Enforced", func(t *testing.T) {
		tk := newTank(t, nil)
		tk.Diameter.Unfix()
		before := captureState(tk.Model.Root())
		stub := &countingSolver{}
		err := ByTimeElement(context.Background(), tk.Model.Root(), tk.Time, Config{Solver: stub})
		var perr *PreconditionError
		require.ErrorAs(t, err, &perr)
		assert.ErrorIs(t, err, ErrPrecondition)
		assert.Equal(t, 1, perr.DOF)
		assert.Zero(t, stub.calls)
		assert.Equal(t, before, captureState(tk.Model.Root()))
	})
	t.Run("AtElement", func(t *testing.T) {
		tk := newTank(t, nil)
		// Freeing the opening of element 2 leaves only that subproblem non-square
		// once the full-model check has passed
		opening := tk.Outlet.At(model.At(tk.Time.At(3))).Var("opening")
		stub := &countingSolver{onCall: func(call int, b *model.Block) {
			if call == 2 {
				opening.Unfix()
			}
		}}
		err := ByTimeElement(context.Background(), tk.Model.Root(), tk.Time, Config{Solver: stub})
		var perr *PreconditionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, StageElement, perr.Stage)
		assert.Equal(t, 2, perr.Element)
		assert.Equal(t, 1, perr.DOF)
		assert.Equal(t, 2, stub.calls)
	})
	t.Run("Ignored", func(t *testing.T) {
		tk := newTank(t, nil)
		tk.Diameter.Unfix()
		stub := &countingSolver{}
		err := ByTimeElement(context.Background(), tk.Model.Root(), tk.Time,
			Config{Solver: stub, IgnoreDOF: true})
		require.NoError(t, err)
		assert.Equal(t, 6, stub.calls)

		stub = &countingSolver{failAt: 2}
		tk = newTank(t, nil)
		tk.Diameter.Unfix()
		err = ByTimeElement(context.Background(), tk.Model.Root(), tk.Time,
			Config{Solver: stub, IgnoreDOF: true})
		assert.False(t, errors.Is(err, ErrPrecondition))
		assert.ErrorIs(t, err, ErrSolveFailed)
	})
}

func TestUnsupportedSchemeLeavesModelUnchanged(t *testing.T) {
	for _, scheme := range []model.Scheme{model.LagrangeLegendre, model.ForwardDifference, model.CentralDifference} {
		t.Run(scheme.String(), func(t *testing.T) {
			tk := newTank(t, func(c *utils.TankConfig) { c.Scheme, c.NCP = scheme, 2 })
			before := captureState(tk.Model.Root())
			stub := &countingSolver{}
			s := NewStepper(tk.Model.Root(), tk.Time, Config{Solver: stub})
			err := s.Run(context.Background())
			assert.ErrorIs(t, err, ErrValidation)
			assert.Zero(t, stub.calls)
			assert.Equal(t, StateFailed, s.State())
			assert.Equal(t, before, captureState(tk.Model.Root()))
		})
	}
}

func TestUndefinedDerivativeStaysUnfixed(t *testing.T) {
	tk := newTank(t, nil)
	dhdt0 := tk.DHDt.At(model.At(tk.Time.First()))
	h0 := tk.H.At(model.At(tk.Time.First()))
	require.False(t, dhdt0.HasValue())

	var checked bool
	// Leaves every value as it is, so dh/dt at t0 is never assigned
	stub := &countingSolver{onCall: func(call int, b *model.Block) {
		if call == 2 {
			checked = true
			assert.False(t, dhdt0.IsFixed(), "undefined derivative must not be fixed")
			assert.True(t, h0.IsFixed())
			assert.False(t, tk.DHDt.At(model.At(tk.Time.At(2))).HasValue(), "undefined values are not copied")
			assert.Equal(t, tk.Config.InitialLevel, tk.H.At(model.At(tk.Time.At(2))).Value())
		}
	}}
	require.NoError(t, ByTimeElement(context.Background(), tk.Model.Root(), tk.Time, Config{Solver: stub}))
	assert.True(t, checked)
	assert.False(t, dhdt0.IsFixed())
	assert.True(t, h0.IsFixed(), "originally fixed variables stay fixed")
}

// v is the derivative of x and the state of a, so it appears in two pairs
// at every element boundary
func TestSecondOrderPairsRestoreFixedFlags(t *testing.T) {
	td, err := model.NewTimeDomain("t", 0, 1, 2)
	require.NoError(t, err)
	td.SetDiscretization(model.Discretization{Scheme: model.BackwardDifference, NFE: 2, NCP: 1})
	m := model.New("m")
	x := m.Root().AddVars("x", td)
	v := m.Root().AddDerivative("v", x)
	a := m.Root().AddDerivative("a", v)
	for _, tp := range td.Points() {
		x.At(model.At(tp)).SetValue(tp)
		v.At(model.At(tp)).SetValue(1)
		a.At(model.At(tp)).SetValue(0)
	}
	before := captureState(m.Root())

	stub := &countingSolver{onCall: func(call int, b *model.Block) {
		if call == 3 {
			assert.True(t, v.At(model.At(1)).IsFixed())
			assert.True(t, a.At(model.At(1)).IsFixed())
		}
	}}
	require.NoError(t, ByTimeElement(context.Background(), m.Root(), td, Config{Solver: stub, IgnoreDOF: true}))
	assert.Equal(t, 3, stub.calls)

	after := captureState(m.Root())
	for _, c := range []*model.VarFamily{x, v, a} {
		for _, vr := range c.Members() {
			assert.Equalf(t, before.fixed[vr.ID()], after.fixed[vr.ID()], "%s fixed flag changed", vr.Name())
		}
	}
}

func TestStepperArguments(t *testing.T) {
	tk := newTank(t, nil)
	s := NewStepper(tk.Model.Root(), tk.Time, Config{Solver: &countingSolver{}})
	require.NoError(t, s.Run(context.Background()))
	err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, StateDone, s.State())

	err = ByTimeElement(context.Background(), nil, tk.Time, Config{})
	assert.ErrorIs(t, err, ErrConfiguration)
	err = ByTimeElement(context.Background(), tk.Model.Root(), nil, Config{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestErrorMessages(t *testing.T) {
	perr := &PreconditionError{DOF: -2, Stage: StageElement, Element: 4, Total: 9}
	assert.Equal(t, "precondition failed at element 4 of 9: degrees of freedom = -2, expected 0", perr.Error())
	perr = &PreconditionError{DOF: 3}
	assert.Contains(t, perr.Error(), "before initialization")

	inner := errors.New("boom")
	serr := &SolveError{Stage: StageConsistentIC, Termination: solver.Error, Err: inner}
	assert.ErrorIs(t, serr, inner)
	assert.ErrorIs(t, serr, ErrSolveFailed)
	assert.False(t, errors.Is(serr, ErrValidation))
	assert.Equal(t, "solve failed for consistent initial condition: termination error: boom", serr.Error())

	cerr := &ConfigurationError{Msg: "x"}
	assert.ErrorIs(t, cerr, ErrConfiguration)
	assert.Equal(t, "unknown stage", Stage(7).String())
	assert.Equal(t, "perElement", StatePerElement.String())
}
