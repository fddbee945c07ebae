package solver

import (
	"math"

	"github.com/notargets/DAEInit/model"
	"gonum.org/v1/gonum/mat"
)

// system is the square or rectangular nonlinear system exposed by one or
// more blocks: their active constraints and the unfixed variables those
// reference. It holds references into the model and must be released once
// the solve returns.
type system struct {
	cons []*model.Constraint
	vars []*model.Var
}

func assemble(blocks ...*model.Block) *system {
	seen := make(map[model.ComponentID]struct{})
	sys := &system{}
	for _, b := range blocks {
		for _, c := range b.ActiveConstraints() {
			if _, dup := seen[c.ID()]; dup {
				continue
			}
			seen[c.ID()] = struct{}{}
			sys.cons = append(sys.cons, c)
		}
	}
	sys.vars = model.UnfixedVariables(sys.cons)
	return sys
}

func (s *system) release() {
	s.cons = nil
	s.vars = nil
}

func (s *system) dims() (m, n int) { return len(s.cons), len(s.vars) }

// seed gives undefined free variables a starting point
func (s *system) seed() {
	for _, v := range s.vars {
		if !v.HasValue() {
			v.SetValue(0)
		}
	}
}

func (s *system) x(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(s.vars))
	}
	for j, v := range s.vars {
		dst[j] = v.Value()
	}
	return dst
}

func (s *system) setX(x []float64) {
	for j, v := range s.vars {
		v.SetValue(x[j])
	}
}

func (s *system) residual(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(s.cons))
	}
	for i, c := range s.cons {
		dst[i] = c.Residual()
	}
	return dst
}

func (s *system) norm() float64 {
	return infNorm(s.residual(nil))
}

// jacobian fills J by forward differences around the current point, f0 being
// the residual there
func (s *system) jacobian(J *mat.Dense, f0 []float64, step float64) {
	f1 := make([]float64, len(s.cons))
	for j, v := range s.vars {
		xj := v.Value()
		h := step * math.Max(1, math.Abs(xj))
		v.SetValue(xj + h)
		s.residual(f1)
		v.SetValue(xj)
		for i := range s.cons {
			J.Set(i, j, (f1[i]-f0[i])/h)
		}
	}
}
