package element

import (
	"github.com/notargets/DAEInit/model"
	"gonum.org/v1/gonum/mat"
)

// BackwardDifference is the single-point element of implicit Euler:
// h·dx/dt(t1) = x(t1) - x(t0)
type BackwardDifference struct {
	dr *mat.Dense
}

func NewBackwardDifference() *BackwardDifference {
	return &BackwardDifference{dr: mat.NewDense(2, 2, []float64{
		-1, 1,
		-1, 1,
	})}
}

func (bd *BackwardDifference) GetProperties() ElementProperties {
	return ElementProperties{
		Name:      "Backward Difference Element",
		ShortName: "BD1",
		Scheme:    model.BackwardDifference,
		NCP:       1,
		Np:        2,
	}
}

func (bd *BackwardDifference) R() []float64  { return []float64{0, 1} }
func (bd *BackwardDifference) Dr() mat.Matrix { return bd.dr }
