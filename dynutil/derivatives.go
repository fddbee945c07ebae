package dynutil

import (
	"fmt"

	"github.com/notargets/DAEInit/model"
)

// Pair is a derivative variable and the differential variable it
// differentiates, at the same index
type Pair struct {
	Derivative *model.Var
	State      *model.Var
}

// DerivativePairing maps each time point to its derivative/differential pairs
type DerivativePairing map[float64][]Pair

// DerivativesAt returns, for each point, the derivatives with respect to td
// defined below b at that point
func DerivativesAt(b *model.Block, td *model.TimeDomain, points ...float64) map[float64][]*model.Var {
	want := make(map[float64]bool, len(points))
	out := make(map[float64][]*model.Var, len(points))
	for _, t := range points {
		want[t] = true
		out[t] = nil
	}
	b.Walk(func(c model.Component) bool {
		v, ok := c.(*model.Var)
		if !ok || !v.IsDerivative() || v.Time() != td {
			return true
		}
		if t := v.Index().Time; want[t] {
			out[t] = append(out[t], v)
		}
		return true
	})
	return out
}

// PairingsAt pairs every derivative at points with its differential variable
func PairingsAt(b *model.Block, td *model.TimeDomain, points ...float64) (DerivativePairing, error) {
	derivs := DerivativesAt(b, td, points...)
	pairing := make(DerivativePairing, len(derivs))
	for t, dvs := range derivs {
		pairs := make([]Pair, 0, len(dvs))
		for _, dv := range dvs {
			sv := dv.StateVar()
			if sv == nil {
				return nil, fmt.Errorf("derivative %s has no differential variable at %s",
					dv.Name(), dv.Index())
			}
			pairs = append(pairs, Pair{Derivative: dv, State: sv})
		}
		pairing[t] = pairs
	}
	return pairing, nil
}
