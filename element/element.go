package element

import (
	"fmt"

	"github.com/notargets/DAEInit/model"
	"gonum.org/v1/gonum/mat"
)

// ElementProperties contains metadata describing a time finite element
type ElementProperties struct {
	Name      string       // Full descriptive name (e.g., "Lagrange-Radau Element NCP 3")
	ShortName string       // Abbreviated name (e.g., "Radau3")
	Scheme    model.Scheme // Discretization producing the element
	NCP       int          // Collocation points per element
	Np        int          // NCP plus the element initial point
}

// Element describes one finite element of a discretized time domain in
// reference coordinates τ ∈ [0,1], with τ=0 the element initial point
type Element interface {
	GetProperties() ElementProperties

	// R returns the Np reference points, R()[0] == 0 and R()[Np-1] == 1
	R() []float64

	// Dr is the [Np × Np] collocation derivative: row j maps the nodal
	// values at R to h·dx/dt at R[j], h being the element length
	Dr() mat.Matrix
}

// New returns the element used by scheme with ncp collocation points
func New(scheme model.Scheme, ncp int) (Element, error) {
	switch scheme {
	case model.BackwardDifference:
		return NewBackwardDifference(), nil
	case model.LagrangeRadau:
		return NewRadau(ncp)
	}
	return nil, fmt.Errorf("no element library for scheme %s", scheme)
}

// Points maps the reference points of el onto the element [t0, t0+h]
func Points(el Element, t0, h float64) []float64 {
	r := el.R()
	pts := make([]float64, len(r))
	for i, tau := range r {
		pts[i] = t0 + h*tau
	}
	return pts
}

// LagrangeDr builds the derivative matrix of the Lagrange interpolant through
// nodes r: D[j][k] = l_k'(r_j)
func LagrangeDr(r []float64) *mat.Dense {
	np := len(r)
	// Barycentric weights c_j = Π_{m≠j} (r_j - r_m)
	c := make([]float64, np)
	for j := range r {
		c[j] = 1
		for m := range r {
			if m != j {
				c[j] *= r[j] - r[m]
			}
		}
	}
	D := mat.NewDense(np, np, nil)
	for j := 0; j < np; j++ {
		var diag float64
		for k := 0; k < np; k++ {
			if k == j {
				continue
			}
			D.Set(j, k, (c[j]/c[k])/(r[j]-r[k]))
			diag += 1 / (r[j] - r[k])
		}
		D.Set(j, j, diag)
	}
	return D
}
