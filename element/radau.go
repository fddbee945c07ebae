package element

import (
	"fmt"

	"github.com/notargets/DAEInit/model"
	"gonum.org/v1/gonum/mat"
)

// Radau is a Lagrange interpolation element collocated at the right Radau
// points, which include the element end point
type Radau struct {
	ncp int
	r   []float64
	dr  *mat.Dense
}

func NewRadau(ncp int) (*Radau, error) {
	if ncp < 1 {
		return nil, fmt.Errorf("radau element needs ncp >= 1, got %d", ncp)
	}
	roots := RadauRoots(ncp)
	r := make([]float64, 0, ncp+1)
	r = append(r, 0)
	r = append(r, roots...)
	return &Radau{ncp: ncp, r: r, dr: LagrangeDr(r)}, nil
}

func (ra *Radau) GetProperties() ElementProperties {
	return ElementProperties{
		Name:      fmt.Sprintf("Lagrange-Radau Element NCP %d", ra.ncp),
		ShortName: fmt.Sprintf("Radau%d", ra.ncp),
		Scheme:    model.LagrangeRadau,
		NCP:       ra.ncp,
		Np:        ra.ncp + 1,
	}
}

func (ra *Radau) R() []float64 {
	out := make([]float64, len(ra.r))
	copy(out, ra.r)
	return out
}

func (ra *Radau) Dr() mat.Matrix { return ra.dr }

// RadauRoots returns the ncp right Radau points on (0,1]. Besides τ=1 they
// are the zeros of P_{ncp-1}^{(1,0)} mapped from [-1,1].
func RadauRoots(ncp int) []float64 {
	roots := make([]float64, 0, ncp)
	if ncp > 1 {
		x, _ := gaussJacobi(1, 0, ncp-1)
		for _, xi := range x {
			roots = append(roots, (xi+1)/2)
		}
	}
	return append(roots, 1)
}
