package initialize

import (
	"fmt"

	"github.com/notargets/DAEInit/model"
)

// Inspect reads and validates the discretization metadata of td. Only
// backward differences (one point per element) and Lagrange-Radau
// collocation can be stepped element by element.
func Inspect(td *model.TimeDomain) (model.Discretization, error) {
	info, ok := td.Info()
	if !ok {
		return info, &ValidationError{Domain: td.Name(), Msg: "not discretized"}
	}
	switch info.Scheme {
	case model.BackwardDifference:
		info.NCP = 1
	case model.LagrangeRadau:
	case model.LagrangeLegendre:
		return info, &ValidationError{Domain: td.Name(), Msg: "collocation with Legendre roots unsupported"}
	case model.ForwardDifference:
		return info, &ValidationError{Domain: td.Name(), Msg: "explicit scheme not implemented"}
	case model.CentralDifference:
		return info, &ValidationError{Domain: td.Name(), Msg: "not square by construction for this procedure"}
	default:
		return info, &ValidationError{Domain: td.Name(),
			Msg: fmt.Sprintf("unrecognized discretization scheme %s", info.Scheme)}
	}
	switch {
	case info.NFE < 1:
		return info, &ValidationError{Domain: td.Name(), Msg: fmt.Sprintf("nfe = %d, need at least 1", info.NFE)}
	case info.NCP < 1:
		return info, &ValidationError{Domain: td.Name(), Msg: fmt.Sprintf("ncp = %d, need at least 1", info.NCP)}
	case td.Len() != info.NFE*info.NCP+1:
		return info, &ValidationError{Domain: td.Name(),
			Msg: fmt.Sprintf("%d points do not match nfe=%d, ncp=%d", td.Len(), info.NFE, info.NCP)}
	}
	return info, nil
}

// ElementLayout returns the initial point of finite element i (1-indexed)
// and the ncp points it owns
func ElementLayout(td *model.TimeDomain, ncp, i int) (tPrev float64, points []float64) {
	first := (i-1)*ncp + 1
	tPrev = td.At(first)
	points = make([]float64, 0, ncp)
	for k := first + 1; k <= i*ncp+1; k++ {
		points = append(points, td.At(k))
	}
	return tPrev, points
}
