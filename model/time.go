package model

import (
	"fmt"
	"strings"
)

// Scheme identifies the discretization applied to a time domain
type Scheme uint8

const (
	SchemeUnknown Scheme = iota
	BackwardDifference
	ForwardDifference
	CentralDifference
	LagrangeRadau
	LagrangeLegendre
)

var schemeNames = map[Scheme]string{
	SchemeUnknown:      "UNKNOWN",
	BackwardDifference: "BACKWARD Difference",
	ForwardDifference:  "FORWARD Difference",
	CentralDifference:  "CENTRAL Difference",
	LagrangeRadau:      "LAGRANGE-RADAU",
	LagrangeLegendre:   "LAGRANGE-LEGENDRE",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// ParseScheme accepts the canonical scheme names as well as the short
// forms used in run configurations ("backward", "radau", ...)
func ParseScheme(name string) (Scheme, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "backward difference", "backward":
		return BackwardDifference, nil
	case "forward difference", "forward":
		return ForwardDifference, nil
	case "central difference", "central":
		return CentralDifference, nil
	case "lagrange-radau", "radau":
		return LagrangeRadau, nil
	case "lagrange-legendre", "legendre":
		return LagrangeLegendre, nil
	}
	return SchemeUnknown, fmt.Errorf("unrecognized discretization scheme %q", name)
}

// Discretization is the metadata left on a time domain by the transformation
// that discretized it. NCP is 1 for the finite difference schemes.
type Discretization struct {
	Scheme Scheme
	NFE    int // Number of finite elements
	NCP    int // Collocation points per finite element
}

// TimeDomain is an ordered, discretized continuous set
type TimeDomain struct {
	name   string
	points []float64
	info   *Discretization
}

// NewTimeDomain creates a time domain over strictly increasing points
func NewTimeDomain(name string, points ...float64) (*TimeDomain, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("time domain %s has no points", name)
	}
	for i := 1; i < len(points); i++ {
		if points[i] <= points[i-1] {
			return nil, fmt.Errorf("time domain %s: points must be strictly increasing (t[%d]=%g, t[%d]=%g)",
				name, i, points[i-1], i+1, points[i])
		}
	}
	pts := make([]float64, len(points))
	copy(pts, points)
	return &TimeDomain{name: name, points: pts}, nil
}

func (td *TimeDomain) Name() string { return td.name }
func (td *TimeDomain) Len() int     { return len(td.points) }
func (td *TimeDomain) First() float64 {
	return td.points[0]
}
func (td *TimeDomain) Last() float64 {
	return td.points[len(td.points)-1]
}

// At returns the k-th point, 1-indexed. It panics outside [1, Len()].
func (td *TimeDomain) At(k int) float64 {
	if k < 1 || k > len(td.points) {
		panic(fmt.Sprintf("time domain %s: index %d out of range [1,%d]", td.name, k, len(td.points)))
	}
	return td.points[k-1]
}

// Points returns a copy of the ordered points
func (td *TimeDomain) Points() []float64 {
	pts := make([]float64, len(td.points))
	copy(pts, td.points)
	return pts
}

// Contains reports whether t is exactly one of the domain points
func (td *TimeDomain) Contains(t float64) bool {
	for _, p := range td.points {
		if p == t {
			return true
		}
	}
	return false
}

// SetDiscretization records the discretization metadata
func (td *TimeDomain) SetDiscretization(info Discretization) {
	td.info = &info
}

// Info returns the discretization metadata, ok is false when the domain was
// never discretized
func (td *TimeDomain) Info() (info Discretization, ok bool) {
	if td.info == nil {
		return Discretization{}, false
	}
	return *td.info, true
}

// FiniteElements returns the element boundary points At(1), At(1+ncp), ...
func (td *TimeDomain) FiniteElements() []float64 {
	if td.info == nil || td.info.NCP < 1 {
		return nil
	}
	fe := make([]float64, 0, td.info.NFE+1)
	for k := 0; k < len(td.points); k += td.info.NCP {
		fe = append(fe, td.points[k])
	}
	return fe
}

func (td *TimeDomain) String() string {
	if td.info == nil {
		return fmt.Sprintf("%s[%d points]", td.name, len(td.points))
	}
	return fmt.Sprintf("%s[%d points, %s nfe=%d ncp=%d]",
		td.name, len(td.points), td.info.Scheme, td.info.NFE, td.info.NCP)
}
