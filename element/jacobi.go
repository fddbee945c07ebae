package element

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// gaussJacobi returns the n Gauss nodes on [-1,1] of the Jacobi weight
// (1-x)^alpha (1+x)^beta with their weights, ascending. The nodes are the
// eigenvalues of the symmetric three-term recurrence matrix and each weight
// is the mass of the weight function times the squared first component of
// the matching eigenvector (Golub-Welsch).
func gaussJacobi(alpha, beta float64, n int) (x, w []float64) {
	mass := jacobiMass(alpha, beta)
	if n == 1 {
		return []float64{(beta - alpha) / (alpha + beta + 2)}, []float64{mass}
	}

	var eig mat.EigenSym
	if !eig.Factorize(jacobiMatrix(alpha, beta, n), true) {
		panic("element: jacobi recurrence eigen-decomposition failed")
	}
	x = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	nodes, weights := make([]float64, n), make([]float64, n)
	for k, i := range order {
		v0 := vecs.At(0, i)
		nodes[k], weights[k] = x[i], mass*v0*v0
	}
	return nodes, weights
}

// jacobiMatrix is the n×n tridiagonal recurrence matrix of P^{(alpha,beta)}
func jacobiMatrix(alpha, beta float64, n int) *mat.SymDense {
	J := mat.NewSymDense(n, nil)
	ab := alpha + beta
	for i := 0; i < n; i++ {
		h := 2*float64(i) + ab
		if i == 0 && math.Abs(ab) < 1e-15 {
			// 0/0 at the Legendre-like first row
			J.SetSym(0, 0, 0)
		} else {
			J.SetSym(i, i, (beta*beta-alpha*alpha)/(h*(h+2)))
		}
		if i == n-1 {
			break
		}
		k := float64(i + 1)
		J.SetSym(i, i+1, 2/(h+2)*math.Sqrt(k*(k+ab)*(k+alpha)*(k+beta)/((h+1)*(h+3))))
	}
	return J
}

// jacobiMass is ∫ (1-x)^alpha (1+x)^beta dx over [-1,1]
func jacobiMass(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1
	return math.Pow(2, ab1) * math.Gamma(alpha+1) * math.Gamma(beta+1) / math.Gamma(ab1+1)
}
