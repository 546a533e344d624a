package lagrangeda

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// WrapAngle maps d into [-π, π) as mod(d+π, 2π) - π.
func WrapAngle(d float64) float64 {
	w := math.Mod(d+math.Pi, 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	return w - math.Pi
}

func vec(v []complex128) cblas128.Vector {
	return cblas128.Vector{N: len(v), Inc: 1, Data: v}
}

// mulVec computes y = alpha*a*x + beta*y.
func mulVec(alpha complex128, a *mat.CDense, x []complex128, beta complex128, y []complex128) {
	cblas128.Gemv(blas.NoTrans, alpha, a.RawCMatrix(), vec(x), beta, vec(y))
}

// mulH computes c = alpha*a*bᴴ + beta*c.
func mulH(alpha complex128, a, b *mat.CDense, beta complex128, c *mat.CDense) {
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, alpha, a.RawCMatrix(), b.RawCMatrix(), beta, c.RawCMatrix())
}

// mul computes c = a*b.
func mul(a, b, c *mat.CDense) {
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, c.RawCMatrix())
}
