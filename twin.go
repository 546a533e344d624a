package lagrangeda

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// TwinSource returns a deterministic random source for twin experiments.
func TwinSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// SimulateModes integrates independent complex OU modes
// du = (f + a u) dt + σ dW exactly and returns the series of shape [steps][n].
func SimulateModes(u0, f, a, σ []complex128, steps int, Δt float64, src rand.Source) ([][]complex128, error) {
	n := len(u0)
	for _, v := range []struct {
		name string
		len  int
	}{{"forcing", len(f)}, {"drift", len(a)}, {"noise", len(σ)}} {
		if err := checkLen(v.len, n, v.name); err != nil {
			return nil, err
		}
	}
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps=%d", ErrInvalidConfig, steps)
	}
	disc := make([]DiscreteOU, n)
	for j := range disc {
		d, err := ExactOU(a[j], f[j], σ[j], Δt)
		if err != nil {
			return nil, fmt.Errorf("mode %d: %w", j, err)
		}
		disc[j] = d
	}
	ξ := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	out := make([][]complex128, steps)
	out[0] = append([]complex128(nil), u0...)
	for t := 1; t < steps; t++ {
		out[t] = make([]complex128, n)
		for j, d := range disc {
			s := math.Sqrt(d.Q / 2)
			w := complex(s*ξ.Rand(), s*ξ.Rand())
			out[t][j] = d.Φ*out[t-1][j] + d.B + w
		}
	}
	return out, nil
}

// SimulateTracers advects L tracers starting at (x0, y0) with the velocity
// A(x, y)·u of the OU model and adds observation noise of standard deviation
// σxy per unit time. Positions are kept in [0, 2π).
func SimulateTracers(b *OUBuilder, modes [][]complex128, x0, y0 []float64, Δt, σxy float64, src rand.Source) (x, y [][]float64, err error) {
	L := len(x0)
	if err := checkLen(len(y0), L, "y0"); err != nil {
		return nil, nil, err
	}
	if L == 0 || len(modes) == 0 {
		return nil, nil, fmt.Errorf("%w: no tracers or no modes", ErrShape)
	}
	for t := range modes {
		if err := checkLen(len(modes[t]), b.StateLen(), fmt.Sprintf("modes[%d]", t)); err != nil {
			return nil, nil, err
		}
	}
	ξ := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	steps := len(modes)
	x = make([][]float64, steps)
	y = make([][]float64, steps)
	x[0] = append([]float64(nil), x0...)
	y[0] = append([]float64(nil), y0...)
	v := make([]complex128, 2*L)
	sq := σxy * math.Sqrt(Δt)
	for t := 1; t < steps; t++ {
		A := b.Operator(x[t-1], y[t-1])
		mulVec(1, A, modes[t-1], 0, v)
		x[t] = make([]float64, L)
		y[t] = make([]float64, L)
		for l := 0; l < L; l++ {
			x[t][l] = wrapDomain(x[t-1][l] + real(v[l])*Δt + sq*ξ.Rand())
			y[t][l] = wrapDomain(y[t-1][l] + real(v[L+l])*Δt + sq*ξ.Rand())
		}
	}
	return x, y, nil
}

func wrapDomain(p float64) float64 {
	p = math.Mod(p, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	return p
}
