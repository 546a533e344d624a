package lagrangeda

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulateModesDeterministic(t *testing.T) {
	u0 := []complex128{1, 1i}
	f := []complex128{0.5, 0}
	a := []complex128{-1 + 1i, -0.2}
	out, err := SimulateModes(u0, f, a, make([]complex128, 2), 5, 0.1, TwinSource(1))
	require.NoError(t, err)
	require.Len(t, out, 5)
	require.Equal(t, u0, out[0])
	for j := range u0 {
		d, err := ExactOU(a[j], f[j], 0, 0.1)
		require.NoError(t, err)
		u := u0[j]
		for k := 1; k < 5; k++ {
			u = d.Φ*u + d.B
			assertClose(t, out[k][j], u, 1e-14, "noiseless mode")
		}
	}
}

func TestSimulateModesReproducible(t *testing.T) {
	run := func(seed uint64) [][]complex128 {
		out, err := SimulateModes(Uniform(3, 0), Uniform(3, 0), Uniform(3, -1), Uniform(3, 1), 50, 0.1, TwinSource(seed))
		require.NoError(t, err)
		return out
	}
	require.Equal(t, run(42), run(42))
	require.NotEqual(t, run(42), run(43))
}

func TestSimulateModesStationaryVariance(t *testing.T) {
	const steps, burn = 20000, 100
	out, err := SimulateModes([]complex128{0}, []complex128{0}, []complex128{-1}, []complex128{1}, steps, 0.1, TwinSource(5))
	require.NoError(t, err)
	var sum float64
	for _, u := range out[burn:] {
		sum += real(u[0] * cmplx.Conj(u[0]))
	}
	// E|u|² = |σ|²/(2γ)
	require.InDelta(t, 0.5, sum/float64(steps-burn), 0.1)
}

func TestSimulateModesErrors(t *testing.T) {
	_, err := SimulateModes(Uniform(2, 0), Uniform(1, 0), Uniform(2, -1), Uniform(2, 1), 5, 0.1, TwinSource(1))
	require.ErrorIs(t, err, ErrShape)
	_, err = SimulateModes(Uniform(2, 0), Uniform(2, 0), Uniform(2, -1), Uniform(2, 1), 0, 0.1, TwinSource(1))
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = SimulateModes(Uniform(2, 0), Uniform(2, 0), Uniform(2, 1), Uniform(2, 1), 5, 0.1, TwinSource(1))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSimulateTracers(t *testing.T) {
	s, err := NewSpectralSet(4, 1, Circle)
	require.NoError(t, err)
	b, err := NewOUBuilder(s, Uniform(s.Len(), 1), Uniform(s.Len(), 0.5))
	require.NoError(t, err)
	n := b.StateLen()
	modes, err := SimulateModes(Uniform(n, 2+1i), Uniform(n, 0), Uniform(n, -0.5), Uniform(n, 0.3), 4, 0.05, TwinSource(9))
	require.NoError(t, err)
	x0 := []float64{0.1, 6.2}
	y0 := []float64{3, 0.01}
	x, y, err := SimulateTracers(b, modes, x0, y0, 0.05, 0, TwinSource(9))
	require.NoError(t, err)
	require.Len(t, x, 4)
	require.Len(t, y, 4)

	v := make([]complex128, 4)
	mulVec(1, b.Operator(x0, y0), modes[0], 0, v)
	for l := range x0 {
		require.InDelta(t, wrapDomain(x0[l]+real(v[l])*0.05), x[1][l], 1e-14)
		require.InDelta(t, wrapDomain(y0[l]+real(v[2+l])*0.05), y[1][l], 1e-14)
	}
	for k := range x {
		for l := range x[k] {
			require.True(t, x[k][l] >= 0 && x[k][l] < 2*math.Pi, "x out of domain")
			require.True(t, y[k][l] >= 0 && y[k][l] < 2*math.Pi, "y out of domain")
		}
	}

	_, _, err = SimulateTracers(b, modes, x0, y0[:1], 0.05, 0, TwinSource(9))
	require.ErrorIs(t, err, ErrShape)
	_, _, err = SimulateTracers(b, [][]complex128{Uniform(n-1, 0)}, x0, y0, 0.05, 0, TwinSource(9))
	require.ErrorIs(t, err, ErrShape)
}

func TestWrapDomain(t *testing.T) {
	require.InDelta(t, 0.5, wrapDomain(2*math.Pi+0.5), 1e-12)
	require.InDelta(t, 2*math.Pi-0.5, wrapDomain(-0.5), 1e-12)
	require.Equal(t, 1.0, wrapDomain(1))
}
