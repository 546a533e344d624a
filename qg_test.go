package lagrangeda

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// naiveQG evaluates the QG coefficients term by term over a mode lookup.
func naiveQG(s *SpectralSet, p QGParams, ψ, h []complex128) (A0, a0 []complex128, A1, a1 [][]complex128) {
	n := s.Len()
	modes := s.Modes()
	kd2 := p.Kd * p.Kd
	norm := complex(float64(s.K*s.K), 0)
	A0 = make([]complex128, n)
	a0 = make([]complex128, n)
	A1 = make([][]complex128, n)
	a1 = make([][]complex128, n)
	for ik, k := range modes {
		A1[ik] = make([]complex128, n)
		a1[ik] = make([]complex128, n)
		ksq := float64(k.Kx*k.Kx + k.Ky*k.Ky)
		k4 := ksq * ksq
		k8 := k4 * k4
		invCk := ksq * (ksq + kd2)
		dX := complex(0, float64(k.Kx))
		c := func(v float64) complex128 { return complex(v, 0) }

		A0[ik] = dX*(c(ksq+kd2/2)*c(p.Beta)*ψ[ik]-c(k4*p.U)*ψ[ik]-c(kd2/2*p.U)*h[ik]) - c(p.Nu*k8)*(c(invCk)*ψ[ik]-c(kd2/2)*h[ik])
		a0[ik] = dX*(c(kd2/2*p.Beta-kd2*ksq*p.U)*ψ[ik]-c((ksq+kd2/2)*p.U)*h[ik]) + c(p.Nu*k8*(ksq+kd2/2))*h[ik]
		A1[ik][ik] = dX*c(kd2/2*p.Beta+kd2*ksq*p.U) - c(kd2/2*p.Kappa*ksq)
		a1[ik][ik] = dX*c((ksq+kd2/2)*p.Beta+k4*p.U) - c((ksq+kd2/2)*p.Kappa*ksq) - c(p.Nu*k8*invCk)

		var sA0, sa0 complex128
		sA1 := make([]complex128, n)
		sa1 := make([]complex128, n)
		for im, m := range modes {
			msq := float64(m.Kx*m.Kx + m.Ky*m.Ky)
			in, ok := s.Index(Mode{k.Kx - m.Kx, k.Ky - m.Ky})
			if !ok {
				continue
			}
			nm := modes[in]
			det := c(float64(m.Kx*nm.Ky - m.Ky*nm.Kx))
			sA0 -= det * c((ksq+kd2/2)*(msq+kd2/2)) * ψ[in] * ψ[im]
			sa0 -= det * c(kd2/2*(msq+kd2/2)) * ψ[in] * ψ[im]
			sA1[im] += det * c(kd2/2) * (c(ksq)*ψ[in] - h[in])
			sa1[im] -= det * (c(ksq*kd2/2)*ψ[in] + c(ksq+kd2/2)*h[in])
		}
		A0[ik] += sA0 / norm
		a0[ik] += sa0 / norm
		for im := range sA1 {
			A1[ik][im] += sA1[im] / norm
			a1[ik][im] += sa1[im] / norm
		}

		ck := complex128(0)
		if ksq != 0 {
			ck = 1 / c(invCk)
		}
		A0[ik] *= ck
		a0[ik] *= ck
		for im := range A1[ik] {
			A1[ik][im] *= ck
			a1[ik][im] *= ck
		}
	}
	return
}

func testQGInputs(n int) (ψ, h []complex128) {
	ψ = make([]complex128, n)
	h = make([]complex128, n)
	for j := range ψ {
		ψ[j] = complex(0.3-0.05*float64(j), 0.1*float64(j%4))
		h[j] = complex(0.02*float64(j%3), -0.01*float64(j))
	}
	return
}

func TestQGCoefficientsMatchTermByTerm(t *testing.T) {
	p := QGParams{Kd: 2, Beta: 1.5, Kappa: 0.3, Nu: 1e-3, U: 0.7}
	for _, tc := range []struct {
		K     int
		r     float64
		style Style
	}{{4, 1.5, Circle}, {4, 1, Square}, {6, 2, Circle}} {
		s, err := NewSpectralSet(tc.K, tc.r, tc.style)
		require.NoError(t, err)
		ψ, h := testQGInputs(s.Len())
		b, err := NewQGBuilder(s, p, h)
		require.NoError(t, err)
		got := b.Coefficients(ψ)
		A0, a0, A1, a1 := naiveQG(s, p, ψ, h)
		what := fmt.Sprintf("K=%d r=%g %s", tc.K, tc.r, tc.style)
		for k := range A0 {
			assertClose(t, got.A0[k], A0[k], 1e-10, what+" A0")
			assertClose(t, got.Drift0[k], a0[k], 1e-10, what+" a0")
			for m := range A1[k] {
				assertClose(t, got.A1.At(k, m), A1[k][m], 1e-10, what+" A1")
				assertClose(t, got.Drift1.At(k, m), a1[k][m], 1e-10, what+" a1")
			}
		}
	}
}

func TestQGZeroModeIsNulled(t *testing.T) {
	s, err := NewSpectralSet(4, 1.5, Circle)
	require.NoError(t, err)
	zero, ok := s.Index(Mode{})
	require.True(t, ok)
	ψ, h := testQGInputs(s.Len())
	b, err := NewQGBuilder(s, QGParams{Kd: 1, Beta: 2, Kappa: 0.1, Nu: 0.01, U: 1}, h)
	require.NoError(t, err)
	require.Equal(t, 0.0, b.Response()[zero])
	c := b.Coefficients(ψ)
	require.Equal(t, complex128(0), c.A0[zero])
	require.Equal(t, complex128(0), c.Drift0[zero])
	for m := 0; m < s.Len(); m++ {
		require.Equal(t, complex128(0), c.A1.At(zero, m))
		require.Equal(t, complex128(0), c.Drift1.At(zero, m))
	}
	for j, ck := range b.Response() {
		if j != zero {
			require.Greater(t, ck, 0.0)
		}
	}
}

func TestQGTriadsMatchTable(t *testing.T) {
	s, err := NewSpectralSet(4, 1.5, Circle)
	require.NoError(t, err)
	b, err := NewQGBuilder(s, QGParams{Kd: 1}, make([]complex128, s.Len()))
	require.NoError(t, err)
	require.Equal(t, NewTriadTable(s), b.Triads())
}

func TestQGValidation(t *testing.T) {
	s, err := NewSpectralSet(4, 1, Circle)
	require.NoError(t, err)
	_, err = NewQGBuilder(s, QGParams{}, make([]complex128, s.Len()+1))
	require.ErrorIs(t, err, ErrShape)
	_, err = NewQGBuilder(s, QGParams{Beta: math.NaN()}, make([]complex128, s.Len()))
	require.ErrorIs(t, err, ErrInvalidConfig)

	b, err := NewQGBuilder(s, QGParams{Kd: 1}, make([]complex128, s.Len()))
	require.NoError(t, err)
	_, err = NewQGStrategy(b, nil)
	require.ErrorIs(t, err, ErrShape)
	_, err = NewQGStrategy(b, [][]complex128{make([]complex128, s.Len()-1)})
	require.ErrorIs(t, err, ErrShape)

	qs, err := NewQGStrategy(b, [][]complex128{make([]complex128, s.Len()), Uniform(s.Len(), 1i)})
	require.NoError(t, err)
	_, err = qs.Build(1, 2)
	require.ErrorIs(t, err, ErrShape)
	dst := make([]complex128, s.Len())
	qs.Increment(1, dst)
	require.Equal(t, Uniform(s.Len(), 1i), dst)
}

func TestNewQG(t *testing.T) {
	const K, steps = 4, 6
	set, err := NewSpectralSet(K, 1, Circle)
	require.NoError(t, err)
	ψ, err := SimulateModes(Uniform(set.Len(), 0.5), Uniform(set.Len(), 0), Uniform(set.Len(), -1), Uniform(set.Len(), 0.1), steps, 0.01, TwinSource(11))
	require.NoError(t, err)
	grids := make([][][]complex128, steps)
	for k := range ψ {
		grids[k], err = set.Expand(ψ[k])
		require.NoError(t, err)
	}
	cfg := QGConfig{
		RunConfig: RunConfig{Steps: steps, Chunk: 4, Dt: 0.01},
		QGParams:  QGParams{Kd: 1, Beta: 1, Kappa: 0.1, Nu: 1e-4, U: 0.5},
		K:         K,
		RCut:      1,
		Style:     Circle,
		Psi1:      grids,
		Psi2Init:  constGrid(K, 0.1),
		H:         constGrid(K, 0),
		Sigma1:    0.1,
		Sigma2:    0.2,
	}
	kf, err := NewQG(cfg)
	require.NoError(t, err)
	res, err := kf.Forward()
	require.NoError(t, err)
	n, got := res.Dims()
	require.Equal(t, set.Len(), n)
	require.Equal(t, steps, got)
	for j := 0; j < n; j++ {
		require.Equal(t, complex128(0.1), res.Mean.At(j, 0))
		require.Greater(t, real(res.CovDiag.At(j, steps-1)), 0.0)
	}

	bad := cfg
	bad.Sigma1 = 0
	_, err = NewQG(bad)
	require.ErrorIs(t, err, ErrInvalidConfig)

	bad = cfg
	bad.Steps = steps + 1
	_, err = NewQG(bad)
	require.ErrorIs(t, err, ErrShape)
}
