package lagrangeda

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// QGParams are the fixed physical constants of the two-layer QG model.
type QGParams struct {
	Kd    float64 // deformation wavenumber
	Beta  float64 // β-effect
	Kappa float64 // bottom friction
	Nu    float64 // hyperviscosity
	U     float64 // mean shear
}

// Validate rejects non-finite constants.
func (p QGParams) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"kd", p.Kd}, {"beta", p.Beta}, {"kappa", p.Kappa}, {"nu", p.Nu}, {"U", p.U}} {
		if err := checkFinite(c.v, c.name); err != nil {
			return err
		}
	}
	return nil
}

// qgTriad is a Triad with its step independent weights folded in.
type qgTriad struct {
	Triad
	wA0, wa0 float64 // ψ_n ψ_m weights of A0 and a0
	wA1, wa1 float64 // ψ_n weights of A1 and a1
	hA1, ha1 float64 // h_n weights of A1 and a1
}

// QGBuilder builds the coefficients of the two-layer QG model conditioned on
// the upper-layer modes ψ̂₁. The hidden state is the lower-layer modes.
type QGBuilder struct {
	K int
	QGParams

	kx     []float64
	ck     []float64 // response 1/(|k|²(|k|²+kd²)), 0 at k=0
	h      []complex128
	triads []qgTriad

	// linear parts, per mode
	lA0ψ, lA0h []complex128
	la0ψ, la0h []complex128
	lA1, la1   []complex128
}

// NewQGBuilder precomputes the linear operators and the triad table of s.
// h is the truncated topography spectrum.
func NewQGBuilder(s *SpectralSet, p QGParams, h []complex128) (*QGBuilder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := checkLen(len(h), s.Len(), "topography"); err != nil {
		return nil, err
	}
	n := s.Len()
	kd2 := p.Kd * p.Kd
	b := &QGBuilder{
		K:        s.K,
		QGParams: p,
		kx:       s.KX(),
		ck:       make([]float64, n),
		h:        h,
		lA0ψ:     make([]complex128, n),
		lA0h:     make([]complex128, n),
		la0ψ:     make([]complex128, n),
		la0h:     make([]complex128, n),
		lA1:      make([]complex128, n),
		la1:      make([]complex128, n),
	}
	ksq := make([]float64, n)
	for j, m := range s.Modes() {
		k2 := float64(m.SqNorm())
		ksq[j] = k2
		k2d := k2 + kd2/2
		k4 := k2 * k2
		k8 := k4 * k4
		invCk := k2 * (k2 + kd2)
		if k2 != 0 {
			b.ck[j] = 1 / invCk
		}
		dX := complex(0, b.kx[j])
		b.lA0ψ[j] = dX*complex(k2d*p.Beta-k4*p.U, 0) - complex(p.Nu*k8*invCk, 0)
		b.lA0h[j] = dX*complex(-kd2/2*p.U, 0) + complex(p.Nu*k8*kd2/2, 0)
		b.la0ψ[j] = dX * complex(kd2/2*p.Beta-kd2*k2*p.U, 0)
		b.la0h[j] = dX*complex(-k2d*p.U, 0) + complex(p.Nu*k8*k2d, 0)
		b.lA1[j] = dX*complex(kd2/2*p.Beta+kd2*k2*p.U, 0) - complex(kd2/2*p.Kappa*k2, 0)
		b.la1[j] = dX*complex(k2d*p.Beta+k4*p.U, 0) - complex(k2d*p.Kappa*k2+p.Nu*k8*invCk, 0)
	}
	norm := 1 / float64(s.K*s.K)
	for _, t := range NewTriadTable(s) {
		k2, m2 := ksq[t.K], ksq[t.M]
		w := t.Det * norm
		b.triads = append(b.triads, qgTriad{
			Triad: t,
			wA0:   -w * (k2 + kd2/2) * (m2 + kd2/2),
			wa0:   -w * kd2 / 2 * (m2 + kd2/2),
			wA1:   w * kd2 / 2 * k2,
			hA1:   -w * kd2 / 2,
			wa1:   -w * k2 * kd2 / 2,
			ha1:   -w * (k2 + kd2/2),
		})
	}
	return b, nil
}

// Len returns the number of modes.
func (b *QGBuilder) Len() int {
	return len(b.ck)
}

// Response returns the per-mode response factors Ck.
func (b *QGBuilder) Response() []float64 {
	return b.ck
}

// Triads returns the triad table.
func (b *QGBuilder) Triads() []Triad {
	out := make([]Triad, len(b.triads))
	for i, t := range b.triads {
		out[i] = t.Triad
	}
	return out
}

// Coefficients returns A0, a0, A1 and a1 for one snapshot ψ̂₁ of the upper layer.
// Every triad contributes, including those with k=0; the zero mode is nulled by
// its response factor only.
func (b *QGBuilder) Coefficients(ψ []complex128) Coefficients {
	n := b.Len()
	A0 := make([]complex128, n)
	a0 := make([]complex128, n)
	A1 := mat.NewCDense(n, n, nil)
	a1 := mat.NewCDense(n, n, nil)

	for j := 0; j < n; j++ {
		A0[j] = b.lA0ψ[j]*ψ[j] + b.lA0h[j]*b.h[j]
		a0[j] = b.la0ψ[j]*ψ[j] + b.la0h[j]*b.h[j]
		A1.Set(j, j, b.lA1[j])
		a1.Set(j, j, b.la1[j])
	}
	for _, t := range b.triads {
		ψn, ψm, hn := ψ[t.N], ψ[t.M], b.h[t.N]
		ψnm := ψn * ψm
		A0[t.K] += complex(t.wA0, 0) * ψnm
		a0[t.K] += complex(t.wa0, 0) * ψnm
		A1.Set(t.K, t.M, A1.At(t.K, t.M)+complex(t.wA1, 0)*ψn+complex(t.hA1, 0)*hn)
		a1.Set(t.K, t.M, a1.At(t.K, t.M)+complex(t.wa1, 0)*ψn+complex(t.ha1, 0)*hn)
	}
	for j := 0; j < n; j++ {
		c := complex(b.ck[j], 0)
		A0[j] *= c
		a0[j] *= c
		for m := 0; m < n; m++ {
			A1.Set(j, m, A1.At(j, m)*c)
			a1.Set(j, m, a1.At(j, m)*c)
		}
	}
	return Coefficients{A0: A0, A1: A1, Drift0: a0, Drift1: a1}
}

// Build returns the coefficients for each snapshot of ψ, of shape [steps][n].
func (b *QGBuilder) Build(ψ [][]complex128) []Coefficients {
	out := make([]Coefficients, len(ψ))
	for t := range ψ {
		out[t] = b.Coefficients(ψ[t])
	}
	return out
}

// QGStrategy drives the filter with the observed upper-layer modes.
type QGStrategy struct {
	builder *QGBuilder
	ψ       [][]complex128
}

// NewQGStrategy returns the QG coefficient strategy for the truncated upper-layer
// series ψ of shape [steps][n].
func NewQGStrategy(b *QGBuilder, ψ [][]complex128) (*QGStrategy, error) {
	if len(ψ) == 0 {
		return nil, fmt.Errorf("%w: empty mode series", ErrShape)
	}
	for t := range ψ {
		if err := checkLen(len(ψ[t]), b.Len(), fmt.Sprintf("ψ[%d]", t)); err != nil {
			return nil, err
		}
	}
	return &QGStrategy{builder: b, ψ: ψ}, nil
}

// Type implements the Strategy interface.
func (s *QGStrategy) Type() StrategyType {
	return QGType
}

// Dims implements the Strategy interface.
func (s *QGStrategy) Dims() (state, obs int) {
	return s.builder.Len(), s.builder.Len()
}

// Steps implements the Strategy interface.
func (s *QGStrategy) Steps() int {
	return len(s.ψ)
}

// Build implements the Strategy interface.
func (s *QGStrategy) Build(start, count int) ([]Coefficients, error) {
	if start < 0 || start+count > len(s.ψ) {
		return nil, fmt.Errorf("%w: window [%d, %d) outside series of %d samples", ErrShape, start, start+count, len(s.ψ))
	}
	return s.builder.Build(s.ψ[start : start+count]), nil
}

// Increment implements the Strategy interface.
func (s *QGStrategy) Increment(i int, dst []complex128) {
	for j := range dst {
		dst[j] = s.ψ[i][j] - s.ψ[i-1][j]
	}
}

// QGConfig configures the mode driven filter. Grids are K×K and indexed [iy][ix].
type QGConfig struct {
	RunConfig
	QGParams
	K     int
	RCut  float64
	Style Style

	Psi1     [][][]complex128 // observed upper-layer modes, shape [N][K][K]
	Psi2Init [][]complex128   // initial (true) lower-layer modes
	H        [][]complex128   // topography spectrum
	Sigma1   float64          // observation noise
	Sigma2   float64          // process noise, the same for every mode
}

// NewQG returns a filter estimating the lower-layer modes from the upper layer.
func NewQG(cfg QGConfig) (*Filter, error) {
	set, err := NewSpectralSet(cfg.K, cfg.RCut, cfg.Style)
	if err != nil {
		return nil, err
	}
	if err := cfg.RunConfig.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Psi1) < cfg.Steps {
		return nil, fmt.Errorf("%w: %d upper-layer samples for %d steps", ErrShape, len(cfg.Psi1), cfg.Steps)
	}
	ψ1, err := set.TruncateSeries(cfg.Psi1)
	if err != nil {
		return nil, fmt.Errorf("ψ1: %w", err)
	}
	μ0, err := set.Truncate(cfg.Psi2Init)
	if err != nil {
		return nil, fmt.Errorf("initial ψ2: %w", err)
	}
	h, err := set.Truncate(cfg.H)
	if err != nil {
		return nil, fmt.Errorf("topography: %w", err)
	}
	b, err := NewQGBuilder(set, cfg.QGParams, h)
	if err != nil {
		return nil, err
	}
	s, err := NewQGStrategy(b, ψ1)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(cfg.Sigma2, "sigma2"); err != nil {
		return nil, err
	}
	noise, err := NewNoise(cfg.Sigma1, Uniform(set.Len(), complex(cfg.Sigma2, 0)))
	if err != nil {
		return nil, err
	}
	return NewFilter(s, cfg.RunConfig, noise, μ0, nil)
}
