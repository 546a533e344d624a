package lagrangeda

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// OUBuilder builds the observation operator linking tracer velocities to the
// stacked (ψ, τ) mode amplitudes of the complex OU reduced model.
type OUBuilder struct {
	K      int // untruncated grid resolution, used for FFT normalization
	KX, KY []float64
	R1, R2 []complex128 // eigenvector weights of the two physical fields
}

// NewOUBuilder returns a builder over the modes of s.
func NewOUBuilder(s *SpectralSet, r1, r2 []complex128) (*OUBuilder, error) {
	if err := checkLen(len(r1), s.Len(), "r1"); err != nil {
		return nil, err
	}
	if err := checkLen(len(r2), s.Len(), "r2"); err != nil {
		return nil, err
	}
	return &OUBuilder{K: s.K, KX: s.KX(), KY: s.KY(), R1: r1, R2: r2}, nil
}

// StateLen returns the length of the stacked state.
func (b *OUBuilder) StateLen() int {
	return 2 * len(b.KX)
}

// Operator returns A of shape [2L, 2Lm] for tracers at (x, y):
//
//	A[l, j]      = e^{i(x kx + y ky)} · i ky · r1_j / K²
//	A[l, Lm+j]   = e^{i(x kx + y ky)} · i ky · r2_j / K²
//	A[L+l, j]    = e^{i(x kx + y ky)} · -i kx · r1_j / K²
//	A[L+l, Lm+j] = e^{i(x kx + y ky)} · -i kx · r2_j / K²
func (b *OUBuilder) Operator(x, y []float64) *mat.CDense {
	L, lm := len(x), len(b.KX)
	norm := complex(1/float64(b.K*b.K), 0)
	A := mat.NewCDense(2*L, 2*lm, nil)
	for l := 0; l < L; l++ {
		for j := 0; j < lm; j++ {
			s, c := math.Sincos(x[l]*b.KX[j] + y[l]*b.KY[j])
			e := complex(c, s) * norm
			ex := e * complex(0, b.KY[j])
			ey := e * complex(0, -b.KX[j])
			A.Set(l, j, ex*b.R1[j])
			A.Set(l, lm+j, ex*b.R2[j])
			A.Set(L+l, j, ey*b.R1[j])
			A.Set(L+l, lm+j, ey*b.R2[j])
		}
	}
	return A
}

// Build returns one operator per row of the tracer position blocks x and y,
// each of shape [steps][L].
func (b *OUBuilder) Build(x, y [][]float64) []*mat.CDense {
	out := make([]*mat.CDense, len(x))
	for t := range x {
		out[t] = b.Operator(x[t], y[t])
	}
	return out
}

// OUStrategy drives the filter with tracer displacements. The state drift is the
// constant forcing f and the diagonal damping/rotation -γ + iω.
type OUStrategy struct {
	builder *OUBuilder
	x, y    [][]float64
	f       []complex128
	a1      []complex128
}

// NewOUStrategy returns the OU coefficient strategy. f and a1 have the length of
// the stacked state; x and y are tracer positions of shape [steps][L].
func NewOUStrategy(b *OUBuilder, f, a1 []complex128, x, y [][]float64) (*OUStrategy, error) {
	n := b.StateLen()
	if err := checkLen(len(f), n, "forcing"); err != nil {
		return nil, err
	}
	if err := checkLen(len(a1), n, "damping"); err != nil {
		return nil, err
	}
	if err := checkLen(len(y), len(x), "y"); err != nil {
		return nil, err
	}
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, fmt.Errorf("%w: no tracer positions", ErrShape)
	}
	L := len(x[0])
	for t := range x {
		if err := checkLen(len(x[t]), L, fmt.Sprintf("x[%d]", t)); err != nil {
			return nil, err
		}
		if err := checkLen(len(y[t]), L, fmt.Sprintf("y[%d]", t)); err != nil {
			return nil, err
		}
	}
	return &OUStrategy{builder: b, x: x, y: y, f: f, a1: a1}, nil
}

// Type implements the Strategy interface.
func (s *OUStrategy) Type() StrategyType {
	return OUType
}

// Dims implements the Strategy interface.
func (s *OUStrategy) Dims() (state, obs int) {
	return s.builder.StateLen(), 2 * len(s.x[0])
}

// Steps implements the Strategy interface.
func (s *OUStrategy) Steps() int {
	return len(s.x)
}

// Build implements the Strategy interface.
func (s *OUStrategy) Build(start, count int) ([]Coefficients, error) {
	if start < 0 || start+count > len(s.x) {
		return nil, fmt.Errorf("%w: window [%d, %d) outside trajectory of %d samples", ErrShape, start, start+count, len(s.x))
	}
	ops := s.builder.Build(s.x[start:start+count], s.y[start:start+count])
	out := make([]Coefficients, count)
	for t, A := range ops {
		out[t] = Coefficients{A1: A, Drift0: s.f, Drift1Diag: s.a1}
	}
	return out, nil
}

// Increment implements the Strategy interface. Displacements are wrapped into
// the periodic domain.
func (s *OUStrategy) Increment(i int, dst []complex128) {
	L := len(s.x[i])
	for l := 0; l < L; l++ {
		dst[l] = complex(WrapAngle(s.x[i][l]-s.x[i-1][l]), 0)
		dst[L+l] = complex(WrapAngle(s.y[i][l]-s.y[i-1][l]), 0)
	}
}

// OUModeParams are the per-mode parameters of one field of the complex OU
// model du = (f + (-γ + iω)u) dt + σ dW, as K×K grids indexed [iy][ix].
type OUModeParams struct {
	F     [][]complex128 // forcing
	Gamma [][]float64    // damping
	Omega [][]float64    // phase speed
	Sigma [][]complex128 // noise amplitude
}

type ouModes struct {
	f, a1, σ []complex128
}

func (p OUModeParams) truncate(set *SpectralSet) (ouModes, error) {
	f, err := set.Truncate(p.F)
	if err != nil {
		return ouModes{}, fmt.Errorf("forcing: %w", err)
	}
	γ, err := set.TruncateReal(p.Gamma)
	if err != nil {
		return ouModes{}, fmt.Errorf("damping: %w", err)
	}
	ω, err := set.TruncateReal(p.Omega)
	if err != nil {
		return ouModes{}, fmt.Errorf("phase: %w", err)
	}
	σ, err := set.Truncate(p.Sigma)
	if err != nil {
		return ouModes{}, fmt.Errorf("noise: %w", err)
	}
	a1 := make([]complex128, len(γ))
	for j := range a1 {
		a1[j] = complex(-γ[j], ω[j])
	}
	return ouModes{f: f, a1: a1, σ: σ}, nil
}

// OUConfig configures the tracer driven filter. Grids are K×K and indexed [iy][ix].
type OUConfig struct {
	RunConfig
	K     int
	RCut  float64
	Style Style

	Psi0, Tau0 [][]complex128 // initial (true) mode amplitudes of both fields
	R1, R2     [][]complex128 // eigenvector grids
	Psi, Tau   OUModeParams
	SigmaXY    float64 // tracer observation noise

	X, Y [][]float64 // tracer positions, shape [N][L]
}

// NewOU returns a filter estimating (ψ, τ) from tracer trajectories.
func NewOU(cfg OUConfig) (*Filter, error) {
	set, err := NewSpectralSet(cfg.K, cfg.RCut, cfg.Style)
	if err != nil {
		return nil, err
	}
	if err := cfg.RunConfig.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.X) < cfg.Steps || len(cfg.Y) < cfg.Steps {
		return nil, fmt.Errorf("%w: %d/%d tracer samples for %d steps", ErrShape, len(cfg.X), len(cfg.Y), cfg.Steps)
	}
	ψ0, err := set.Truncate(cfg.Psi0)
	if err != nil {
		return nil, fmt.Errorf("initial ψ: %w", err)
	}
	τ0, err := set.Truncate(cfg.Tau0)
	if err != nil {
		return nil, fmt.Errorf("initial τ: %w", err)
	}
	r1, err := set.Truncate(cfg.R1)
	if err != nil {
		return nil, fmt.Errorf("r1: %w", err)
	}
	r2, err := set.Truncate(cfg.R2)
	if err != nil {
		return nil, fmt.Errorf("r2: %w", err)
	}
	pψ, err := cfg.Psi.truncate(set)
	if err != nil {
		return nil, fmt.Errorf("ψ parameters: %w", err)
	}
	pτ, err := cfg.Tau.truncate(set)
	if err != nil {
		return nil, fmt.Errorf("τ parameters: %w", err)
	}

	b, err := NewOUBuilder(set, r1, r2)
	if err != nil {
		return nil, err
	}
	s, err := NewOUStrategy(b, append(pψ.f, pτ.f...), append(pψ.a1, pτ.a1...), cfg.X, cfg.Y)
	if err != nil {
		return nil, err
	}
	noise, err := NewNoise(cfg.SigmaXY, append(pψ.σ, pτ.σ...))
	if err != nil {
		return nil, err
	}
	return NewFilter(s, cfg.RunConfig, noise, append(ψ0, τ0...), nil)
}

// SplitOU splits a stacked OU state into its ψ and τ halves.
func SplitOU(μ []complex128) (ψ, τ []complex128) {
	h := len(μ) / 2
	return μ[:h], μ[h:]
}

// SplitOUGrids splits a stacked OU state and expands both halves to K×K grids.
func SplitOUGrids(s *SpectralSet, μ []complex128) (ψ, τ [][]complex128, err error) {
	if err = checkLen(len(μ), 2*s.Len(), "state"); err != nil {
		return nil, nil, err
	}
	a, b := SplitOU(μ)
	if ψ, err = s.Expand(a); err != nil {
		return nil, nil, err
	}
	if τ, err = s.Expand(b); err != nil {
		return nil, nil, err
	}
	return ψ, τ, nil
}
