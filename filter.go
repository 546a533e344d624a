package lagrangeda

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// RunConfig is the horizon and discretization shared by both filters.
type RunConfig struct {
	Steps    int     // total number of samples N, including the initial condition
	Chunk    int     // number of steps per coefficient window
	Dt       float64 // time step
	Prefetch bool    // build the next window while the current one is consumed
}

// Validate checks the horizon and time step.
func (c RunConfig) Validate() error {
	if c.Steps < 1 {
		return fmt.Errorf("%w: steps=%d", ErrInvalidConfig, c.Steps)
	}
	if c.Chunk < 1 {
		return fmt.Errorf("%w: chunk=%d", ErrInvalidConfig, c.Chunk)
	}
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt=%v", ErrInvalidConfig, c.Dt)
	}
	return nil
}

// NewFilter returns a conditional Gaussian filter driven by s.
// Parameters:
// - s: coefficient strategy
// - cfg: horizon, chunk size and time step
// - noise: observation precision and process variance
// - μ0: initial mean
// - R0: initial covariance (nil means zero)
func NewFilter(s Strategy, cfg RunConfig, noise Noise, μ0 []complex128, R0 *mat.CDense) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n, m := s.Dims()
	if n < 1 || m < 1 {
		return nil, fmt.Errorf("%w: invalid strategy dimensions [%d x %d]", ErrShape, n, m)
	}
	if s.Steps() < cfg.Steps {
		return nil, fmt.Errorf("%w: trajectory has %d samples, %d steps requested", ErrShape, s.Steps(), cfg.Steps)
	}
	if err := checkLen(len(μ0), n, "μ0"); err != nil {
		return nil, err
	}
	if err := checkLen(len(noise.ProcessVar), n, "process noise"); err != nil {
		return nil, err
	}
	if R0 == nil {
		R0 = mat.NewCDense(n, n, nil)
	}
	if r, c := R0.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: R0 is %dx%d, expected %dx%d", ErrShape, r, c, n, n)
	}
	kf := &Filter{
		strategy: s,
		cfg:      cfg,
		noise:    noise,
		μ0:       append([]complex128(nil), μ0...),
		R0:       mat.NewCDense(n, n, nil),
		μ:        make([]complex128, n),
		μNext:    make([]complex128, n),
		R:        mat.NewCDense(n, n, nil),
		RNext:    mat.NewCDense(n, n, nil),
		a1R:      mat.NewCDense(n, n, nil),
		RA1H:     mat.NewCDense(n, m, nil),
		drift:    make([]complex128, n),
		innov:    make([]complex128, m),
		Δobs:     make([]complex128, m),
	}
	kf.R0.Copy(R0)
	kf.Reset()
	return kf, nil
}

// Filter is the conditional Gaussian filter recursion. The coefficients come
// from a Strategy; the mean and covariance are overwritten at each step.
type Filter struct {
	strategy Strategy
	cfg      RunConfig
	noise    Noise
	μ0       []complex128
	R0       *mat.CDense

	μ, μNext     []complex128
	R, RNext     *mat.CDense
	a1R, RA1H    *mat.CDense
	drift, innov []complex128
	Δobs         []complex128
	step         int
}

func (kf *Filter) String() string {
	n, m := kf.strategy.Dims()
	return fmt.Sprintf("Filter{%s n=%d obs=%d N=%d chunk=%d dt=%g k=%d %s}", kf.strategy.Type(), n, m, kf.cfg.Steps, kf.cfg.Chunk, kf.cfg.Dt, kf.step, kf.noise)
}

// Strategy returns the coefficient strategy.
func (kf *Filter) Strategy() Strategy {
	return kf.strategy
}

// Config returns the run configuration.
func (kf *Filter) Config() RunConfig {
	return kf.cfg
}

// Noise returns the noise.
func (kf *Filter) Noise() Noise {
	return kf.noise
}

// Reset restores the initial condition.
func (kf *Filter) Reset() {
	copy(kf.μ, kf.μ0)
	kf.R.Copy(kf.R0)
	kf.step = 0
}

// Step returns the index of the last update.
func (kf *Filter) Step() int {
	return kf.step
}

// State returns the current posterior mean. The slice is overwritten by Update.
func (kf *Filter) State() []complex128 {
	return kf.μ
}

// Covariance returns the current posterior covariance. The matrix is overwritten by Update.
func (kf *Filter) Covariance() *mat.CDense {
	return kf.R
}

// Update advances the mean and covariance by one Euler-Maruyama step:
//
//	μ' = μ + (a0 + a1μ)dt + InvBoB·(RA1ᴴ)(Δobs - (A0 + A1μ)dt)
//	R' = R + [a1R + (a1R)ᴴ + diag(|σ|²) - InvBoB·(RA1ᴴ)(RA1ᴴ)ᴴ]dt
func (kf *Filter) Update(c Coefficients, Δobs []complex128) error {
	n, m := kf.strategy.Dims()
	if c.A1 == nil {
		return fmt.Errorf("%w: missing observation operator", ErrShape)
	}
	if err := checkMatDims(c.A1, kf.RA1H, "A1", "RA1ᴴ", rows2cols); err != nil {
		return err
	}
	if err := checkMatDims(c.A1, kf.R, "A1", "R", cols2rows); err != nil {
		return err
	}
	if err := checkLen(len(Δobs), m, "Δobs"); err != nil {
		return err
	}
	if err := checkLen(len(c.Drift0), n, "a0"); err != nil {
		return err
	}
	if c.A0 != nil {
		if err := checkLen(len(c.A0), m, "A0"); err != nil {
			return err
		}
	}
	if c.Drift1Diag != nil {
		if err := checkLen(len(c.Drift1Diag), n, "diag(a1)"); err != nil {
			return err
		}
	} else if c.Drift1 == nil {
		return fmt.Errorf("%w: missing state operator", ErrShape)
	} else if err := checkMatDims(c.Drift1, kf.R, "a1", "R", rowsAndcols); err != nil {
		return err
	}

	dt := complex(kf.cfg.Dt, 0)
	invBoB := complex(kf.noise.ObsPrecision, 0)

	// Innovation Δobs - (A0 + A1μ)dt.
	if c.A0 != nil {
		copy(kf.innov, c.A0)
	} else {
		clear(kf.innov)
	}
	mulVec(1, c.A1, kf.μ, 1, kf.innov)
	for j := range kf.innov {
		kf.innov[j] = Δobs[j] - kf.innov[j]*dt
	}

	// RA1ᴴ and a1R.
	mulH(1, kf.R, c.A1, 0, kf.RA1H)
	if c.Drift1Diag != nil {
		for i, d := range c.Drift1Diag {
			for j := 0; j < n; j++ {
				kf.a1R.Set(i, j, d*kf.R.At(i, j))
			}
		}
	} else {
		mul(c.Drift1, kf.R, kf.a1R)
	}

	// Mean.
	copy(kf.drift, c.Drift0)
	if c.Drift1Diag != nil {
		for i, d := range c.Drift1Diag {
			kf.drift[i] += d * kf.μ[i]
		}
	} else {
		mulVec(1, c.Drift1, kf.μ, 1, kf.drift)
	}
	for i := range kf.μNext {
		kf.μNext[i] = kf.μ[i] + kf.drift[i]*dt
	}
	mulVec(invBoB, kf.RA1H, kf.innov, 1, kf.μNext)

	// Covariance.
	kf.RNext.Copy(kf.R)
	if invBoB != 0 {
		mulH(-invBoB*dt, kf.RA1H, kf.RA1H, 1, kf.RNext)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := kf.a1R.At(i, j) + cmplx.Conj(kf.a1R.At(j, i))
			if i == j {
				v += complex(kf.noise.ProcessVar[i], 0)
			}
			kf.RNext.Set(i, j, kf.RNext.At(i, j)+v*dt)
		}
	}

	kf.μ, kf.μNext = kf.μNext, kf.μ
	kf.R, kf.RNext = kf.RNext, kf.R
	kf.step++
	return nil
}

// Forward runs the filter over the whole horizon from the initial condition and
// returns the mean and covariance diagonal series.
func (kf *Filter) Forward() (res *Result, err error) {
	kf.Reset()
	n, _ := kf.strategy.Dims()
	res = NewResult(n, kf.cfg.Steps)
	res.record(0, kf.μ, kf.R)

	cache := newChunkCache(kf.strategy, kf.cfg.Chunk, kf.cfg.Steps, kf.cfg.Prefetch)
	defer func() {
		if cerr := cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for i := 1; i < kf.cfg.Steps; i++ {
		c, err := cache.At(i)
		if err != nil {
			return nil, err
		}
		kf.strategy.Increment(i, kf.Δobs)
		if err := kf.Update(c, kf.Δobs); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		res.record(i, kf.μ, kf.R)
	}
	Logf("lagrangeda: %s filter finished %d steps", kf.strategy.Type(), kf.cfg.Steps)
	return res, nil
}
