package main

import (
	"fmt"
	"math"

	"github.com/zhongruiw/lagrangeda"
)

func realGrid(K int, v float64) [][]float64 {
	g := make([][]float64, K)
	for i := range g {
		g[i] = make([]float64, K)
		for j := range g[i] {
			g[i][j] = v
		}
	}
	return g
}

func complexGrid(K int, v complex128) [][]complex128 {
	g := make([][]complex128, K)
	for i := range g {
		g[i] = make([]complex128, K)
		for j := range g[i] {
			g[i][j] = v
		}
	}
	return g
}

// ouTwin is one synthetic tracer experiment with its true modes.
type ouTwin struct {
	filter *lagrangeda.Filter
	truth  *lagrangeda.GroundTruth
	states [][]complex128
}

// ouModeParams returns the per-field parameters of the scenario. The phase
// speed grows with |k| so that modes of different scales rotate apart.
func ouModeParams(sc *Scenario) lagrangeda.OUModeParams {
	ω := realGrid(sc.K, 0)
	for iy := range ω {
		for ix := range ω[iy] {
			kx, ky := lagrangeda.Wavenumber(ix, sc.K), lagrangeda.Wavenumber(iy, sc.K)
			ω[iy][ix] = sc.OU.Omega * math.Sqrt(float64(kx*kx+ky*ky))
		}
	}
	return lagrangeda.OUModeParams{
		F:     complexGrid(sc.K, complex(sc.OU.Forcing, 0)),
		Gamma: realGrid(sc.K, sc.OU.Gamma),
		Omega: ω,
		Sigma: complexGrid(sc.K, complex(sc.OU.Sigma, 0)),
	}
}

// newOUTwin simulates the true modes and tracers of run r and returns the
// filter that estimates them back.
func newOUTwin(sc *Scenario, set *lagrangeda.SpectralSet, r int) (*ouTwin, error) {
	src := lagrangeda.TwinSource(sc.Seed + uint64(r))
	params := ouModeParams(sc)
	lm := set.Len()

	f, err := set.Truncate(params.F)
	if err != nil {
		return nil, err
	}
	γ, err := set.TruncateReal(params.Gamma)
	if err != nil {
		return nil, err
	}
	ω, err := set.TruncateReal(params.Omega)
	if err != nil {
		return nil, err
	}
	a := make([]complex128, lm)
	for j := range a {
		a[j] = complex(-γ[j], ω[j])
	}
	σ := lagrangeda.Uniform(lm, complex(sc.OU.Sigma, 0))

	fs, as, σs := append(f, f...), append(a, a...), append(σ, σ...)
	modes, err := lagrangeda.SimulateModes(lagrangeda.Uniform(2*lm, 0.5), fs, as, σs, sc.Steps, sc.Dt, src)
	if err != nil {
		return nil, err
	}

	r1, r2 := lagrangeda.Uniform(lm, complex(sc.OU.R1, 0)), lagrangeda.Uniform(lm, complex(sc.OU.R2, 0))
	b, err := lagrangeda.NewOUBuilder(set, r1, r2)
	if err != nil {
		return nil, err
	}
	x0 := make([]float64, sc.OU.Tracers)
	y0 := make([]float64, sc.OU.Tracers)
	for l := range x0 {
		x0[l] = 2 * math.Pi * float64(l) / float64(len(x0))
		y0[l] = 2 * math.Pi * math.Mod(float64(l)*0.618033988749895, 1)
	}
	x, y, err := lagrangeda.SimulateTracers(b, modes, x0, y0, sc.Dt, sc.OU.SigmaXY, src)
	if err != nil {
		return nil, err
	}

	ψ0, τ0, err := lagrangeda.SplitOUGrids(set, modes[0])
	if err != nil {
		return nil, err
	}
	kf, err := lagrangeda.NewOU(lagrangeda.OUConfig{
		RunConfig: sc.RunConfig(),
		K:         sc.K,
		RCut:      sc.RCut,
		Style:     set.Style,
		Psi0:      ψ0,
		Tau0:      τ0,
		R1:        complexGrid(sc.K, complex(sc.OU.R1, 0)),
		R2:        complexGrid(sc.K, complex(sc.OU.R2, 0)),
		Psi:       params,
		Tau:       params,
		SigmaXY:   sc.OU.SigmaXY,
		X:         x,
		Y:         y,
	})
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", r, err)
	}
	return &ouTwin{filter: kf, truth: lagrangeda.NewGroundTruth(modes), states: modes}, nil
}

// newQGFilter drives the QG filter with a surrogate upper layer made of
// independent OU modes.
func newQGFilter(sc *Scenario, set *lagrangeda.SpectralSet, r int) (*lagrangeda.Filter, error) {
	src := lagrangeda.TwinSource(sc.Seed + uint64(r))
	n := set.Len()
	ψ1, err := lagrangeda.SimulateModes(lagrangeda.Uniform(n, 0.1), lagrangeda.Uniform(n, 0),
		lagrangeda.Uniform(n, complex(-sc.QG.Psi1Gamma, 0)), lagrangeda.Uniform(n, complex(sc.QG.Psi1Sigma, 0)), sc.Steps, sc.Dt, src)
	if err != nil {
		return nil, err
	}
	grids := make([][][]complex128, len(ψ1))
	for t := range ψ1 {
		if grids[t], err = set.Expand(ψ1[t]); err != nil {
			return nil, err
		}
	}
	return lagrangeda.NewQG(lagrangeda.QGConfig{
		RunConfig: sc.RunConfig(),
		QGParams: lagrangeda.QGParams{
			Kd:    sc.QG.Kd,
			Beta:  sc.QG.Beta,
			Kappa: sc.QG.Kappa,
			Nu:    sc.QG.Nu,
			U:     sc.QG.U,
		},
		K:        sc.K,
		RCut:     sc.RCut,
		Style:    set.Style,
		Psi1:     grids,
		Psi2Init: complexGrid(sc.K, 0),
		H:        complexGrid(sc.K, complex(sc.QG.Topography, 0)),
		Sigma1:   sc.QG.Sigma1,
		Sigma2:   sc.QG.Sigma2,
	})
}
