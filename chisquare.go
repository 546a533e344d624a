package lagrangeda

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquare is the NEES consistency test of a set of twin runs. At every step
// the normalized error Σ 2|μ-u|²/var of each run is χ² distributed with 2n
// degrees of freedom when the filter is consistent, so the run average must
// fall in [Lower, Upper].
type ChiSquare struct {
	Means        []float64 // average NEES per step, 0 at the initial condition
	DOF          int
	Lower, Upper float64
}

// NewChiSquare runs the χ² test of runs against their ground truths at the
// significance level alpha. Step 0 is skipped since the initial covariance may
// be zero.
func NewChiSquare(runs *Runs, truths []*GroundTruth, alpha float64) (ChiSquare, error) {
	if runs == nil || len(runs.Results) == 0 {
		return ChiSquare{}, errors.New("chi square requires at least one run")
	}
	if len(truths) != len(runs.Results) {
		return ChiSquare{}, fmt.Errorf("%w: %d runs and %d ground truths", ErrShape, len(runs.Results), len(truths))
	}
	if alpha <= 0 || alpha >= 1 {
		return ChiSquare{}, fmt.Errorf("%w: significance level %f", ErrInvalidConfig, alpha)
	}
	n, steps := runs.Results[0].Dims()
	samples := make([]float64, len(runs.Results))
	cs := ChiSquare{Means: make([]float64, steps), DOF: 2 * n}
	for k := 1; k < steps; k++ {
		for rNo, res := range runs.Results {
			truth := truths[rNo].states
			if len(truth) <= k {
				return ChiSquare{}, fmt.Errorf("%w: run %d has %d true states", ErrShape, rNo, len(truth))
			}
			nees, err := neesSum(res.State(k), truth[k], res.Variance(k))
			if err != nil {
				return ChiSquare{}, fmt.Errorf("run %d step %d: %w", rNo, k, err)
			}
			samples[rNo] = nees
		}
		cs.Means[k] = stat.Mean(samples, nil)
	}
	R := float64(len(runs.Results))
	χ2 := distuv.ChiSquared{K: R * float64(cs.DOF)}
	cs.Lower = χ2.Quantile(alpha/2) / R
	cs.Upper = χ2.Quantile(1-alpha/2) / R
	return cs, nil
}

// Inside returns the fraction of steps after the first whose average NEES is
// within the acceptance region.
func (c ChiSquare) Inside() float64 {
	if len(c.Means) < 2 {
		return 0
	}
	in := 0
	for _, m := range c.Means[1:] {
		if m >= c.Lower && m <= c.Upper {
			in++
		}
	}
	return float64(in) / float64(len(c.Means)-1)
}

func neesSum(est, truth, variance []complex128) (float64, error) {
	if err := checkLen(len(truth), len(est), "truth"); err != nil {
		return 0, err
	}
	var sum float64
	for i := range est {
		v := real(variance[i])
		if v <= 0 {
			return 0, fmt.Errorf("%w: variance of component %d is %g", ErrShape, i, v)
		}
		d := est[i] - truth[i]
		sum += 2 * (real(d)*real(d) + imag(d)*imag(d)) / v
	}
	return sum, nil
}
