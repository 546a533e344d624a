package lagrangeda

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GroundTruth compares a Result with the known true state series.
type GroundTruth struct {
	states [][]complex128
}

// NewGroundTruth initializes a ground truth from states of shape [steps][n].
func NewGroundTruth(states [][]complex128) *GroundTruth {
	return &GroundTruth{states}
}

// Skill holds the per-step error statistics of a Result.
type Skill struct {
	RMSE []float64 // root mean square error of the mean
	Corr []float64 // pattern correlation of the mean with the truth
	NEES []float64 // mean of |μ-u|²/var over modes with positive variance
}

// Skill evaluates res against the ground truth at every step.
func (t *GroundTruth) Skill(res *Result) (Skill, error) {
	n, steps := res.Dims()
	if len(t.states) < steps {
		return Skill{}, fmt.Errorf("%w: %d true states for %d steps", ErrShape, len(t.states), steps)
	}
	sk := Skill{RMSE: make([]float64, steps), Corr: make([]float64, steps), NEES: make([]float64, steps)}
	for k := 0; k < steps; k++ {
		if err := checkLen(len(t.states[k]), n, fmt.Sprintf("truth[%d]", k)); err != nil {
			return Skill{}, err
		}
		est := res.State(k)
		sk.RMSE[k] = RMSE(est, t.states[k])
		sk.Corr[k] = PatternCorrelation(est, t.states[k])
		sk.NEES[k] = normalizedError(est, t.states[k], res.Variance(k))
	}
	return sk, nil
}

// split returns the real and imaginary parts of v laid end to end.
func split(v []complex128) []float64 {
	out := make([]float64, 2*len(v))
	for i, c := range v {
		out[i] = real(c)
		out[len(v)+i] = imag(c)
	}
	return out
}

// RMSE returns the root mean square modulus of est-truth.
func RMSE(est, truth []complex128) float64 {
	if len(est) == 0 {
		return 0
	}
	return floats.Distance(split(est), split(truth), 2) / math.Sqrt(float64(len(est)))
}

// PatternCorrelation returns the correlation between the real and imaginary
// components of est and truth. NaN when either is constant.
func PatternCorrelation(est, truth []complex128) float64 {
	return stat.Correlation(split(est), split(truth), nil)
}

func normalizedError(est, truth, variance []complex128) float64 {
	var errs []float64
	for i := range est {
		v := real(variance[i])
		if v <= 0 {
			continue
		}
		d := cmplx.Abs(est[i] - truth[i])
		errs = append(errs, d*d/v)
	}
	if len(errs) == 0 {
		return 0
	}
	return stat.Mean(errs, nil)
}
