package lagrangeda

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// Noise holds the precision of the observation noise (InvBoB) and the
// diagonal variance |σ|² of the process noise.
type Noise struct {
	ObsPrecision float64
	ProcessVar   []float64
}

// NewNoise creates the noise from the observation standard deviation σobs and
// the per-mode process noise amplitudes σproc.
// A zero σobs would make InvBoB infinite and is rejected.
func NewNoise(σobs float64, σproc []complex128) (Noise, error) {
	if err := checkFinite(σobs, "observation noise"); err != nil {
		return Noise{}, err
	}
	if σobs <= 0 {
		return Noise{}, fmt.Errorf("%w: observation noise σ=%v must be positive", ErrInvalidConfig, σobs)
	}
	q := make([]float64, len(σproc))
	for i, s := range σproc {
		if cmplx.IsNaN(s) || cmplx.IsInf(s) {
			return Noise{}, fmt.Errorf("%w: process noise σ[%d]=%v", ErrInvalidConfig, i, s)
		}
		q[i] = real(s * cmplx.Conj(s))
	}
	return Noise{ObsPrecision: 1 / (σobs * σobs), ProcessVar: q}, nil
}

// NewNoiseFromPrecision creates the noise from InvBoB directly. A zero
// precision means the observations carry no information.
func NewNoiseFromPrecision(precision float64, processVar []float64) (Noise, error) {
	if err := checkFinite(precision, "observation precision"); err != nil {
		return Noise{}, err
	}
	if precision < 0 {
		return Noise{}, fmt.Errorf("%w: observation precision %v is negative", ErrInvalidConfig, precision)
	}
	for i, v := range processVar {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Noise{}, fmt.Errorf("%w: process variance[%d]=%v", ErrInvalidConfig, i, v)
		}
	}
	return Noise{ObsPrecision: precision, ProcessVar: processVar}, nil
}

// Uniform returns n copies of σ.
func Uniform(n int, σ complex128) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = σ
	}
	return out
}

// String implements the Stringer interface.
func (n Noise) String() string {
	vals := make([]string, len(n.ProcessVar))
	for i, v := range n.ProcessVar {
		vals[i] = fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("Noise{InvBoB=%g Σ=[%s]}", n.ObsPrecision, strings.Join(vals, " "))
}
