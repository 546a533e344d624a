package lagrangeda

import (
	"fmt"
	"math"
	"math/cmplx"
)

// DiscreteOU is the exact discretization of the scalar complex OU process
// du = (f + a u) dt + σ dW over one step:
//
//	u(t+Δt) = Φ u(t) + B + w,  E|w|² = Q
type DiscreteOU struct {
	Φ, B complex128
	Q    float64
}

// ExactOU computes the exact discretization of du = (f + a u) dt + σ dW with
// time step Δt. Returns an error if Re(a) > 0 (the process is unstable) or if
// the Nyquist criterion is not fulfilled for the rotation Im(a).
func ExactOU(a, f, σ complex128, Δt float64) (DiscreteOU, error) {
	var err error
	if real(a) > 0 {
		err = fmt.Errorf("%w: unstable mode a=%v", ErrInvalidConfig, a)
	} else if 2*math.Abs(imag(a))*Δt >= math.Pi {
		err = fmt.Errorf("lagrangeda: Nyquist sampling criterion not fulfilled with Δt=%f", Δt)
	}
	σ2 := real(σ * cmplx.Conj(σ))
	if a == 0 {
		return DiscreteOU{Φ: 1, B: f * complex(Δt, 0), Q: σ2 * Δt}, err
	}
	Φ := cmplx.Exp(a * complex(Δt, 0))
	d := DiscreteOU{Φ: Φ, B: f * (Φ - 1) / a}
	if γ := real(a); γ != 0 {
		d.Q = σ2 * (math.Exp(2*γ*Δt) - 1) / (2 * γ)
	} else {
		d.Q = σ2 * Δt
	}
	return d, err
}
