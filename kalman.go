package lagrangeda

import "gonum.org/v1/gonum/mat"

// StrategyType allows for quick comparison of coefficient strategies.
type StrategyType uint8

const (
	// OUType is the tracer driven complex Ornstein-Uhlenbeck reduced model.
	OUType StrategyType = iota + 1
	// QGType is the mode driven two-layer quasi-geostrophic model.
	QGType
)

func (t StrategyType) String() string {
	switch t {
	case OUType:
		return "ou"
	case QGType:
		return "qg"
	}
	return "unknown"
}

// Coefficients are the conditionally linear coefficients at one time step:
//
//	dobs = (A0 + A1·u) dt + noise
//	du   = (Drift0 + Drift1·u) dt + noise
//
// A nil A0 is zero. Drift1Diag, when set, replaces a diagonal Drift1.
type Coefficients struct {
	A0         []complex128
	A1         *mat.CDense
	Drift0     []complex128
	Drift1     *mat.CDense
	Drift1Diag []complex128
}

// Strategy builds the coefficients and observations driving a Filter.
type Strategy interface {
	Type() StrategyType
	// Dims returns the sizes of the hidden state and of the observation.
	Dims() (state, obs int)
	// Steps returns the number of trajectory samples available.
	Steps() int
	// Build returns the coefficients at trajectory indices start..start+count-1.
	Build(start, count int) ([]Coefficients, error)
	// Increment writes the observation increment between samples i-1 and i into dst.
	Increment(i int, dst []complex128)
}

// Estimate is the filter state after an update.
type Estimate interface {
	Step() int
	State() []complex128      // posterior mean
	Covariance() *mat.CDense // posterior covariance
}
