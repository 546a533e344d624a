package lagrangeda

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Result holds the posterior mean and covariance diagonal series, one column
// per step. Column 0 is the initial condition.
type Result struct {
	Mean    *mat.CDense
	CovDiag *mat.CDense
}

// NewResult allocates a Result for n state components over steps samples.
func NewResult(n, steps int) *Result {
	return &Result{
		Mean:    mat.NewCDense(n, steps, nil),
		CovDiag: mat.NewCDense(n, steps, nil),
	}
}

func (r *Result) record(i int, μ []complex128, R *mat.CDense) {
	for j, v := range μ {
		r.Mean.Set(j, i, v)
		r.CovDiag.Set(j, i, R.At(j, j))
	}
}

// Dims returns the state size and the number of steps.
func (r *Result) Dims() (n, steps int) {
	return r.Mean.Dims()
}

// State returns the posterior mean at step i.
func (r *Result) State(i int) []complex128 {
	return column(r.Mean, i)
}

// Variance returns the posterior covariance diagonal at step i.
func (r *Result) Variance(i int) []complex128 {
	return column(r.CovDiag, i)
}

// Set stores the mean and covariance diagonal of step i.
func (r *Result) Set(i int, mean, variance []complex128) error {
	n, steps := r.Dims()
	if i < 0 || i >= steps {
		return fmt.Errorf("%w: step %d outside [0, %d)", ErrShape, i, steps)
	}
	if err := checkLen(len(mean), n, "mean"); err != nil {
		return err
	}
	if err := checkLen(len(variance), n, "variance"); err != nil {
		return err
	}
	for j := 0; j < n; j++ {
		r.Mean.Set(j, i, mean[j])
		r.CovDiag.Set(j, i, variance[j])
	}
	return nil
}

func column(m *mat.CDense, i int) []complex128 {
	n, _ := m.Dims()
	out := make([]complex128, n)
	for j := range out {
		out[j] = m.At(j, i)
	}
	return out
}
