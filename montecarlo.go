package lagrangeda

import (
	"context"
	"fmt"
	"math/cmplx"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Runs stores the results of independent filter runs, e.g. one per tracer
// deployment or parameter set.
type Runs struct {
	Results []*Result
}

// RunAll runs every filter over its horizon using at most workers goroutines.
// Each filter owns its state, so runs need no synchronization; the first error
// cancels the runs not yet started.
func RunAll(ctx context.Context, filters []*Filter, workers int) (*Runs, error) {
	if workers < 1 {
		workers = 1
	}
	res := make([]*Result, len(filters))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, kf := range filters {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := kf.Forward()
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res[i] = r
			Logf("lagrangeda: run %d/%d done", i+1, len(filters))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Runs{res}, nil
}

// MeanVariance returns, for each state component, the mean across runs of the
// posterior variance at the given step.
func (r *Runs) MeanVariance(step int) ([]float64, error) {
	n, err := r.checkStep(step)
	if err != nil {
		return nil, err
	}
	samples := make([]float64, len(r.Results))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		for rNo, res := range r.Results {
			samples[rNo] = real(res.CovDiag.At(i, step))
		}
		out[i] = stat.Mean(samples, nil)
	}
	return out, nil
}

// Spread returns, for each state component, the standard deviation across runs
// of the modulus of the posterior mean at the given step. A single run has no
// spread.
func (r *Runs) Spread(step int) ([]float64, error) {
	n, err := r.checkStep(step)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	if len(r.Results) < 2 {
		return out, nil
	}
	samples := make([]float64, len(r.Results))
	for i := 0; i < n; i++ {
		for rNo, res := range r.Results {
			samples[rNo] = cmplx.Abs(res.Mean.At(i, step))
		}
		out[i] = stat.StdDev(samples, nil)
	}
	return out, nil
}

func (r *Runs) checkStep(step int) (int, error) {
	if r == nil || len(r.Results) == 0 {
		return 0, fmt.Errorf("%w: no runs", ErrShape)
	}
	n, steps := r.Results[0].Dims()
	if step < 0 || step >= steps {
		return 0, fmt.Errorf("%w: step %d outside [0, %d)", ErrShape, step, steps)
	}
	return n, nil
}
