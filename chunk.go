package lagrangeda

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type window struct {
	start  int
	coeffs []Coefficients
}

// chunkCache asks the Strategy for coefficients once per window of size steps.
// Step i (1 ≤ i < steps) uses the coefficients of trajectory index i-1.
type chunkCache struct {
	s     Strategy
	size  int
	steps int

	cur window

	// prefetch
	ch     chan window
	g      *errgroup.Group
	cancel context.CancelFunc
}

func newChunkCache(s Strategy, size, steps int, prefetch bool) *chunkCache {
	c := &chunkCache{s: s, size: size, steps: steps}
	if prefetch {
		ctx, cancel := context.WithCancel(context.Background())
		g, ctx := errgroup.WithContext(ctx)
		c.ch = make(chan window, 1)
		c.g = g
		c.cancel = cancel
		g.Go(func() error {
			defer close(c.ch)
			for start := 0; start < steps-1; start += size {
				w, err := c.build(start)
				if err != nil {
					return err
				}
				select {
				case c.ch <- w:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	return c
}

func (c *chunkCache) build(start int) (window, error) {
	count := min(c.size, c.steps-1-start)
	coeffs, err := c.s.Build(start, count)
	if err != nil {
		return window{}, fmt.Errorf("building coefficients at %d: %w", start, err)
	}
	if len(coeffs) != count {
		return window{}, fmt.Errorf("%w: builder returned %d coefficient sets, expected %d", ErrShape, len(coeffs), count)
	}
	Logf("lagrangeda: built %s coefficients for steps %d..%d", c.s.Type(), start+1, start+count)
	return window{start, coeffs}, nil
}

func (c *chunkCache) next(start int) (window, error) {
	if c.ch == nil {
		return c.build(start)
	}
	w, ok := <-c.ch
	if !ok {
		if err := c.g.Wait(); err != nil {
			return window{}, err
		}
		return window{}, errors.New("coefficient prefetch ended early")
	}
	if w.start != start {
		return window{}, fmt.Errorf("prefetched window starts at %d, expected %d", w.start, start)
	}
	return w, nil
}

// At returns the coefficients for filter step i.
func (c *chunkCache) At(i int) (Coefficients, error) {
	off := (i - 1) % c.size
	if off == 0 {
		w, err := c.next(i - 1)
		if err != nil {
			return Coefficients{}, err
		}
		c.cur = w
	}
	return c.cur.coeffs[off], nil
}

// Close stops any prefetching goroutine.
func (c *chunkCache) Close() error {
	if c.g == nil {
		return nil
	}
	c.cancel()
	for range c.ch {
	}
	if err := c.g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
