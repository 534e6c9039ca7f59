package exr

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DecodeOptions configures decoding.
type DecodeOptions struct {
	// Workers is the number of chunks decoded concurrently. 0 means
	// runtime.GOMAXPROCS(0); 1 decodes sequentially.
	Workers int

	// GrainSize is the minimum number of chunks per worker before work is
	// spread over goroutines.
	GrainSize int

	// Strict makes attributes of unknown type a header error instead of a
	// warning.
	Strict bool
}

// DefaultDecodeOptions returns the default decoding configuration.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		Workers:   0,
		GrainSize: 1,
	}
}

// effectiveWorkers returns the number of workers to use.
func (o DecodeOptions) effectiveWorkers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// parallelForWithError runs fn(i) for i in [0, n) on up to the configured
// number of workers and returns the first error. Once a call fails no
// further indices are started. The context is checked before each index.
func parallelForWithError(ctx context.Context, n int, opts DecodeOptions, fn func(i int) error) error {
	workers := opts.effectiveWorkers()
	grain := opts.GrainSize
	if grain < 1 {
		grain = 1
	}

	if workers == 1 || n <= grain {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
