package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	errs "github.com/matzehuels/trip/pkg/errors"
)

// Input is one image of a batch.
type Input struct {
	Name string
	Data []byte
}

// ExecuteBatch runs opts against every input with at most jobs runs in
// flight (jobs <= 0 means GOMAXPROCS). opts.Input and opts.InputName are
// replaced per input. Each run seeds its own random source, so a batch
// produces the same artifacts as running the inputs one by one.
//
// Results are in input order. The first failure cancels the remaining runs
// and is returned.
func (r *Runner) ExecuteBatch(ctx context.Context, inputs []Input, opts Options, jobs int) ([]*Result, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*Result, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, in := range inputs {
		g.Go(func() error {
			o := opts
			o.Input = in.Data
			o.InputName = in.Name
			res, err := r.Execute(ctx, o)
			if err != nil {
				if code := errs.GetCode(err); code != "" {
					return errs.Wrap(code, err, "%s", in.Name)
				}
				return fmt.Errorf("%s: %w", in.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
