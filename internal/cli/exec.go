package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trip/pkg/pipeline"
	"github.com/matzehuels/trip/pkg/recipe"
)

// addOutputFlags registers the flags shared by shuffle, streak and run.
func addOutputFlags(cmd *cobra.Command, o *outputOpts) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (one input) or directory (several inputs)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format: png (default), jpeg, bmp, tiff")
	cmd.Flags().IntVarP(&o.quality, "quality", "q", pipeline.DefaultQuality, "JPEG quality (1-100)")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "random seed (default: recipe seed, else 1)")
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", 0, "parallel jobs for several inputs (default: number of CPUs)")
}

// glitch runs rec over every source and writes the results.
func (c *CLI) glitch(ctx context.Context, srcs []string, rec recipe.Recipe, o outputOpts) error {
	multi := len(srcs) > 1
	format, err := resolveFormat(o.format, o.output, multi)
	if err != nil {
		return err
	}
	paths, err := outputPaths(srcs, o.output, rec.Name, format)
	if err != nil {
		return err
	}

	runner, closeRunner, err := c.newRunner(ctx, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer closeRunner()

	opts := pipeline.Options{
		Recipe:  rec,
		Seed:    o.seed,
		Format:  format,
		Quality: o.quality,
		Source:  pipeline.SourceCLI,
	}

	inputs := make([]pipeline.Input, len(srcs))
	for i, src := range srcs {
		data, err := readInput(ctx, src)
		if err != nil {
			return err
		}
		inputs[i] = pipeline.Input{Name: src, Data: data}
	}

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Applying %s...", rec.Name))
	spinner.Start()

	var results []*pipeline.Result
	if multi {
		results, err = runner.ExecuteBatch(ctx, inputs, opts, o.jobs)
	} else {
		opts.Input, opts.InputName = inputs[0].Data, inputs[0].Name
		var res *pipeline.Result
		res, err = runner.Execute(ctx, opts)
		results = []*pipeline.Result{res}
	}
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("%s failed", rec.Name))
		return err
	}
	spinner.Stop()

	for i, res := range results {
		path := paths[i]
		if err := writeOutput(path, res.Artifact); err != nil {
			return err
		}
		printSuccess("%s %s", rec.Name, StyleDim.Render(filepath.Base(srcs[i])))
		printFile(path)
		printStats(res)
	}
	if multi {
		prog.done(fmt.Sprintf("Glitched %d images", len(results)))
	}
	return nil
}
