package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/trip/pkg/cache"
	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/glitch"
	"github.com/matzehuels/trip/pkg/history"
	imgio "github.com/matzehuels/trip/pkg/io"
	"github.com/matzehuels/trip/pkg/observability"
	"github.com/matzehuels/trip/pkg/pixel"
)

// Runner encapsulates pipeline execution with caching and run history.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different options; every run gets its own random source.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	History history.Store
	Logger  *log.Logger
}

// NewRunner creates a runner. Nil arguments fall back to a NullCache, the
// DefaultKeyer, a NullStore and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, h history.Store, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if h == nil {
		h = history.NullStore{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		History: h,
		Logger:  logger,
	}
}

// Execute runs decode → transform → encode with caching and records the
// run in history, failed runs included.
func (r *Runner) Execute(ctx context.Context, opts Options) (result *Result, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	start := time.Now()
	result = &Result{
		RunID:  uuid.NewString(),
		Format: opts.Format,
		Seed:   opts.Seed,
	}
	result.Stats.Steps = len(opts.Recipe.Steps)
	inputHash := cache.Hash(opts.Input)

	observability.Pipeline().OnRunStart(ctx, opts.Recipe.Name, len(opts.Recipe.Steps))
	defer func() {
		result.Stats.TotalTime = time.Since(start)
		observability.Pipeline().OnRunComplete(ctx, opts.Recipe.Name, result.Stats.TotalTime, err)
		r.record(ctx, opts, inputHash, start, result, err)
		if err != nil {
			result = nil
		}
	}()

	key := r.Keyer.ArtifactKey(inputHash, opts.ArtifactKeyOpts())
	if !opts.NoCache {
		if hit := r.fromCache(ctx, key, result, logger); hit {
			return result, nil
		}
	}

	// Stage 1: Decode
	decodeStart := time.Now()
	a, format, err := imgio.DecodeBytes(opts.Input)
	if err != nil {
		return result, err
	}
	result.Stats.DecodeTime = time.Since(decodeStart)
	logger.Debug("decoded input",
		"name", opts.InputName,
		"format", format,
		"shape", a.String(),
		"duration", result.Stats.DecodeTime)

	// Stage 2: Transform
	transformStart := time.Now()
	a, err = r.Transform(ctx, a, opts)
	if err != nil {
		return result, err
	}
	result.Stats.TransformTime = time.Since(transformStart)
	logger.Info("applied recipe",
		"recipe", opts.Recipe.Name,
		"steps", len(opts.Recipe.Steps),
		"seed", opts.Seed,
		"duration", result.Stats.TransformTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	artifact, err := imgio.EncodeBytes(a, opts.Format, opts.Quality)
	if err != nil {
		return result, err
	}
	result.Stats.EncodeTime = time.Since(encodeStart)
	result.setImage(a)
	result.Artifact = artifact

	if !opts.NoCache {
		if err := r.Cache.Set(ctx, key, artifact, opts.TTL); err != nil {
			logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(artifact))
		}
	}
	return result, nil
}

// Transform applies the recipe steps to a, seeding a fresh random source
// from opts.Seed. The context is checked between steps.
func (r *Runner) Transform(ctx context.Context, a *pixel.Array, opts Options) (*pixel.Array, error) {
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	rng := glitch.NewSource(opts.Seed)

	for i, step := range opts.Recipe.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		observability.Pipeline().OnStepStart(ctx, string(step.Op), i)
		stepStart := time.Now()

		out, err := step.Apply(a, rng)
		observability.Pipeline().OnStepComplete(ctx, string(step.Op), i, time.Since(stepStart), err)
		if err != nil {
			return nil, errs.Wrap(errs.GetCode(err), err, "step %d (%s)", i+1, step.Op)
		}
		logger.Debug("step done",
			"index", i+1,
			"op", step.Op,
			"block_size", step.BlockSize,
			"shape", out.String(),
			"duration", time.Since(stepStart))
		a = out
	}
	return a, nil
}

// fromCache fills result from a cached artifact. Cache failures are logged
// and treated as misses.
func (r *Runner) fromCache(ctx context.Context, key string, result *Result, logger *log.Logger) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "error", err)
		return false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "artifact")
		return false
	}

	a, _, err := imgio.DecodeBytes(data)
	if err != nil {
		logger.Warn("discarding unreadable cache entry", "error", err)
		_ = r.Cache.Delete(ctx, key)
		return false
	}
	observability.Cache().OnCacheHit(ctx, "artifact")
	logger.Info("cache hit", "bytes", len(data))

	result.setImage(a)
	result.Artifact = data
	result.CacheHit = true
	return true
}

// record writes the run to history. History failures never fail the run.
func (r *Runner) record(ctx context.Context, opts Options, inputHash string, start time.Time, result *Result, runErr error) {
	run := history.Run{
		ID:        result.RunID,
		Recipe:    opts.Recipe.Name,
		Steps:     len(opts.Recipe.Steps),
		Seed:      opts.Seed,
		InputName: opts.InputName,
		InputHash: inputHash,
		Format:    opts.Format,
		Width:     result.Stats.Width,
		Height:    result.Stats.Height,
		Bytes:     len(result.Artifact),
		CacheHit:  result.CacheHit,
		Source:    opts.Source,
		StartedAt: start,
		Duration:  result.Stats.TotalTime,
	}
	if runErr != nil {
		run.Error = errs.UserMessage(runErr)
	}
	// Record even when the run was cancelled.
	if err := r.History.Record(context.WithoutCancel(ctx), run); err != nil {
		r.Logger.Warn("history write failed", "run", run.ID, "error", err)
	}
}

func (res *Result) setImage(a *pixel.Array) {
	res.Image = a
	res.Stats.Width = a.Width
	res.Stats.Height = a.Height
	res.Stats.Channels = a.Channels
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// String summarizes the result for logs.
func (res *Result) String() string {
	if res == nil {
		return "<nil>"
	}
	return fmt.Sprintf("run %s: %dx%d %s (%d bytes, cache hit %t)",
		res.RunID, res.Stats.Width, res.Stats.Height, res.Format, len(res.Artifact), res.CacheHit)
}
