// Package pipeline runs glitch recipes end to end for trip.
//
// This package implements the decode → transform → encode pipeline shared
// by the CLI and the API server, so both entry points cache, log and record
// runs the same way.
//
// # Architecture
//
// A run has three stages:
//
//  1. Decode: read the input image bytes into a pixel array
//  2. Transform: apply the recipe's steps with a seeded random source
//  3. Encode: write the result in the requested output format
//
// Since the transforms are deterministic for a seed, the encoded artifact
// is cached by (input hash, recipe fingerprint, seed, format, quality). A
// cache hit skips stages 1 to 3.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, history, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  data,
//	    Recipe: r,
//	    Format: "png",
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("out.png", result.Artifact, 0o644)
//
// Many inputs run concurrently through [Runner.ExecuteBatch].
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trip/pkg/cache"
	errs "github.com/matzehuels/trip/pkg/errors"
	imgio "github.com/matzehuels/trip/pkg/io"
	"github.com/matzehuels/trip/pkg/pixel"
	"github.com/matzehuels/trip/pkg/recipe"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed seeds runs whose recipe and options give no seed.
	DefaultSeed = uint64(1)

	// DefaultFormat is the default output encoding.
	DefaultFormat = imgio.FormatPNG

	// DefaultQuality is the default JPEG quality.
	DefaultQuality = imgio.DefaultQuality

	// MaxInputBytes bounds the encoded input size.
	MaxInputBytes = 64 << 20

	// MaxPixels bounds the decoded input size (width*height).
	MaxPixels = imgio.MaxPixels
)

// Run sources recorded in history.
const (
	SourceCLI = "cli"
	SourceAPI = "api"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Input is the encoded source image.
	Input     []byte `json:"-"`
	InputName string `json:"input_name,omitempty"`

	// Recipe is the step chain to apply.
	Recipe recipe.Recipe `json:"recipe"`

	// Seed overrides the recipe seed when non-zero.
	Seed uint64 `json:"seed,omitempty"`

	// Output options
	Format  string `json:"format,omitempty"`
	Quality int    `json:"quality,omitempty"`

	// Cache options
	NoCache bool          `json:"no_cache,omitempty"`
	TTL     time.Duration `json:"-"`

	// Runtime options (not serialized)
	Source string      `json:"-"`
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Input) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "input image is required")
	}
	if len(o.Input) > MaxInputBytes {
		return errs.New(errs.ErrCodeInvalidInput, "input image too large (%d bytes, max %d)", len(o.Input), MaxInputBytes)
	}
	if err := imgio.CheckDimensions(o.Input); err != nil {
		return err
	}
	if err := o.Recipe.Validate(); err != nil {
		return err
	}

	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if err := errs.ValidateFormat(o.Format, imgio.Formats); err != nil {
		return err
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.Quality < 1 || o.Quality > 100 {
		return errs.New(errs.ErrCodeInvalidInput, "quality must be in [1, 100], got %d", o.Quality)
	}
	if o.Seed == 0 {
		o.Seed = o.Recipe.Seed
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.TTL == 0 {
		o.TTL = cache.DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache key options for the encoded output.
// Quality only matters for lossy formats.
func (o *Options) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Recipe: o.Recipe.Fingerprint(),
		Seed:   o.Seed,
		Format: o.Format,
	}
	if o.Format == imgio.FormatJPEG {
		opts.Quality = o.Quality
	}
	return opts
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in history and API responses.
	RunID string

	// Image is the transformed image.
	Image *pixel.Array

	// Artifact is Image encoded in Format.
	Artifact []byte
	Format   string

	// Seed is the effective seed.
	Seed uint64

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether Artifact came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Width, Height, Channels int
	Steps                   int
	DecodeTime              time.Duration
	TransformTime           time.Duration
	EncodeTime              time.Duration
	TotalTime               time.Duration
}
