// Package recipe describes chains of glitch transforms.
//
// A [Recipe] is a named, seeded list of [Step] values. Recipes are written
// in TOML:
//
//	[[recipe]]
//	name = "streak-shuffle"
//	seed = 1
//
//	[[recipe.step]]
//	op = "streak"
//	axis = 0
//	block_size = 128
//	percent_corrupted = 0.45
//	margin_corrupted = 0.33
//
//	[[recipe.step]]
//	op = "shuffle"
//	channel = 0
//	block_size = 16
//
// Steps run in order, each consuming the previous step's output and
// drawing from one shared random source. Running a recipe twice with the
// same seed reproduces its output exactly.
package recipe

import (
	"fmt"
	"strings"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/glitch"
	"github.com/matzehuels/trip/pkg/pixel"
)

// Op names a transform.
type Op string

const (
	OpShuffle Op = "shuffle" // glitch.BlockShuffle
	OpStreak  Op = "streak"  // glitch.RepeatPixels
)

// Step is one transform with its parameters. Fields that do not apply to
// the step's op are ignored.
type Step struct {
	Op               Op      `toml:"op" json:"op"`
	Channel          int     `toml:"channel,omitempty" json:"channel,omitempty"`
	BlockSize        int     `toml:"block_size" json:"block_size"`
	Axis             int     `toml:"axis,omitempty" json:"axis,omitempty"`
	PercentCorrupted float64 `toml:"percent_corrupted,omitempty" json:"percent_corrupted,omitempty"`
	MarginCorrupted  float64 `toml:"margin_corrupted,omitempty" json:"margin_corrupted,omitempty"`
}

// Shuffle returns a channel shuffle step.
func Shuffle(channel, blockSize int) Step {
	return Step{Op: OpShuffle, Channel: channel, BlockSize: blockSize}
}

// Streak returns a streak step.
func Streak(axis, blockSize int, percent, margin float64) Step {
	return Step{Op: OpStreak, Axis: axis, BlockSize: blockSize, PercentCorrupted: percent, MarginCorrupted: margin}
}

// StreakOptions converts a streak step to glitch options.
func (s Step) StreakOptions() glitch.StreakOptions {
	return glitch.StreakOptions{
		Axis:             s.Axis,
		BlockSize:        s.BlockSize,
		PercentCorrupted: s.PercentCorrupted,
		MarginCorrupted:  s.MarginCorrupted,
	}
}

// Validate checks the parameters that do not depend on image dimensions.
func (s Step) Validate() error {
	switch s.Op {
	case OpShuffle:
		if s.Channel < 0 {
			return errs.New(errs.ErrCodeInvalidChannel, "channel must be non-negative, got %d", s.Channel)
		}
		if s.BlockSize <= 0 {
			return errs.New(errs.ErrCodeInvalidBlockSize, "block size must be positive, got %d", s.BlockSize)
		}
		return nil
	case OpStreak:
		return s.StreakOptions().Validate()
	default:
		return errs.New(errs.ErrCodeInvalidRecipe, "unknown op %q (want %q or %q)", s.Op, OpShuffle, OpStreak)
	}
}

// Apply runs the step on a.
func (s Step) Apply(a *pixel.Array, rng glitch.Source) (*pixel.Array, error) {
	switch s.Op {
	case OpShuffle:
		return glitch.BlockShuffle(a, s.Channel, s.BlockSize, rng)
	case OpStreak:
		return glitch.RepeatPixels(a, s.StreakOptions(), rng)
	default:
		return nil, s.Validate()
	}
}

// String renders the step in flag-like form, e.g. "shuffle channel=0 block=16".
func (s Step) String() string {
	switch s.Op {
	case OpShuffle:
		return fmt.Sprintf("shuffle channel=%d block=%d", s.Channel, s.BlockSize)
	case OpStreak:
		return fmt.Sprintf("streak axis=%d block=%d percent=%g margin=%g",
			s.Axis, s.BlockSize, s.PercentCorrupted, s.MarginCorrupted)
	default:
		return string(s.Op)
	}
}

// Recipe is a named, seeded chain of steps.
type Recipe struct {
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description,omitempty" json:"description,omitempty"`
	Seed        uint64 `toml:"seed" json:"seed"`
	Steps       []Step `toml:"step" json:"steps"`
}

// Validate checks the name and every step. Step errors keep their code and
// are prefixed with the 1-based step number.
func (r Recipe) Validate() error {
	if err := errs.ValidateRecipeName(r.Name); err != nil {
		return err
	}
	if len(r.Steps) == 0 {
		return errs.New(errs.ErrCodeInvalidRecipe, "recipe %s has no steps", r.Name)
	}
	for i, s := range r.Steps {
		if err := s.Validate(); err != nil {
			return errs.Wrap(errs.GetCode(err), err, "recipe %s step %d", r.Name, i+1)
		}
	}
	return nil
}

// Fingerprint describes the steps independently of name and seed. Recipes
// with equal fingerprints transform images identically for a given seed.
func (r Recipe) Fingerprint() string {
	parts := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

// Apply runs the steps in order, stopping at the first error.
func (r Recipe) Apply(a *pixel.Array, rng glitch.Source) (*pixel.Array, error) {
	for i, s := range r.Steps {
		out, err := s.Apply(a, rng)
		if err != nil {
			return nil, errs.Wrap(errs.GetCode(err), err, "step %d (%s)", i+1, s.Op)
		}
		a = out
	}
	return a, nil
}
