package glitch

import (
	"math"

	"github.com/matzehuels/trip/pkg/block"
	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/pixel"
)

// Axis constants for [StreakOptions.Axis].
const (
	// AxisPrimaryX streaks along grid axis 0 (BlocksX), repeating the
	// second-to-last block row.
	AxisPrimaryX = 0

	// AxisPrimaryY streaks along grid axis 2 (BlocksY), repeating the
	// second-to-last block column.
	AxisPrimaryY = 1
)

// StreakOptions configures [RepeatPixels].
type StreakOptions struct {
	// Axis selects the primary (streak) axis: 0 or 1.
	Axis int

	// BlockSize is the block side length. At least 2, since the streak
	// source is the second-to-last row or column of a block.
	BlockSize int

	// PercentCorrupted places the start of the origin range at
	// ceil(nPrimary * (1 - PercentCorrupted)). Must be in [0, 1].
	PercentCorrupted float64

	// MarginCorrupted is the width of the origin range as a fraction of
	// nPrimary. Must be in [0, 1].
	MarginCorrupted float64
}

// Validate checks the parameters that do not depend on image dimensions.
func (o StreakOptions) Validate() error {
	if err := errs.ValidateAxis(o.Axis); err != nil {
		return err
	}
	if o.BlockSize < 2 {
		return errs.New(errs.ErrCodeInvalidBlockSize, "streak block size must be at least 2, got %d", o.BlockSize)
	}
	if err := errs.ValidateUnitInterval("percent corrupted", o.PercentCorrupted); err != nil {
		return err
	}
	return errs.ValidateUnitInterval("margin corrupted", o.MarginCorrupted)
}

// StreakRange returns the half-open range [start, end) of primary block
// indices streak origins are drawn from:
//
//	start = ceil(nPrimary * (1 - percent))
//	end   = ceil(nPrimary * ((1 - percent) + margin))
//
// It fails with INVALID_CORRUPTION_RANGE when end exceeds nPrimary and with
// INVALID_RANGE when the range is empty.
func StreakRange(nPrimary int, percent, margin float64) (start, end int, err error) {
	n := float64(nPrimary)
	start = int(math.Ceil(n * (1 - percent)))
	end = int(math.Ceil(n * ((1 - percent) + margin)))
	if end > nPrimary {
		return 0, 0, errs.New(errs.ErrCodeInvalidCorruptionRange,
			"percent %v and margin %v reach block %d of %d", percent, margin, end, nPrimary)
	}
	if end <= start {
		return 0, 0, errs.New(errs.ErrCodeInvalidRange, "empty streak origin range [%d, %d)", start, end)
	}
	return start, end, nil
}

// RepeatPixels smears block rows or columns forward along the primary axis.
//
// A secondary start s0 is drawn from [0, nSecondary). For each secondary
// index s in [s0, nSecondary) a primary origin k is drawn from
// [StreakRange) and the second-to-last row (axis 0) or column (axis 1) of
// block k at s is copied over every row or column of blocks k..nPrimary-1
// at s. All channels are affected.
//
// Parameters are validated before any draw or write. The result has the
// input's shape trimmed to whole blocks. a is not modified.
func RepeatPixels(a *pixel.Array, opts StreakOptions, rng Source) (*pixel.Array, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g, err := block.ToBlocks(a, opts.BlockSize)
	if err != nil {
		return nil, err
	}

	nPrimary, nSecondary := g.BlocksX, g.BlocksY
	if opts.Axis == AxisPrimaryY {
		nPrimary, nSecondary = nSecondary, nPrimary
	}
	start, end, err := StreakRange(nPrimary, opts.PercentCorrupted, opts.MarginCorrupted)
	if err != nil {
		return nil, err
	}

	first := rng.IntN(nSecondary)
	for s := first; s < nSecondary; s++ {
		k := intRange(rng, start, end)
		if opts.Axis == AxisPrimaryX {
			smearRows(g, k, s)
		} else {
			smearColumns(g, k, s)
		}
	}
	return block.FromBlocks(g), nil
}

// smearRows copies row Size-2 of block (k, by) over every row of blocks
// (k.., by).
func smearRows(g *block.Grid, k, by int) {
	value := append([]uint8(nil), g.Row(k, g.Size-2, by)...)
	for bx := k; bx < g.BlocksX; bx++ {
		for i := range g.Size {
			copy(g.Row(bx, i, by), value)
		}
	}
}

// smearColumns copies column Size-2 of block (bx, k) over every column of
// blocks (bx, k..).
func smearColumns(g *block.Grid, k, bx int) {
	c := g.Channels
	value := make([]uint8, g.Size*c)
	for i := range g.Size {
		off := g.Offset(bx, i, k, g.Size-2, 0)
		copy(value[i*c:(i+1)*c], g.Pix[off:off+c])
	}
	for by := k; by < g.BlocksY; by++ {
		for i := range g.Size {
			px := value[i*c : (i+1)*c]
			for j := range g.Size {
				off := g.Offset(bx, i, by, j, 0)
				copy(g.Pix[off:off+c], px)
			}
		}
	}
}
