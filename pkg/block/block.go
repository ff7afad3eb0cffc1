// Package block converts pixel arrays to and from block grids.
//
// # Grid Layout
//
// [ToBlocks] trims an array of shape (H, W, C) to the largest multiple of
// the block size s in each spatial dimension and reinterprets the trimmed
// samples as a 5-dimensional grid of shape
//
//	(W/s, s, H/s, s, C)
//
// Grid axis 0 counts blocks along the width and axis 2 counts blocks along
// the height. The grid is a reshape of the trimmed array's flat memory, not
// a transpose: element (bx, i, by, j, c) is sample
//
//	(((bx*s+i)*(H/s)+by)*s+j)*C+c
//
// of the trimmed array. For square images this coincides with the block at
// column bx, row by. Every transform in package glitch indexes the grid
// through this convention, which fixes the visual signature of the effects.
//
// [FromBlocks] is the exact inverse and restores the trimmed (H', W', C)
// shape, so
//
//	FromBlocks(ToBlocks(a, s)) == a.Crop(s*(H/s), s*(W/s))
//
// # Ownership
//
// A [Grid] owns its sample buffer. Transforms mutate a grid freely without
// touching the caller's array.
package block

import (
	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/pixel"
)

// Grid is a block view of a trimmed pixel array.
type Grid struct {
	BlocksX  int // grid axis 0
	BlocksY  int // grid axis 2
	Size     int // block side length, grid axes 1 and 3
	Channels int // grid axis 4
	Pix      []uint8

	// shape of the trimmed source array, restored by FromBlocks
	height int
	width  int
}

// ToBlocks trims a to whole blocks of the given size and returns a grid
// holding a copy of the trimmed samples.
//
// It fails with INVALID_BLOCK_SIZE when size is not positive or larger
// than either spatial dimension.
func ToBlocks(a *pixel.Array, size int) (*Grid, error) {
	if err := errs.ValidateBlockSize(size, a.Height, a.Width); err != nil {
		return nil, err
	}
	h := size * (a.Height / size)
	w := size * (a.Width / size)
	trimmed := a.Crop(h, w)

	return &Grid{
		BlocksX:  w / size,
		BlocksY:  h / size,
		Size:     size,
		Channels: a.Channels,
		Pix:      trimmed.Pix,
		height:   h,
		width:    w,
	}, nil
}

// FromBlocks reassembles a grid into a pixel array with the trimmed shape
// of the array it was built from. The samples are copied.
func FromBlocks(g *Grid) *pixel.Array {
	out := pixel.New(g.height, g.width, g.Channels)
	copy(out.Pix, g.Pix)
	return out
}

// Shape returns the five grid dimensions (BlocksX, Size, BlocksY, Size, Channels).
func (g *Grid) Shape() [5]int {
	return [5]int{g.BlocksX, g.Size, g.BlocksY, g.Size, g.Channels}
}

// Offset returns the index into Pix of element (bx, i, by, j, c).
func (g *Grid) Offset(bx, i, by, j, c int) int {
	return (((bx*g.Size+i)*g.BlocksY+by)*g.Size+j)*g.Channels + c
}

// At returns element (bx, i, by, j, c).
func (g *Grid) At(bx, i, by, j, c int) uint8 {
	return g.Pix[g.Offset(bx, i, by, j, c)]
}

// Set stores v at element (bx, i, by, j, c).
func (g *Grid) Set(bx, i, by, j, c int, v uint8) {
	g.Pix[g.Offset(bx, i, by, j, c)] = v
}

// Row returns the Size*Channels samples of grid row i within block (bx, by).
// The slice aliases Pix.
func (g *Grid) Row(bx, i, by int) []uint8 {
	start := g.Offset(bx, i, by, 0, 0)
	return g.Pix[start : start+g.Size*g.Channels]
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := *g
	out.Pix = append([]uint8(nil), g.Pix...)
	return &out
}
