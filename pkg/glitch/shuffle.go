package glitch

import (
	"github.com/matzehuels/trip/pkg/block"
	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/pixel"
)

// BlockShuffle scrambles the blocks of one channel.
//
// Two coordinate streams of length BlocksX*BlocksY are built by repetition,
// xs = [0 0 ... 1 1 ...] (each block-x index BlocksY times) and
// ys = [0 0 ... 1 1 ...] (each block-y index BlocksX times), and shuffled
// independently. Output block (bx, by) of the selected channel is input
// block (xs[n], ys[n]) with n = bx*BlocksY + by. The mapping is not a
// permutation of blocks: some source blocks repeat and others vanish.
// Every other channel keeps its blocks in place.
//
// The result has the input's shape trimmed to whole blocks. a is not
// modified.
func BlockShuffle(a *pixel.Array, channel, blockSize int, rng Source) (*pixel.Array, error) {
	if err := errs.ValidateChannel(channel, a.Channels); err != nil {
		return nil, err
	}
	src, err := block.ToBlocks(a, blockSize)
	if err != nil {
		return nil, err
	}

	n := src.BlocksX * src.BlocksY
	xs := repeatIndices(src.BlocksX, src.BlocksY)
	ys := repeatIndices(src.BlocksY, src.BlocksX)
	rng.Shuffle(n, func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	rng.Shuffle(n, func(i, j int) { ys[i], ys[j] = ys[j], ys[i] })

	out := src.Clone()
	for bx := range src.BlocksX {
		for by := range src.BlocksY {
			k := bx*src.BlocksY + by
			copyChannelBlock(out, bx, by, src, xs[k], ys[k], channel)
		}
	}
	return block.FromBlocks(out), nil
}

// repeatIndices returns 0..n-1 with every index repeated times times in a row.
func repeatIndices(n, times int) []int {
	out := make([]int, 0, n*times)
	for i := range n {
		for range times {
			out = append(out, i)
		}
	}
	return out
}

// copyChannelBlock copies channel c of block (sx, sy) in src to block
// (dx, dy) in dst.
func copyChannelBlock(dst *block.Grid, dx, dy int, src *block.Grid, sx, sy, c int) {
	for i := range src.Size {
		for j := range src.Size {
			dst.Set(dx, i, dy, j, c, src.At(sx, i, sy, j, c))
		}
	}
}
