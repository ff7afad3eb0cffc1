// Package glitch implements the two block glitch transforms.
//
// # Channel Shuffle
//
// [BlockShuffle] partitions an image into square blocks and scrambles the
// block positions of a single channel, leaving the other channels in place.
// The result is the familiar misregistered color-plane look:
//
//	out, err := glitch.BlockShuffle(a, 0, 16, rng) // red plane, 16px blocks
//
// # Streaks
//
// [RepeatPixels] simulates corrupted scanlines: along one axis of the block
// grid it repeats a block's second-to-last row (or column) over every block
// that follows, starting at randomly drawn origins:
//
//	out, err := glitch.RepeatPixels(a, glitch.StreakOptions{
//	    Axis:             0,
//	    BlockSize:        128,
//	    PercentCorrupted: 0.45,
//	    MarginCorrupted:  0.33,
//	}, rng)
//
// # Randomness
//
// Every call takes an explicit [Source]. Seed one with [NewSource] for
// reproducible output: equal seeds and arguments give byte-identical
// results. Neither transform modifies its input array.
//
// # Errors
//
// Failures carry codes from package errors: INVALID_BLOCK_SIZE,
// INVALID_CHANNEL, INVALID_AXIS, INVALID_RANGE and INVALID_CORRUPTION_RANGE.
// All are detected before the first random draw.
package glitch
