package glitch

import (
	"image"

	"github.com/matzehuels/trip/pkg/pixel"
)

// ShuffleImage is [BlockShuffle] over an image handle.
func ShuffleImage(img image.Image, channel, blockSize int, rng Source) (image.Image, error) {
	out, err := BlockShuffle(pixel.FromImage(img), channel, blockSize, rng)
	if err != nil {
		return nil, err
	}
	return out.ToImage(), nil
}

// RepeatPixelsImage is [RepeatPixels] over an image handle.
func RepeatPixelsImage(img image.Image, opts StreakOptions, rng Source) (image.Image, error) {
	out, err := RepeatPixels(pixel.FromImage(img), opts, rng)
	if err != nil {
		return nil, err
	}
	return out.ToImage(), nil
}
