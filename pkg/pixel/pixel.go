// Package pixel provides the 3-dimensional sample array the block
// transforms operate on.
//
// An [Array] has shape (Height, Width, Channels) and stores 8-bit samples
// row-major in a flat slice: the sample for row y, column x and channel c
// lives at Pix[(y*Width+x)*Channels+c]. Channels is typically 1 (gray),
// 3 (RGB) or 4 (RGBA).
//
// Arrays convert to and from the standard library's [image.Image] with
// [FromImage] and [Array.ToImage]; file formats are handled by package io.
package pixel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// Array is a dense (Height, Width, Channels) array of 8-bit samples.
type Array struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed array with the given shape.
func New(height, width, channels int) *Array {
	return &Array{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}
}

// FromPix wraps pix as an array of the given shape. The slice is not copied.
func FromPix(height, width, channels int, pix []uint8) (*Array, error) {
	if height < 0 || width < 0 || channels <= 0 {
		return nil, fmt.Errorf("pixel: invalid shape (%d, %d, %d)", height, width, channels)
	}
	if len(pix) != height*width*channels {
		return nil, fmt.Errorf("pixel: %d samples do not fill shape (%d, %d, %d)", len(pix), height, width, channels)
	}
	return &Array{Height: height, Width: width, Channels: channels, Pix: pix}, nil
}

// Shape returns (Height, Width, Channels).
func (a *Array) Shape() (height, width, channels int) {
	return a.Height, a.Width, a.Channels
}

// Offset returns the index into Pix of sample (y, x, c).
func (a *Array) Offset(y, x, c int) int {
	return (y*a.Width+x)*a.Channels + c
}

// At returns sample (y, x, c).
func (a *Array) At(y, x, c int) uint8 {
	return a.Pix[a.Offset(y, x, c)]
}

// Set stores v at sample (y, x, c).
func (a *Array) Set(y, x, c int, v uint8) {
	a.Pix[a.Offset(y, x, c)] = v
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := *a
	out.Pix = bytes.Clone(a.Pix)
	return &out
}

// Crop returns a copy of the top-left height x width region.
// Dimensions larger than the array are clamped.
func (a *Array) Crop(height, width int) *Array {
	height = max(0, min(height, a.Height))
	width = max(0, min(width, a.Width))
	out := New(height, width, a.Channels)
	rowLen := width * a.Channels
	for y := range height {
		src := a.Offset(y, 0, 0)
		copy(out.Pix[y*rowLen:(y+1)*rowLen], a.Pix[src:src+rowLen])
	}
	return out
}

// Equal reports whether a and b have the same shape and samples.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Height == b.Height && a.Width == b.Width && a.Channels == b.Channels &&
		bytes.Equal(a.Pix, b.Pix)
}

// String describes the array's shape.
func (a *Array) String() string {
	return fmt.Sprintf("pixel.Array(%d, %d, %d)", a.Height, a.Width, a.Channels)
}

// FromImage copies img into a new array.
//
// Gray images produce one channel. Sources with an alpha channel
// (*image.NRGBA, *image.NRGBA64, *image.NYCbCrA) always produce four
// (non-premultiplied RGBA), even when every pixel is opaque. Other images
// produce three channels (RGB) when opaque and four otherwise.
func FromImage(img image.Image) *Array {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if gray, ok := img.(*image.Gray); ok {
		out := New(h, w, 1)
		for y := range h {
			src := gray.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*w:(y+1)*w], gray.Pix[src:src+w])
		}
		return out
	}

	channels := 4
	if !hasAlpha(img) && isOpaque(img) {
		channels = 3
	}
	out := New(h, w, channels)

	// Fast path for NRGBA images
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range h {
			src := nrgba.PixOffset(b.Min.X, b.Min.Y+y)
			copyRow(out.Pix[y*w*channels:(y+1)*w*channels], nrgba.Pix[src:src+w*4], channels)
		}
		return out
	}

	// Opaque RGBA has identical premultiplied and straight values
	if rgba, ok := img.(*image.RGBA); ok && channels == 3 {
		for y := range h {
			src := rgba.PixOffset(b.Min.X, b.Min.Y+y)
			copyRow(out.Pix[y*w*3:(y+1)*w*3], rgba.Pix[src:src+w*4], 3)
		}
		return out
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			if channels == 4 {
				out.Pix[i+3] = c.A
			}
			i += channels
		}
	}
	return out
}

// copyRow copies 4-sample RGBA pixels from src into dst, keeping the first
// channels samples of each pixel.
func copyRow(dst, src []uint8, channels int) {
	if channels == 4 {
		copy(dst, src)
		return
	}
	for s, d := 0, 0; s < len(src); s, d = s+4, d+channels {
		copy(dst[d:d+channels], src[s:s+channels])
	}
}

// hasAlpha reports whether img stores straight alpha per pixel, as decoders
// return for PNG, TIFF and WebP inputs with an alpha channel.
func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return true
	}
	return false
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// ToImage converts the array to an image with bounds (0, 0, Width, Height).
//
// One channel yields *image.Gray, three channels yield an opaque
// *image.RGBA and four channels yield *image.NRGBA. Two-channel arrays are
// treated as gray plus alpha.
func (a *Array) ToImage() image.Image {
	rect := image.Rect(0, 0, a.Width, a.Height)
	if a.Channels == 1 {
		img := image.NewGray(rect)
		copy(img.Pix, a.Pix)
		return img
	}

	if a.Channels == 3 {
		img := image.NewRGBA(rect)
		for p := range a.Width * a.Height {
			dst := img.Pix[p*4 : p*4+4]
			dst[0], dst[1], dst[2], dst[3] = a.Pix[p*3], a.Pix[p*3+1], a.Pix[p*3+2], 0xff
		}
		return img
	}

	img := image.NewNRGBA(rect)
	n := a.Width * a.Height
	for p := range n {
		src := a.Pix[p*a.Channels : (p+1)*a.Channels]
		dst := img.Pix[p*4 : p*4+4]
		switch a.Channels {
		case 2:
			dst[0], dst[1], dst[2], dst[3] = src[0], src[0], src[0], src[1]
		default:
			copy(dst, src[:4])
		}
	}
	return img
}
