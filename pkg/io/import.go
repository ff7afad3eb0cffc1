package io

import (
	"bytes"
	"image"
	"io"
	"os"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/pixel"
)

// MaxPixels bounds width*height of a decoded image.
const MaxPixels = 50_000_000

// Decode reads an image from r and returns it as a pixel array together
// with the detected format name ("png", "jpeg", "gif", "bmp", "tiff" or
// "webp"). Decode does not close r.
func Decode(r io.Reader) (*pixel.Array, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "read image")
	}
	return DecodeBytes(data)
}

// DecodeBytes is [Decode] over an in-memory encoded image.
//
// The header is checked before any pixel data is decoded: images larger
// than [MaxPixels] fail with INVALID_INPUT.
func DecodeBytes(data []byte) (*pixel.Array, string, error) {
	if len(data) == 0 {
		return nil, "", errs.New(errs.ErrCodeInvalidInput, "empty image data")
	}
	if err := CheckDimensions(data); err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeInvalidInput, err, "decode image")
	}
	if img.Bounds().Empty() {
		return nil, "", errs.New(errs.ErrCodeInvalidInput, "image has no pixels")
	}
	return pixel.FromImage(img), format, nil
}

// CheckDimensions reads only the image header and rejects empty images and
// images with more than [MaxPixels] pixels.
func CheckDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errs.New(errs.ErrCodeInvalidInput, "image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return errs.New(errs.ErrCodeInvalidInput, "image too large (%dx%d, max %d pixels)",
			cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}

// Import reads the image file at path.
//
// A missing file fails with FILE_NOT_FOUND; other open errors are wrapped
// with the path for context.
func Import(path string) (*pixel.Array, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "image %s not found", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	a, _, err := Decode(f)
	if err != nil {
		return nil, errs.Wrap(errs.GetCode(err), err, "import %s", path)
	}
	return a, nil
}
