package io

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/pixel"
)

// Output format names.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// Formats lists the supported output formats.
var Formats = []string{FormatPNG, FormatJPEG, FormatBMP, FormatTIFF}

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 90

var formatFromExt = map[string]string{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".bmp":  FormatBMP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
}

var contentTypes = map[string]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
}

// FormatFromPath maps a file extension to an output format.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatFromExt[ext]; ok {
		return f, nil
	}
	return "", errs.New(errs.ErrCodeInvalidFormat, "cannot infer image format from %q", path)
}

// Extension returns the preferred file extension for format, including
// the dot. Unknown formats yield "".
func Extension(format string) string {
	switch format {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG, FormatBMP, FormatTIFF:
		return "." + format
	}
	return ""
}

// ContentType returns the MIME type for format, or application/octet-stream.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Encode writes a in the given format. quality applies to JPEG only; values
// outside 1-100 fall back to [DefaultQuality].
func Encode(w io.Writer, a *pixel.Array, format string, quality int) error {
	if err := errs.ValidateFormat(format, Formats); err != nil {
		return err
	}
	img := a.ToImage()

	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultQuality
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatBMP:
		err = bmp.Encode(w, img)
	case FormatTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// EncodeBytes is [Encode] into a new byte slice.
func EncodeBytes(a *pixel.Array, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, a, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export writes a to path in the format implied by its extension.
func Export(a *pixel.Array, path string, quality int) error {
	if err := errs.ValidatePath(path); err != nil {
		return err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, a, format, quality); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
