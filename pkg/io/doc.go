// Package io decodes raster images into pixel arrays and encodes them back.
//
// # Overview
//
// The glitch transforms work on [pixel.Array] values. This package is the
// boundary to image files: it reads common formats into arrays and writes
// arrays out in a format chosen by name or file extension.
//
// # Decoding
//
// [Decode], [DecodeBytes] and [Import] accept every format registered with
// the standard image package. Importing this package registers:
//
//   - PNG, JPEG and GIF (standard library)
//   - BMP, TIFF and WebP (golang.org/x/image)
//
// Grayscale inputs decode to one channel. Inputs stored with an alpha
// channel decode to four (RGBA) and other color inputs to three (RGB).
// Headers are read first, so oversized images ([MaxPixels]) are rejected
// before their pixels are allocated.
//
// # Encoding
//
// [Encode], [EncodeBytes] and [Export] write one of [Formats]:
//
//   - png: lossless, the default
//   - jpeg: lossy, honors the quality setting (1-100)
//   - bmp: uncompressed
//   - tiff: deflate-compressed
//
// [Export] picks the format from the path's extension; [FormatFromPath]
// exposes the same mapping.
//
// # Errors
//
// Unreadable or empty input fails with INVALID_INPUT, a missing file with
// FILE_NOT_FOUND and an unknown output format with INVALID_FORMAT, all
// from package errors.
package io
