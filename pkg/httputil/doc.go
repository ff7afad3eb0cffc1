// Package httputil fetches remote input images for trip.
//
// # Overview
//
//   - [Fetch]: download an image over HTTP with a size limit
//   - [Retry]: automatic retry with exponential backoff
//
// # Fetching
//
// The CLI accepts http(s) URLs wherever it accepts an input path:
//
//	data, err := httputil.Fetch(ctx, nil, "https://example.com/cat.png", pipeline.MaxInputBytes)
//
// Network errors, 5xx responses and 429 rate limits are retried. Other
// non-2xx responses fail immediately; 404 maps to FILE_NOT_FOUND.
//
// # Configuration
//
//   - Request timeout: 30 seconds (see [DefaultClient])
//   - Max attempts: 3
//   - Base backoff: 1 second
package httputil
