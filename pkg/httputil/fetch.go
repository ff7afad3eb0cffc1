package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/trip/pkg/buildinfo"
	errs "github.com/matzehuels/trip/pkg/errors"
)

// DefaultClient is used when Fetch is given a nil client.
var DefaultClient = &http.Client{Timeout: 30 * time.Second}

// IsURL reports whether s names an http(s) resource rather than a local path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads url and returns the body. Bodies larger than maxBytes are
// rejected with INVALID_INPUT; maxBytes <= 0 disables the limit.
func Fetch(ctx context.Context, client *http.Client, url string, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = DefaultClient
	}

	var body []byte
	err := RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidPath, err, "bad url %s", url)
		}
		req.Header.Set("User-Agent", buildinfo.UserAgent())
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &RetryableError{Err: fmt.Errorf("get %s: %w", url, err)}
		}
		defer resp.Body.Close()

		if err := checkStatus(url, resp.StatusCode); err != nil {
			return err
		}
		body, err = readLimited(resp.Body, maxBytes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errs.New(errs.ErrCodeFileNotFound, "%s: not found", url)
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: fmt.Errorf("get %s: status %d", url, code)}
	default:
		return errs.New(errs.ErrCodeInvalidInput, "get %s: status %d", url, code)
	}
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, errs.New(errs.ErrCodeInvalidInput, "response exceeds %d bytes", maxBytes)
	}
	return data, nil
}
