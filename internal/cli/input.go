package cli

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/httputil"
	imgio "github.com/matzehuels/trip/pkg/io"
	"github.com/matzehuels/trip/pkg/pipeline"
)

// outputOpts holds the output flags shared by the transform commands.
type outputOpts struct {
	output  string // file (single input) or directory (several inputs)
	format  string
	quality int
	seed    uint64
	jobs    int
}

// readInput loads src from disk or, for http(s) URLs, over the network.
func readInput(ctx context.Context, src string) ([]byte, error) {
	if httputil.IsURL(src) {
		return httputil.Fetch(ctx, nil, src, pipeline.MaxInputBytes)
	}
	if err := errs.ValidatePath(src); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(src))
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "image %s not found", src)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read %s", src)
	}
	return data, nil
}

// resolveFormat picks the output format: the explicit flag, else the
// extension of a single output file, else PNG.
func resolveFormat(format, output string, multi bool) (string, error) {
	if format != "" {
		if format == "jpg" {
			format = imgio.FormatJPEG
		}
		return format, errs.ValidateFormat(format, imgio.Formats)
	}
	if output != "" && !multi {
		return imgio.FormatFromPath(output)
	}
	return pipeline.DefaultFormat, nil
}

// outputPath names the file written for src. A single input goes to output
// when set; several inputs go into the output directory. Without -o, local
// inputs get a sibling "<name>_<suffix>.<ext>" and URLs land in the
// working directory.
func outputPath(src, output, suffix, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}

	dir, base := ".", src
	if httputil.IsURL(src) {
		if u, err := url.Parse(src); err == nil {
			base = path.Base(u.Path)
		}
	} else {
		dir, base = filepath.Dir(src), filepath.Base(src)
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}

	if output != "" {
		dir = output
	}
	return filepath.Join(dir, base+"_"+suffix+imgio.Extension(format))
}

// outputPaths names the output file of every source and fails with
// INVALID_PATH when two sources would write the same file.
func outputPaths(srcs []string, output, suffix, format string) ([]string, error) {
	multi := len(srcs) > 1
	paths := make([]string, len(srcs))
	seen := make(map[string]string, len(srcs))
	for i, src := range srcs {
		p := outputPath(src, output, suffix, format, multi)
		key := filepath.Clean(p)
		if prev, ok := seen[key]; ok {
			return nil, errs.New(errs.ErrCodeInvalidPath,
				"%s and %s would both be written to %s; rename one input or write them separately", prev, src, p)
		}
		seen[key] = src
		paths[i] = p
	}
	return paths, nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
