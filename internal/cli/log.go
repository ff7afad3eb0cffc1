package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trip/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Glitched 3 images (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability hooks
// =============================================================================

// logHooks reports pipeline and cache events at debug level.
type logHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l}
}

func (h *logHooks) OnRunStart(_ context.Context, recipe string, steps int) {
	h.logger.Debug("run started", "recipe", recipe, "steps", steps)
}

func (h *logHooks) OnRunComplete(_ context.Context, recipe string, dur time.Duration, err error) {
	if err != nil {
		h.logger.Debug("run failed", "recipe", recipe, "duration", dur, "error", err)
		return
	}
	h.logger.Debug("run complete", "recipe", recipe, "duration", dur)
}

func (h *logHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *logHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *logHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

// httpLogHooks logs failed requests at warn level.
type httpLogHooks struct {
	observability.NoopHTTPHooks
	logger *log.Logger
}

func newHTTPLogHooks(l *log.Logger) *httpLogHooks {
	return &httpLogHooks{logger: l}
}

func (h *httpLogHooks) OnError(_ context.Context, method, route string, err error) {
	h.logger.Warn("request error", "method", method, "route", route, "error", err)
}
