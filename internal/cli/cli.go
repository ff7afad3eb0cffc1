// Package cli implements the trip command-line interface.
//
// # Commands
//
//   - shuffle, streak: apply a single transform to one or more images
//   - run: apply a recipe (built-in or from a TOML file)
//   - recipe: list, show and graph recipes
//   - serve: run the HTTP API
//   - history: show recent runs
//   - cache: manage the artifact cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/trip/pkg/buildinfo"
	"github.com/matzehuels/trip/pkg/cache"
	"github.com/matzehuels/trip/pkg/history"
	"github.com/matzehuels/trip/pkg/observability"
	"github.com/matzehuels/trip/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "trip"

	// redisKeyPrefix scopes artifact keys in a shared Redis.
	redisKeyPrefix = "trip:"
)

// Environment variables providing flag defaults.
const (
	envCacheURL   = "TRIP_CACHE_URL"
	envHistoryURI = "TRIP_HISTORY_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	noCache    bool
	cacheURL   string
	historyURI string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Trip glitches images block by block",
		Long: `Trip applies reproducible block glitches to images: it shuffles one color
channel's blocks and smears streaks of repeated pixels across block runs.

Transforms are seeded, so the same input, recipe and seed always give the
same output. Results are cached locally (or in Redis with --cache-url).`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			hooks := newLogHooks(c.Logger)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the artifact cache")
	root.PersistentFlags().StringVar(&c.cacheURL, "cache-url", os.Getenv(envCacheURL), "Redis URL for a shared artifact cache (env "+envCacheURL+")")
	root.PersistentFlags().StringVar(&c.historyURI, "history-uri", os.Getenv(envHistoryURI), "MongoDB URI for run history (env "+envHistoryURI+")")

	// Register all subcommands
	root.AddCommand(c.shuffleCommand())
	root.AddCommand(c.streakCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.recipeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. fallback is the history
// store used when no --history-uri is configured; nil means no history.
// The returned function releases the cache and history connections.
func (c *CLI) newRunner(ctx context.Context, fallback history.Store) (*pipeline.Runner, func(), error) {
	ch, keyer, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	hs, err := c.newHistory(ctx, fallback)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := hs.Close(); err != nil {
			c.Logger.Warn("close history", "error", err)
		}
		if err := ch.Close(); err != nil {
			c.Logger.Warn("close cache", "error", err)
		}
	}
	return pipeline.NewRunner(ch, keyer, hs, c.Logger), closeFn, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	switch {
	case c.noCache:
		return cache.NewNullCache(), nil, nil
	case c.cacheURL != "":
		rc, err := cache.NewRedisCache(ctx, c.cacheURL)
		if err != nil {
			return nil, nil, err
		}
		c.Logger.Debug("using redis cache", "url", c.cacheURL)
		return rc, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
	}

	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil, nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, nil, nil
}

func (c *CLI) newHistory(ctx context.Context, fallback history.Store) (history.Store, error) {
	if c.historyURI == "" {
		if fallback == nil {
			return history.NullStore{}, nil
		}
		return fallback, nil
	}
	store, err := history.NewMongoStore(ctx, c.historyURI, "", "")
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("using mongo history")
	return store, nil
}

func (c *CLI) cacheKind() string {
	switch {
	case c.noCache:
		return "disabled"
	case c.cacheURL != "":
		return "redis"
	}
	return "files"
}

func (c *CLI) historyKind() string {
	if c.historyURI != "" {
		return "mongodb"
	}
	return "memory"
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/trip/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
