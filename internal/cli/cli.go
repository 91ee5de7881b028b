package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/microperf/pkg/archive"
	"github.com/matzehuels/microperf/pkg/buildinfo"
	"github.com/matzehuels/microperf/pkg/cache"
	"github.com/matzehuels/microperf/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "microperf"

	// sourceCLI marks archive records created by the CLI.
	sourceCLI = "cli"

	// envArchive overrides the default history location.
	envArchive = "MICROPERF_ARCHIVE"
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
		Use:   "microperf",
		Short: "Microperf generates perforation patterns as DXF drawings",
		Long: `Microperf lays out rectangular and hexagonal lattices of micro-perforation
holes, with an optional border, tab and label, and writes them as DXF for laser
cutting (or SVG, JSON, PDF and PNG for review).`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.seriesCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool, location string) (*pipeline.Runner, error) {
	cache, err := newCache(ctx, noCache, location)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache opens the cache at location, or the default cache directory when
// location is empty. An unknown home directory disables caching.
func newCache(ctx context.Context, noCache bool, location string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if location == "" {
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		location = dir
	}
	return cache.Open(ctx, location)
}

// openArchive opens the run history at uri, falling back to $MICROPERF_ARCHIVE
// and then to the default history directory.
func openArchive(ctx context.Context, uri string) (archive.Store, error) {
	if uri == "" {
		uri = os.Getenv(envArchive)
	}
	if uri == "" {
		dir, err := historyDir()
		if err != nil {
			return archive.NewMemoryStore(), nil
		}
		uri = dir
	}
	return archive.Open(ctx, uri)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/microperf/).
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

// historyDir returns the run history directory using XDG standard
// (~/.local/share/microperf/runs/).
func historyDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "runs"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "runs"), nil
}
