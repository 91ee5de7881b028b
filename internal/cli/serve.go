package cli

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/microperf/pkg/archive"
	"github.com/matzehuels/microperf/pkg/cache"
	"github.com/matzehuels/microperf/pkg/pipeline"
	"github.com/matzehuels/microperf/pkg/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		cacheLoc string
		store    string
		prefix   string
		maxBody  int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout and render HTTP API",
		Long: `Serve the layout and render HTTP API.

Runs are kept in memory unless --archive (or $MICROPERF_ARCHIVE) names a
directory or a mongodb:// URI. Rendered artifacts are cached in the default
cache directory unless --cache names another directory or a redis:// URL.`,
		Example: `  microperf serve
  microperf serve --addr :9000 --cache redis://localhost:6379/0 --archive mongodb://localhost:27017/microperf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, cacheLoc, store, prefix, maxBody)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&cacheLoc, "cache", "", "cache location: directory, redis:// URL, or none")
	cmd.Flags().StringVar(&store, "archive", "", "run history: directory, mongodb:// URI, or memory")
	cmd.Flags().StringVar(&prefix, "cache-prefix", "", "prefix for cache keys, to share one Redis between deployments")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body size in bytes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, cacheLoc, store, prefix string, maxBody int64) error {
	artifacts, err := newCache(ctx, false, cacheLoc)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	var keyer cache.Keyer
	if prefix != "" {
		keyer = cache.NewScopedKeyer(nil, prefix)
	}
	runner := pipeline.NewRunner(artifacts, keyer, c.Logger)
	defer runner.Close()

	runs, err := archive.Open(ctx, cmp.Or(store, os.Getenv(envArchive), "memory"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer runs.Close(context.Background())

	srv := server.New(runner,
		server.WithArchive(runs),
		server.WithLogger(c.Logger),
		server.WithMaxBodyBytes(maxBody),
	)
	c.Logger.Info("listening", "addr", addr)
	return srv.ListenAndServe(ctx, addr)
}
