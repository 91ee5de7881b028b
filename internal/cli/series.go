package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/pipeline"
	"github.com/matzehuels/microperf/pkg/series"
)

// seriesCommand creates the series command that composes many patterns onto
// one drawing.
func (c *CLI) seriesCommand() *cobra.Command {
	var (
		flags runFlags
		title string
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "series FILE.toml | BUILTIN",
		Short: "Compose a series of patterns onto one drawing",
		Long: `Compose a series of patterns onto one drawing.

The argument is either a TOML series file or the name of a bundled series
(see --list). The series file sets the default output path and formats; -o and
-f override them.`,
		Example: `  microperf series series-a
  microperf series my-series.toml -f dxf,svg -o build/my-series`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range series.BuiltinNames() {
					fmt.Fprintln(stdout, name)
				}
				return nil
			}
			return c.runSeries(cmd.Context(), args[0], title, flags)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "document title (svg, pdf, png)")
	cmd.Flags().BoolVar(&list, "list", false, "list bundled series")
	flags.register(cmd, "output file (single format) or base path (default from the series file)")

	return cmd
}

// loadSeries reads a series file, or a bundled series when arg is not a path
// to an existing file.
func loadSeries(arg string) (*series.File, string, error) {
	if _, err := os.Stat(arg); err == nil || strings.HasSuffix(arg, ".toml") {
		s, err := series.Load(arg)
		return s, strings.TrimSuffix(arg, filepath.Ext(arg)), err
	}
	s, err := series.Builtin(arg)
	return s, arg, err
}

func (c *CLI) runSeries(ctx context.Context, arg, title string, flags runFlags) error {
	s, fallback, err := loadSeries(arg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache, flags.cacheLoc)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d patterns...", len(s.Patterns)))
	spinner.Start()
	start := time.Now()
	doc, err := s.Build(ctx, runner)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	c.Logger.Debug("composed series",
		"name", doc.Name(),
		"patterns", len(doc.Patterns()),
		"holes", doc.Count(drawing.LayerHoles),
		"duration", time.Since(start))

	opts := pipeline.Options{
		Formats: s.Formats,
		Title:   title,
		Refresh: flags.refresh,
		Logger:  c.Logger,
	}
	if flags.formats != "" {
		opts.Formats = pipeline.ParseFormats(flags.formats)
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.DefaultFormat}
	}

	spinner.Update(fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	prog := newProgress(c.Logger)
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %s", strings.Join(opts.Formats, ", ")))

	output := flags.output
	if output == "" && s.Output != "" {
		// The file's output path is used as-is only when its extension matches.
		if len(opts.Formats) == 1 && strings.TrimPrefix(filepath.Ext(s.Output), ".") == opts.Formats[0] {
			output = s.Output
		} else {
			fallback = basePath(s.Output, fallback)
		}
	}
	written, err := writeArtifacts(artifacts, opts.Formats, outputPaths(output, fallback, opts.Formats))
	if err != nil {
		return err
	}

	c.record(ctx, flags, doc, opts.Formats, written)

	if toStdout(written) {
		return nil
	}
	printSuccess("Built series %s", StyleHighlight.Render(doc.Name()))
	printStats(len(doc.Patterns()), doc.Count(drawing.LayerHoles), cached)
	for _, p := range written {
		printFile(p)
	}
	return nil
}
