package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/microperf/pkg/archive"
	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/pipeline"
)

const (
	// defaultCLIGrid is the grid span (mm) used by generate when none is given.
	defaultCLIGrid = 1.0

	// defaultOutputBase names output files when -o is not given.
	defaultOutputBase = "out"
)

// runFlags are the cache, archive and output flags shared by generate and series.
type runFlags struct {
	output    string
	formats   string
	noCache   bool
	refresh   bool
	cacheLoc  string
	archive   string
	noArchive bool
}

func (f *runFlags) register(cmd *cobra.Command, outputHelp string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", outputHelp)
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): dxf (default), svg, json, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "re-render even when cached")
	cmd.Flags().StringVar(&f.cacheLoc, "cache", "", "cache location: directory, redis:// URL, or none (default ~/.cache/microperf)")
	cmd.Flags().StringVar(&f.archive, "archive", "", "run history: directory or mongodb:// URI (default $MICROPERF_ARCHIVE or ~/.local/share/microperf/runs)")
	cmd.Flags().BoolVar(&f.noArchive, "no-archive", false, "do not record this run")
}

// generateCommand creates the generate command for a single pattern.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		flags        runFlags
		borderWidth  float64
		borderHeight float64
	)
	opts := pipeline.Options{
		GridWidth:  defaultCLIGrid,
		GridHeight: defaultCLIGrid,
	}

	cmd := &cobra.Command{
		Use:   "generate DIAMETER SPACING",
		Short: "Generate one perforation pattern",
		Long: `Generate one perforation pattern.

DIAMETER and SPACING are in micrometres; every other length is in millimetres.
An angle of 0 gives an orthogonal lattice, any other angle below 90 a staggered
one. A border is drawn when --border-width or --border-height is given; one
alone makes it square.`,
		Example: `  microperf generate 5 25
  microperf generate 5 25 -a 60 --grid-width 4.25 --grid-height 3.25 \
      --border-width 8.5 --border-height 8.37 --tab 1 --label --suffix A -o hex.dxf
  microperf generate 10 20 -f dxf,svg -o tiles/10-20`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if opts.Diameter, err = parseMicrons("diameter", args[0]); err != nil {
				return err
			}
			if opts.Spacing, err = parseMicrons("spacing", args[1]); err != nil {
				return err
			}
			// Options treat a zero grid as unset; on the command line it is an error.
			for _, name := range []string{"grid-width", "grid-height"} {
				if err := requirePositive(cmd, name); err != nil {
					return err
				}
			}

			// No size means no border; one size means a square.
			opts.Border = borderWidth > 0 || borderHeight > 0
			opts.BorderWidth, opts.BorderHeight = squareBorder(borderWidth, borderHeight)

			opts.Formats = pipeline.ParseFormats(flags.formats)
			opts.Refresh = flags.refresh
			return c.runGenerate(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "pattern name (default DIAMETER-SPACING)")
	cmd.Flags().Float64VarP(&opts.Angle, "angle", "a", 0, "lattice angle in degrees (0 = orthogonal, 60 = hexagonal)")
	cmd.Flags().Float64Var(&opts.GridWidth, "grid-width", opts.GridWidth, "width of the hole field (mm)")
	cmd.Flags().Float64Var(&opts.GridHeight, "grid-height", opts.GridHeight, "height of the hole field (mm)")
	cmd.Flags().Float64Var(&borderWidth, "border-width", 0, "border width (mm)")
	cmd.Flags().Float64Var(&borderHeight, "border-height", 0, "border height (mm)")
	cmd.Flags().Float64Var(&opts.TabRadius, "tab", 0, "radius of the tab cut into the top edge (mm)")
	cmd.Flags().BoolVar(&opts.Label, "label", false, "write DIAMETER-SPACING below the border")
	cmd.Flags().StringVar(&opts.Suffix, "suffix", "", "text appended to the label")
	cmd.Flags().Float64Var(&opts.LabelHeight, "label-height", 0, "label text height (mm)")
	cmd.Flags().Float64Var(&opts.OffsetX, "offset-x", 0, "x position of the pattern centre (mm)")
	cmd.Flags().Float64Var(&opts.OffsetY, "offset-y", 0, "y position of the pattern centre (mm)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "document title (svg, pdf, png)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "png zoom factor (default 10)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "json without the entity list")
	flags.register(cmd, "output file (single format) or base path (default out.<format>, - for stdout)")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, flags runFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache, flags.cacheLoc)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}

	paths := outputPaths(flags.output, defaultOutputBase, opts.Formats)
	written, err := writeArtifacts(result.Artifacts, opts.Formats, paths)
	if err != nil {
		return err
	}

	c.record(ctx, flags, result.Document, opts.Formats, written)

	if toStdout(written) {
		return nil
	}
	printSuccess("Generated %s", StyleHighlight.Render(result.Document.Name()))
	printStats(result.Stats.Patterns, result.Stats.Holes, result.CacheInfo.RenderHit)
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// record saves a run to the history. Failures are logged, not returned.
func (c *CLI) record(ctx context.Context, flags runFlags, doc *drawing.Document, formats, outputs []string) {
	if flags.noArchive {
		return
	}
	logger := loggerFromContext(ctx)
	store, err := openArchive(ctx, flags.archive)
	if err != nil {
		logger.Warn("history unavailable", "err", err)
		return
	}
	defer store.Close(ctx)

	rec := archive.NewRecord(doc, sourceCLI, formats, outputs)
	if err := store.Save(ctx, rec); err != nil {
		logger.Warn("could not record run", "err", err)
		return
	}
	logger.Debug("recorded run", "id", rec.ID)
}

func parseMicrons(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "%s: %q is not a number", name, s)
	}
	return v, nil
}

// requirePositive rejects an explicitly given length flag that is not positive.
func requirePositive(cmd *cobra.Command, name string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return err
	}
	if !(v > 0) {
		return errors.New(errors.ErrCodeInvalidParameter, "--%s must be positive, got %g", name, v)
	}
	return nil
}

// squareBorder fills a missing border dimension from the other one.
func squareBorder(w, h float64) (float64, float64) {
	if w == 0 {
		w = h
	}
	if h == 0 {
		h = w
	}
	return w, h
}
