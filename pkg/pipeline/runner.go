package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/microperf/pkg/cache"
	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/lattice"
	"github.com/matzehuels/microperf/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete layout → compose → render pipeline for a single
// pattern.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	layoutStart := time.Now()
	doc, err := r.Compose(ctx, opts.Name, opts)
	if err != nil {
		return nil, err
	}
	result.Document = doc
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Patterns = len(doc.Patterns())
	result.Stats.Holes = doc.Count(drawing.LayerHoles)

	r.Logger.Info("computed layout",
		"pattern", opts.Name,
		"holes", result.Stats.Holes,
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Layout validates one pattern and computes its hole lattice, border and label.
func (r *Runner) Layout(ctx context.Context, opts Options) (lattice.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLayout(); err != nil {
		return lattice.Result{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, opts.Name)
	start := time.Now()

	res, err := lattice.Layout(opts.Spec(), opts.BorderSpec(), opts.LabelSpec())
	hooks.OnLayoutComplete(ctx, opts.Name, res.HoleCount(), time.Since(start), err)
	if err != nil {
		return lattice.Result{}, fmt.Errorf("layout %s: %w", opts.Name, err)
	}

	opts.Logger.Debug("pattern laid out",
		"pattern", opts.Name,
		"columns", res.Columns,
		"rows", res.Rows,
		"dx", res.Pitch.DX,
		"dy", res.Pitch.DY)
	return res, nil
}

// Compose lays out every pattern and places them on one document, in order.
// Patterns sharing a name are rejected so series summaries stay unambiguous.
func (r *Runner) Compose(ctx context.Context, name string, patterns ...Options) (*drawing.Document, error) {
	doc := drawing.New(name)
	seen := make(map[string]bool, len(patterns))
	for i := range patterns {
		opts := patterns[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.Layout(ctx, opts)
		if err != nil {
			return nil, err
		}
		// Layout filled in the default name on its own copy.
		opts.SetLayoutDefaults()
		if seen[opts.Name] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate pattern name %q", opts.Name)
		}
		seen[opts.Name] = true
		doc.AddLayout(opts.Name, res)
	}
	return doc, nil
}

// RenderWithCacheInfo renders the requested formats of a document and reports
// whether every artifact came from the cache.
// Artifacts are keyed by the document's content ID, so identical drawings
// share cache entries regardless of how they were produced.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc *drawing.Document, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	cacheHooks := observability.Cache()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	docID := doc.ID()
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true

	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(docID, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				cacheHooks.OnCacheHit(ctx, format)
				artifacts[format] = data
				continue
			}
			cacheHooks.OnCacheMiss(ctx, format)
		}
		allCached = false

		data, err := Render(ctx, doc, format, opts)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			cacheHooks.OnCacheSet(ctx, format, len(data))
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, allCached, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, doc *drawing.Document, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, doc, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
