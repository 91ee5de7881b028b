// Package pipeline provides the layout → compose → render pipeline for microperf.
//
// The CLI, the series builder and the HTTP API all go through this package so
// defaults, validation and caching behave the same everywhere.
//
// # Stages
//
//  1. Layout: turn one pattern's [Options] into a lattice.Result
//  2. Compose: place one or more layouts on a drawing.Document
//  3. Render: produce the requested output formats (DXF, SVG, JSON, PDF, PNG)
//
// Rendered artifacts are cached by document content and render options; the
// layout itself is cheap and always recomputed.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Diameter: 5, Spacing: 25, Angle: 60,
//	    Border: true, BorderWidth: 8.5, BorderHeight: 8.37, TabRadius: 1,
//	    Formats: []string{"dxf", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dxf := result.Artifacts["dxf"]
//
// Run individual stages:
//
//	res, err := runner.Layout(ctx, opts)
//	doc, err := runner.Compose(ctx, "series-a", optsA, optsB)
//	artifacts, err := runner.Render(ctx, doc, renderOpts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/cache"
	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/lattice"
	"github.com/matzehuels/microperf/pkg/sink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Series Files
// =============================================================================

const (
	// DefaultGridWidth is the horizontal span covered by holes, in mm.
	DefaultGridWidth = 4.25

	// DefaultGridHeight is the vertical span covered by holes, in mm.
	DefaultGridHeight = 3.25

	// DefaultScale is the PNG zoom factor.
	DefaultScale = sink.DefaultPNGScale
)

// Format constants for output formats.
const (
	FormatDXF  = "dxf"
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// DefaultFormat is written when no format is requested.
const DefaultFormat = FormatDXF

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDXF:  true,
	FormatSVG:  true,
	FormatJSON: true,
	FormatPDF:  true,
	FormatPNG:  true,
}

var contentTypes = map[string]string{
	FormatDXF:  "image/vnd.dxf",
	FormatSVG:  "image/svg+xml",
	FormatJSON: "application/json",
	FormatPDF:  "application/pdf",
	FormatPNG:  "image/png",
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options describes one perforation pattern and how to render it.
// The same struct is decoded from CLI flags, series files (TOML) and API
// request bodies (JSON).
type Options struct {
	// Pattern identity
	Name string `json:"name,omitempty" toml:"name"`

	// Lattice
	Diameter   float64 `json:"diameter" toml:"diameter"` // µm
	Spacing    float64 `json:"spacing" toml:"spacing"`   // µm
	Angle      float64 `json:"angle,omitempty" toml:"angle"`
	GridWidth  float64 `json:"grid_width,omitempty" toml:"grid_width"`   // mm, 0 = DefaultGridWidth
	GridHeight float64 `json:"grid_height,omitempty" toml:"grid_height"` // mm, 0 = DefaultGridHeight
	OffsetX    float64 `json:"offset_x,omitempty" toml:"offset_x"`
	OffsetY    float64 `json:"offset_y,omitempty" toml:"offset_y"`

	// Border
	Border       bool    `json:"border,omitempty" toml:"border"`
	BorderWidth  float64 `json:"border_width,omitempty" toml:"border_width"`
	BorderHeight float64 `json:"border_height,omitempty" toml:"border_height"`
	TabRadius    float64 `json:"tab_radius,omitempty" toml:"tab_radius"`

	// Label
	Label       bool    `json:"label,omitempty" toml:"label"`
	Suffix      string  `json:"suffix,omitempty" toml:"suffix"`
	LabelHeight float64 `json:"label_height,omitempty" toml:"label_height"`

	// Render options
	Formats []string `json:"formats,omitempty" toml:"formats"`
	Title   string   `json:"title,omitempty" toml:"title"`
	Scale   float64  `json:"scale,omitempty" toml:"scale"`     // PNG zoom
	Summary bool     `json:"summary,omitempty" toml:"summary"` // JSON without entities
	Refresh bool     `json:"refresh,omitempty" toml:"-"`       // bypass the artifact cache

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the composed drawing.
	Document *drawing.Document

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Patterns   int
	Holes      int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dxf, svg, json, pdf, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks.
// An empty string yields the default format.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{DefaultFormat}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates the options for a full
// run. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.GridWidth == 0 {
		o.GridWidth = DefaultGridWidth
	}
	if o.GridHeight == 0 {
		o.GridHeight = DefaultGridHeight
	}
	if o.Name == "" && o.Diameter > 0 && o.Spacing > 0 {
		o.Name = strings.TrimSpace(lattice.LabelText(o.Diameter, o.Spacing, ""))
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := o.Spec().Validate(); err != nil {
		return err
	}
	if b := o.BorderSpec(); b != nil {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	if o.Label {
		if err := errors.ValidateLabelText(lattice.LabelText(o.Diameter, o.Spacing, o.Suffix)); err != nil {
			return err
		}
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "scale must be positive, got %g", o.Scale)
	}
	if o.Title != "" {
		if err := errors.ValidateLabelText(o.Title); err != nil {
			return fmt.Errorf("title: %w", err)
		}
	}
	return ValidateFormats(o.Formats)
}

// Spec returns the lattice parameters.
func (o *Options) Spec() lattice.Spec {
	return lattice.Spec{
		Diameter:   o.Diameter,
		Spacing:    o.Spacing,
		Angle:      o.Angle,
		GridWidth:  o.GridWidth,
		GridHeight: o.GridHeight,
		Offset:     r2.Vec{X: o.OffsetX, Y: o.OffsetY},
	}
}

// BorderSpec returns the border parameters, or nil when no border is drawn.
func (o *Options) BorderSpec() *lattice.Border {
	if !o.Border {
		return nil
	}
	return &lattice.Border{Width: o.BorderWidth, Height: o.BorderHeight, TabRadius: o.TabRadius}
}

// LabelSpec returns the label parameters, or nil when no label is drawn.
func (o *Options) LabelSpec() *lattice.Label {
	if !o.Label {
		return nil
	}
	return &lattice.Label{Suffix: o.Suffix, Height: o.LabelHeight}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG, FormatPDF:
		k.Title = o.Title
	case FormatPNG:
		k.Title, k.Scale = o.Title, o.Scale
	case FormatJSON:
		k.Summary = o.Summary
	}
	return k
}
