package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/sink"
)

// Render produces one output format of a document. It does not consult the
// cache; use [Runner.Render] for that.
func Render(ctx context.Context, doc *drawing.Document, format string, opts Options) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatDXF:
		data, err = sink.RenderDXF(doc)
	case FormatSVG:
		data = sink.RenderSVG(doc, svgOptions(opts)...)
	case FormatJSON:
		var jsonOpts []sink.JSONOption
		if opts.Summary {
			jsonOpts = append(jsonOpts, sink.WithJSONSummary())
		}
		data, err = sink.RenderJSON(doc, jsonOpts...)
	case FormatPDF:
		data, err = sink.RenderPDF(ctx, doc, sink.WithPDFSVGOptions(svgOptions(opts)...))
	case FormatPNG:
		scale := opts.Scale
		if scale == 0 {
			scale = DefaultScale
		}
		data, err = sink.RenderPNG(ctx, doc,
			sink.WithPNGSVGOptions(svgOptions(opts)...),
			sink.WithScale(scale))
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return data, nil
}

// RenderAll renders every requested format without caching.
func RenderAll(ctx context.Context, doc *drawing.Document, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := Render(ctx, doc, format, opts)
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func svgOptions(opts Options) []sink.SVGOption {
	if opts.Title == "" {
		return nil
	}
	return []sink.SVGOption{sink.WithTitle(opts.Title)}
}
