// Package render converts SVG documents into raster and print formats.
//
// The [ToPDF] and [ToPNG] functions shell out to rsvg-convert (from librsvg).
// The sink package uses them for its PDF and PNG renderers:
//
//	svg := sink.RenderSVG(doc)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 10) // 10x zoom
//
// [Available] reports whether the converter is installed, so callers can skip
// those formats (or tests) on machines without librsvg.
package render
