// Package sink renders a [drawing.Document] into output formats.
//
// # Formats
//
//   - DXF: ASCII DXF written with yofu/dxf, the format laser cutters and CAM
//     tools read. Lengths are millimetres; the file itself carries no unit.
//     [DecodeDXF] reads the same entity subset back with rpaloschi/dxf-go.
//   - SVG: physical size in millimetres, one group per layer, y axis up.
//   - JSON: the document as data, for the HTTP API and for debugging.
//   - PDF and PNG: the SVG converted with rsvg-convert (see [render.ToPDF]).
//
// # Usage
//
//	doc := drawing.New("series-a")
//	doc.AddLayout("a1", res)
//
//	dxf, err := sink.RenderDXF(doc)
//	svg := sink.RenderSVG(doc, sink.WithTitle("series A"))
//	pdf, err := sink.RenderPDF(ctx, doc, sink.WithPDFSVGOptions(sink.WithTitle("series A")))
//
// Renderers take functional options and never mutate the document.
//
// [drawing.Document]: github.com/matzehuels/microperf/pkg/drawing.Document
// [render.ToPDF]: github.com/matzehuels/microperf/pkg/render.ToPDF
package sink
