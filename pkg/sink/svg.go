package sink

import (
	"bytes"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/geom"
)

// svgo works in integer user units; one millimetre is a million of them.
const unitsPerMM = 1e6

// DefaultMargin is the blank space around the drawing, in millimetres.
const DefaultMargin = 1.0

var defaultLayerStyles = map[string]string{
	drawing.LayerHoles:     "fill:black;stroke:none",
	drawing.LayerBorder:    "fill:none;stroke:black;stroke-width:20000",
	drawing.LayerText:      "fill:green;font-family:sans-serif",
	drawing.LayerReference: "fill:none;stroke:blue;stroke-width:20000",
}

const fallbackLayerStyle = "fill:none;stroke:gray;stroke-width:20000"

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	styles map[string]string
	title  string
	margin float64
}

// WithLayerStyle sets the CSS style of a layer group. Lengths are in
// nanometres (the SVG user unit).
func WithLayerStyle(layer, style string) SVGOption {
	return func(r *svgRenderer) { r.styles[layer] = style }
}

func WithTitle(title string) SVGOption { return func(r *svgRenderer) { r.title = title } }

func WithMargin(mm float64) SVGOption { return func(r *svgRenderer) { r.margin = math.Max(mm, 0) } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{styles: make(map[string]string, len(defaultLayerStyles)), margin: DefaultMargin}
	for k, v := range defaultLayerStyles {
		r.styles[k] = v
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG renders the document as SVG. The sheet is sized in millimetres so
// it prints at 1:1 scale.
func RenderSVG(doc *drawing.Document, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	b, ok := doc.Bounds()
	if !ok {
		b = r2.Box{Max: r2.Vec{X: 1, Y: 1}}
	}
	widthMM := int(math.Ceil(b.Max.X - b.Min.X + 2*r.margin))
	heightMM := int(math.Ceil(b.Max.Y - b.Min.Y + 2*r.margin))
	widthMM, heightMM = max(widthMM, 1), max(heightMM, 1)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.StartviewUnit(widthMM, heightMM, "mm",
		units(b.Min.X-r.margin), units(-b.Max.Y-r.margin),
		widthMM*unitsPerMM, heightMM*unitsPerMM)
	if r.title != "" {
		canvas.Title(r.title)
	}

	entities := doc.Entities()
	for _, layer := range doc.Layers() {
		style, ok := r.styles[layer]
		if !ok {
			style = fallbackLayerStyle
		}
		canvas.Group(`id="`+layer+`"`, style)
		for _, e := range entities {
			if e.Layer == layer {
				drawSVG(canvas, e.Primitive)
			}
		}
		canvas.Gend()
	}

	canvas.End()
	return buf.Bytes()
}

// drawSVG emits one primitive. The y axis is negated so the drawing keeps its
// upward orientation.
func drawSVG(canvas *svg.SVG, p geom.Primitive) {
	switch v := p.(type) {
	case geom.Circle:
		canvas.Circle(units(v.Center.X), units(-v.Center.Y), units(v.Radius))
	case geom.Segment:
		canvas.Line(units(v.From.X), units(-v.From.Y), units(v.To.X), units(-v.To.Y))
	case geom.Arc:
		s, e := v.Start(), v.End()
		r := units(v.Radius)
		// Counter-clockwise with y up is clockwise on screen, which SVG calls a positive sweep.
		canvas.Arc(units(s.X), units(-s.Y), r, r, 0, v.Sweep() > 180, true, units(e.X), units(-e.Y))
	case geom.Label:
		canvas.Text(units(v.Anchor.X), units(-v.Anchor.Y), v.Text, "font-size:"+strconv.Itoa(units(v.Height)))
	}
}

func units(mm float64) int {
	return int(math.Round(mm * unitsPerMM))
}
