package sink

import (
	"io"
	"os"

	"github.com/rpaloschi/dxf-go/core"
	dxfdoc "github.com/rpaloschi/dxf-go/document"
	"github.com/rpaloschi/dxf-go/entities"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	dxfdrawing "github.com/yofu/dxf/drawing"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/geom"
)

// layerZero always exists in a DXF drawing; entities without a layer land there.
const layerZero = "0"

var defaultLayerColors = map[string]color.ColorNumber{
	drawing.LayerHoles:     color.Red,
	drawing.LayerBorder:    color.White,
	drawing.LayerText:      color.Green,
	drawing.LayerReference: color.Cyan,
}

// DXFOption configures DXF rendering.
type DXFOption func(*dxfRenderer)

type dxfRenderer struct {
	colors map[string]color.ColorNumber
}

// WithLayerColor sets the AutoCAD color index of a layer.
func WithLayerColor(layer string, c color.ColorNumber) DXFOption {
	return func(r *dxfRenderer) { r.colors[layer] = c }
}

// RenderDXF renders the document as an ASCII DXF drawing with one LAYER
// table entry per document layer. Lengths are millimetres, but the file
// carries no unit: CAM tools must import it as mm.
func RenderDXF(doc *drawing.Document, opts ...DXFOption) ([]byte, error) {
	r := dxfRenderer{colors: make(map[string]color.ColorNumber, len(defaultLayerColors))}
	for k, v := range defaultLayerColors {
		r.colors[k] = v
	}
	for _, opt := range opts {
		opt(&r)
	}

	d := dxf.NewDrawing()
	for _, name := range doc.Layers() {
		if name == layerZero {
			continue
		}
		c, ok := r.colors[name]
		if !ok {
			c = dxf.DefaultColor
		}
		if _, err := d.AddLayer(name, c, dxf.DefaultLineType, false); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "dxf layer %q", name)
		}
	}

	current := ""
	for _, e := range doc.Entities() {
		if e.Layer != current {
			if err := d.ChangeLayer(e.Layer); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "dxf layer %q", e.Layer)
			}
			current = e.Layer
		}
		if err := addEntity(d, e.Primitive); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "dxf entity on %q", e.Layer)
		}
	}
	return saveDXF(d)
}

func addEntity(d *dxfdrawing.Drawing, p geom.Primitive) error {
	var err error
	switch p := p.(type) {
	case geom.Circle:
		_, err = d.Circle(p.Center.X, p.Center.Y, 0, p.Radius)
	case geom.Segment:
		_, err = d.Line(p.From.X, p.From.Y, 0, p.To.X, p.To.Y, 0)
	case geom.Arc:
		_, err = d.Arc(p.Center.X, p.Center.Y, 0, p.Radius, p.StartAngle, p.EndAngle)
	case geom.Label:
		_, err = d.Text(p.Text, p.Anchor.X, p.Anchor.Y, 0, p.Height)
	}
	return err
}

// saveDXF serializes d. The writer only saves to a named file, so the drawing
// goes through a temporary one.
func saveDXF(d *dxfdrawing.Drawing) ([]byte, error) {
	f, err := os.CreateTemp("", "microperf-*.dxf")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := d.SaveAs(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write dxf")
	}
	return os.ReadFile(path)
}

// DecodeDXF reads the CIRCLE, LINE, ARC and TEXT entities of a DXF file into
// a document. Other entity types are skipped. Entities without a layer are
// placed on layer "0".
func DecodeDXF(r io.Reader) (*drawing.Document, error) {
	src, err := dxfdoc.DxfDocumentFromStream(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read dxf")
	}

	doc := drawing.New("")
	for _, ent := range src.Entities.Entities {
		layer, prim, ok := fromDXF(ent)
		if !ok {
			continue
		}
		if layer == "" {
			layer = layerZero
		}
		if err := doc.Add(layer, prim); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "dxf entity")
		}
	}
	return doc, nil
}

func fromDXF(ent any) (string, geom.Primitive, bool) {
	switch e := ent.(type) {
	case *entities.Circle:
		return e.LayerName, geom.Circle{Center: vec(e.Center), Radius: e.Radius}, true
	case *entities.Line:
		return e.LayerName, geom.Segment{From: vec(e.Start), To: vec(e.End)}, true
	case *entities.Arc:
		return e.LayerName, geom.Arc{
			Center:     vec(e.Center),
			Radius:     e.Radius,
			StartAngle: e.StartAngle,
			EndAngle:   e.EndAngle,
		}, true
	case *entities.Text:
		return e.LayerName, geom.Label{Anchor: vec(e.FirstAlignmentPoint), Text: e.Value, Height: e.Height}, true
	}
	return "", nil, false
}

func vec(p core.Point) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }
