// Package drawing holds the vector document that layouts are composed onto
// before being handed to a sink.
//
// A [Document] is an ordered list of primitives, each assigned to a named
// layer. It is owned by the caller: the lattice engine never touches it, and
// several layouts (plus reference geometry) can be placed on one document to
// produce a single sheet. A Document is not safe for concurrent mutation.
package drawing

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/geom"
	"github.com/matzehuels/microperf/pkg/lattice"
)

// Standard layer names.
const (
	LayerHoles     = "holes"
	LayerBorder    = "border"
	LayerText      = "text"
	LayerReference = "ref"
)

// namespace seeds document IDs so equal content always maps to the same UUID.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/microperf/drawing"))

// Entity is a primitive placed on a layer.
type Entity struct {
	Layer     string
	Primitive geom.Primitive
}

// Pattern summarises one layout added with [Document.AddLayout].
type Pattern struct {
	Name    string        `json:"name"`
	Rows    int           `json:"rows"`
	Columns int           `json:"columns"`
	Holes   int           `json:"holes"`
	Pitch   lattice.Pitch `json:"pitch"`
	Border  r2.Box        `json:"border"`
}

// Document is an in-memory drawing.
type Document struct {
	name     string
	entities []Entity
	layers   []string
	counts   map[string]int
	patterns []Pattern
}

// New returns an empty document.
func New(name string) *Document {
	return &Document{name: name, counts: make(map[string]int)}
}

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// Add appends primitives to a layer, creating the layer on first use.
func (d *Document) Add(layer string, prims ...geom.Primitive) error {
	if err := errors.ValidateLayerName(layer); err != nil {
		return err
	}
	d.add(layer, prims...)
	return nil
}

// add appends without validating the layer name.
func (d *Document) add(layer string, prims ...geom.Primitive) {
	if _, ok := d.counts[layer]; !ok {
		d.layers = append(d.layers, layer)
	}
	for _, p := range prims {
		d.entities = append(d.entities, Entity{Layer: layer, Primitive: p})
	}
	d.counts[layer] += len(prims)
}

// AddLayout places a lattice result on the standard layers: border outline on
// "border", holes row by row on "holes" and the caption on "text". The
// standard layer names are valid by construction, so nothing can fail.
func (d *Document) AddLayout(name string, res lattice.Result) {
	if len(res.Border) > 0 {
		d.add(LayerBorder, res.Border...)
	}
	for _, row := range res.Holes {
		prims := make([]geom.Primitive, len(row))
		for i, c := range row {
			prims[i] = c
		}
		d.add(LayerHoles, prims...)
	}
	for _, l := range res.Labels {
		d.add(LayerText, l)
	}
	d.patterns = append(d.patterns, Pattern{
		Name:    name,
		Rows:    res.Rows,
		Columns: res.Columns,
		Holes:   res.HoleCount(),
		Pitch:   res.Pitch,
		Border:  res.BorderBox,
	})
}

// AddRectangle draws an axis-aligned rectangle with its lower-left corner at origin.
func (d *Document) AddRectangle(layer string, origin r2.Vec, width, height float64) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "rectangle size must be positive, got %gx%g", width, height)
	}
	a := origin
	b := r2.Vec{X: origin.X + width, Y: origin.Y}
	c := r2.Vec{X: origin.X + width, Y: origin.Y + height}
	e := r2.Vec{X: origin.X, Y: origin.Y + height}
	return d.Add(layer,
		geom.Segment{From: a, To: b},
		geom.Segment{From: b, To: c},
		geom.Segment{From: c, To: e},
		geom.Segment{From: e, To: a},
	)
}

// AddText writes a single line of text.
func (d *Document) AddText(layer string, anchor r2.Vec, text string, height float64) error {
	if err := errors.ValidateLabelText(text); err != nil {
		return err
	}
	if height <= 0 {
		height = lattice.DefaultLabelHeight
	}
	return d.Add(layer, geom.Label{Anchor: anchor, Text: text, Height: height})
}

// Entities returns the entities in insertion order.
func (d *Document) Entities() []Entity {
	return append([]Entity(nil), d.entities...)
}

// Layers returns layer names in order of first use.
func (d *Document) Layers() []string {
	return append([]string(nil), d.layers...)
}

// Count returns the number of entities on a layer.
func (d *Document) Count(layer string) int { return d.counts[layer] }

// Len returns the total number of entities.
func (d *Document) Len() int { return len(d.entities) }

// Patterns returns the summaries of every layout added.
func (d *Document) Patterns() []Pattern {
	return append([]Pattern(nil), d.patterns...)
}

// Bounds returns the extent of all geometry. Labels only count when the
// document holds nothing else. The second result is false for an empty document.
func (d *Document) Bounds() (r2.Box, bool) {
	var shapes, labels []geom.Primitive
	for _, e := range d.entities {
		if e.Primitive.Kind() == geom.KindLabel {
			labels = append(labels, e.Primitive)
		} else {
			shapes = append(shapes, e.Primitive)
		}
	}
	if b, ok := geom.BoundsOf(shapes); ok {
		return b, true
	}
	return geom.BoundsOf(labels)
}

// ID returns a UUID derived from the document content. Two documents with the
// same name and entities share an ID.
func (d *Document) ID() string {
	return uuid.NewSHA1(namespace, d.canonical()).String()
}

// canonical serialises the document in a stable text form.
func (d *Document) canonical() []byte {
	var buf bytes.Buffer
	buf.WriteString(d.name)
	buf.WriteByte('\n')
	for _, e := range d.entities {
		buf.WriteString(e.Layer)
		buf.WriteByte(' ')
		buf.WriteString(e.Primitive.Kind().String())
		switch p := e.Primitive.(type) {
		case geom.Circle:
			writeFloats(&buf, p.Center.X, p.Center.Y, p.Radius)
		case geom.Segment:
			writeFloats(&buf, p.From.X, p.From.Y, p.To.X, p.To.Y)
		case geom.Arc:
			writeFloats(&buf, p.Center.X, p.Center.Y, p.Radius, p.StartAngle, p.EndAngle)
		case geom.Label:
			writeFloats(&buf, p.Anchor.X, p.Anchor.Y, p.Height)
			fmt.Fprintf(&buf, " %q", p.Text)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeFloats(buf *bytes.Buffer, vs ...float64) {
	for _, v := range vs {
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
}
