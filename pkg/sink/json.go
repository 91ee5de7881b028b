package sink

import (
	"encoding/json"
	"io"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/geom"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	summary bool
}

// WithJSONSummary omits the entity list, keeping only counts, bounds and
// pattern summaries. Full hole lists run to tens of thousands of entries.
func WithJSONSummary() JSONOption { return func(r *jsonRenderer) { r.summary = true } }

type jsonOutput struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Units    string        `json:"units"`
	Bounds   *jsonBox      `json:"bounds,omitempty"`
	Layers   []jsonLayer   `json:"layers"`
	Patterns []jsonPattern `json:"patterns,omitempty"`
	Entities []jsonEntity  `json:"entities,omitempty"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonBox struct {
	Min jsonPoint `json:"min"`
	Max jsonPoint `json:"max"`
}

type jsonLayer struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type jsonPattern struct {
	Name    string  `json:"name"`
	Rows    int     `json:"rows"`
	Columns int     `json:"columns"`
	Holes   int     `json:"holes"`
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
	XOff    float64 `json:"xoff"`
	Border  jsonBox `json:"border"`
}

type jsonEntity struct {
	Layer      string     `json:"layer"`
	Kind       string     `json:"kind"`
	Center     *jsonPoint `json:"center,omitempty"`
	Radius     float64    `json:"radius,omitempty"`
	From       *jsonPoint `json:"from,omitempty"`
	To         *jsonPoint `json:"to,omitempty"`
	StartAngle *float64   `json:"start_angle,omitempty"`
	EndAngle   *float64   `json:"end_angle,omitempty"`
	Anchor     *jsonPoint `json:"anchor,omitempty"`
	Text       string     `json:"text,omitempty"`
	Height     float64    `json:"height,omitempty"`
}

// RenderJSON exports the document as pretty-printed JSON: content ID, layer
// counts, bounds, pattern summaries and (unless [WithJSONSummary]) every entity.
func RenderJSON(doc *drawing.Document, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		ID:    doc.ID(),
		Name:  doc.Name(),
		Units: "mm",
	}
	if b, ok := doc.Bounds(); ok {
		jb := toJSONBox(b)
		out.Bounds = &jb
	}
	out.Layers = make([]jsonLayer, 0, len(doc.Layers()))
	for _, name := range doc.Layers() {
		out.Layers = append(out.Layers, jsonLayer{Name: name, Count: doc.Count(name)})
	}
	for _, p := range doc.Patterns() {
		out.Patterns = append(out.Patterns, jsonPattern{
			Name:    p.Name,
			Rows:    p.Rows,
			Columns: p.Columns,
			Holes:   p.Holes,
			DX:      p.Pitch.DX,
			DY:      p.Pitch.DY,
			XOff:    p.Pitch.XOff,
			Border:  toJSONBox(p.Border),
		})
	}
	if !r.summary {
		entities := doc.Entities()
		out.Entities = make([]jsonEntity, 0, len(entities))
		for _, e := range entities {
			out.Entities = append(out.Entities, toJSONEntity(e))
		}
	}

	return json.MarshalIndent(out, "", "  ")
}

func toJSONPoint(v r2.Vec) *jsonPoint { return &jsonPoint{X: v.X, Y: v.Y} }

func toJSONBox(b r2.Box) jsonBox {
	return jsonBox{Min: *toJSONPoint(b.Min), Max: *toJSONPoint(b.Max)}
}

func toJSONEntity(e drawing.Entity) jsonEntity {
	je := jsonEntity{Layer: e.Layer, Kind: e.Primitive.Kind().String()}
	switch p := e.Primitive.(type) {
	case geom.Circle:
		je.Center, je.Radius = toJSONPoint(p.Center), p.Radius
	case geom.Segment:
		je.From, je.To = toJSONPoint(p.From), toJSONPoint(p.To)
	case geom.Arc:
		start, end := p.StartAngle, p.EndAngle
		je.Center, je.Radius = toJSONPoint(p.Center), p.Radius
		je.StartAngle, je.EndAngle = &start, &end
	case geom.Label:
		je.Anchor, je.Text, je.Height = toJSONPoint(p.Anchor), p.Text, p.Height
	}
	return je
}

// DecodeJSON reads a document written by [RenderJSON]. Pattern summaries are
// not restored; a summary-only file decodes to an empty document.
func DecodeJSON(r io.Reader) (*drawing.Document, error) {
	var in jsonOutput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode drawing json")
	}

	doc := drawing.New(in.Name)
	for i, je := range in.Entities {
		prim, err := fromJSONEntity(je)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "entity %d", i)
		}
		if err := doc.Add(je.Layer, prim); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "entity %d", i)
		}
	}
	return doc, nil
}

func fromJSONEntity(je jsonEntity) (geom.Primitive, error) {
	vec := func(p *jsonPoint) r2.Vec {
		if p == nil {
			return r2.Vec{}
		}
		return r2.Vec{X: p.X, Y: p.Y}
	}
	deref := func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	}

	switch je.Kind {
	case geom.KindCircle.String():
		return geom.Circle{Center: vec(je.Center), Radius: je.Radius}, nil
	case geom.KindSegment.String():
		return geom.Segment{From: vec(je.From), To: vec(je.To)}, nil
	case geom.KindArc.String():
		return geom.Arc{Center: vec(je.Center), Radius: je.Radius, StartAngle: deref(je.StartAngle), EndAngle: deref(je.EndAngle)}, nil
	case geom.KindLabel.String():
		return geom.Label{Anchor: vec(je.Anchor), Text: je.Text, Height: je.Height}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown entity kind %q", je.Kind)
}
