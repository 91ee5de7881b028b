// Package geom defines the vector primitives produced by the lattice engine.
//
// A [Primitive] is a closed sum type: [Circle], [Segment], [Arc] and [Label]
// are its only implementations. Consumers switch on the concrete type (or on
// [Primitive.Kind]) instead of inspecting values at runtime.
//
// All coordinates are millimetres in output space. Points are gonum r2 vectors.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind tags a primitive's variant.
type Kind int

const (
	KindCircle Kind = iota
	KindSegment
	KindArc
	KindLabel
)

// String returns the lowercase kind name used in JSON output.
func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindSegment:
		return "segment"
	case KindArc:
		return "arc"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// Primitive is one drawable value. Primitives are immutable once built.
type Primitive interface {
	Kind() Kind
	// Bounds returns the axis-aligned bounding box of the primitive.
	// Labels report a degenerate box at their anchor: text extent depends
	// on the font chosen by the renderer.
	Bounds() r2.Box
	primitive()
}

// Circle is a full circle.
type Circle struct {
	Center r2.Vec
	Radius float64
}

// Segment is a straight line from From to To.
type Segment struct {
	From, To r2.Vec
}

// Arc is a counter-clockwise circular arc from StartAngle to EndAngle, in degrees.
type Arc struct {
	Center     r2.Vec
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

// Label is a single line of text anchored at its lower-left corner.
type Label struct {
	Anchor r2.Vec
	Text   string
	Height float64
}

func (Circle) Kind() Kind  { return KindCircle }
func (Segment) Kind() Kind { return KindSegment }
func (Arc) Kind() Kind     { return KindArc }
func (Label) Kind() Kind   { return KindLabel }

func (Circle) primitive()  {}
func (Segment) primitive() {}
func (Arc) primitive()     {}
func (Label) primitive()   {}

func (c Circle) Bounds() r2.Box {
	return r2.NewBox(c.Center.X-c.Radius, c.Center.Y-c.Radius, c.Center.X+c.Radius, c.Center.Y+c.Radius)
}

func (s Segment) Bounds() r2.Box {
	return r2.NewBox(s.From.X, s.From.Y, s.To.X, s.To.Y)
}

func (l Label) Bounds() r2.Box {
	return r2.Box{Min: l.Anchor, Max: l.Anchor}
}

// Start returns the point at StartAngle.
func (a Arc) Start() r2.Vec { return a.pointAt(a.StartAngle) }

// End returns the point at EndAngle.
func (a Arc) End() r2.Vec { return a.pointAt(a.EndAngle) }

// Sweep returns the counter-clockwise sweep in degrees, in (0, 360].
func (a Arc) Sweep() float64 {
	s := math.Mod(a.EndAngle-a.StartAngle, 360)
	if s <= 0 {
		s += 360
	}
	return s
}

// Bounds covers both end points and every axis extreme the arc passes through.
func (a Arc) Bounds() r2.Box {
	b := r2.NewBox(a.Start().X, a.Start().Y, a.End().X, a.End().Y)
	sweep := a.Sweep()
	for q := 0.0; q < 360; q += 90 {
		d := math.Mod(q-a.StartAngle, 360)
		if d < 0 {
			d += 360
		}
		if d <= sweep {
			b = Union(b, r2.Box{Min: a.pointAt(q), Max: a.pointAt(q)})
		}
	}
	return b
}

func (a Arc) pointAt(deg float64) r2.Vec {
	rad := deg * math.Pi / 180
	return r2.Vec{
		X: a.Center.X + a.Radius*math.Cos(rad),
		Y: a.Center.Y + a.Radius*math.Sin(rad),
	}
}

// Union returns the smallest box enclosing a and b. Unlike r2.Box.Union it
// keeps zero-area boxes, which is what a vertical segment or a point has.
func Union(a, b r2.Box) r2.Box {
	return r2.Box{
		Min: r2.Vec{X: math.Min(a.Min.X, b.Min.X), Y: math.Min(a.Min.Y, b.Min.Y)},
		Max: r2.Vec{X: math.Max(a.Max.X, b.Max.X), Y: math.Max(a.Max.Y, b.Max.Y)},
	}
}

// BoundsOf returns the union of the bounding boxes of prims.
// The second result is false when prims is empty.
func BoundsOf[P Primitive](prims []P) (r2.Box, bool) {
	if len(prims) == 0 {
		return r2.Box{}, false
	}
	b := prims[0].Bounds()
	for _, p := range prims[1:] {
		b = Union(b, p.Bounds())
	}
	return b, true
}
