package lattice

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/geom"
)

const (
	// micron converts micrometres to millimetres.
	micron = 1e-3

	// DefaultLabelHeight is the text height used when Label.Height is unset.
	DefaultLabelHeight = 1.0

	// labelInset is the distance of the label anchor from the border's
	// lower-left corner on both axes.
	labelInset = 0.5

	// MaxLatticePoints caps columns x rows of one layout, about 50 MB of
	// holes. A full-size series sheet stays far below it.
	MaxLatticePoints = 2_000_000
)

// Spec describes the hole lattice.
type Spec struct {
	Diameter   float64 // hole diameter, µm
	Spacing    float64 // centre-to-centre hole spacing, µm
	Angle      float64 // lattice angle in degrees; 0 is orthogonal
	GridWidth  float64 // horizontal span the holes must cover, mm
	GridHeight float64 // vertical span the holes must cover, mm
	Offset     r2.Vec  // centre of the pattern, mm
}

// Border describes the outline around the lattice. Width and Height of zero
// are derived from the grid; see [Spec.DefaultBorder].
type Border struct {
	Width     float64 // mm
	Height    float64 // mm
	TabRadius float64 // radius of the top-edge tab, mm; 0 draws no tab
}

// Label describes the caption written inside the border's lower-left corner.
type Label struct {
	Suffix string
	Height float64 // mm; 0 means DefaultLabelHeight
}

// Pitch holds the centre-to-centre distances of a lattice, in millimetres.
type Pitch struct {
	DX   float64 // between columns
	DY   float64 // between rows
	XOff float64 // extra horizontal shift of odd rows
}

// Result is the output of [Layout].
type Result struct {
	Border []geom.Primitive // outline segments and the optional tab arc
	Holes  [][]geom.Circle  // one slice per row, bottom row first
	Labels []geom.Label     // zero or one caption

	Pitch   Pitch
	Columns int // holes in an even row
	Rows    int
	// BorderBox is the resolved border rectangle, whether or not it was drawn.
	BorderBox r2.Box
}

// HoleRadius returns the hole radius in millimetres.
func (s Spec) HoleRadius() float64 {
	return s.Diameter / 2 * micron
}

// Staggered reports whether odd rows are offset (hexagonal lattice).
func (s Spec) Staggered() bool {
	return s.Angle > 0
}

// DefaultBorder returns the border size that just encloses the outermost
// hole edges: the grid plus one hole diameter on each axis.
func (s Spec) DefaultBorder() (width, height float64) {
	r := s.HoleRadius()
	return s.GridWidth + 2*r, s.GridHeight + 2*r
}

// Validate reports degenerate physical parameters.
func (s Spec) Validate() error {
	switch {
	case !(s.Diameter > 0):
		return errors.New(errors.ErrCodeInvalidParameter, "hole diameter must be positive, got %g", s.Diameter)
	case !(s.Spacing > 0):
		return errors.New(errors.ErrCodeInvalidParameter, "hole spacing must be positive, got %g", s.Spacing)
	case !(s.GridWidth > 0):
		return errors.New(errors.ErrCodeInvalidParameter, "grid width must be positive, got %g", s.GridWidth)
	case !(s.GridHeight > 0):
		return errors.New(errors.ErrCodeInvalidParameter, "grid height must be positive, got %g", s.GridHeight)
	case s.Angle < 0 || s.Angle >= 90 || math.IsNaN(s.Angle):
		return errors.New(errors.ErrCodeInvalidParameter, "lattice angle must be in [0, 90), got %g", s.Angle)
	}
	p := NewPitch(s.Spacing, s.Angle)
	if p.DX <= 0 || p.DY <= 0 {
		return errors.New(errors.ErrCodeInvalidParameter,
			"lattice angle %g rounds to a zero pitch (dx=%g, dy=%g)", s.Angle, p.DX, p.DY)
	}
	// Sized in floats so huge grids are rejected before any int conversion.
	cols := math.Floor(s.GridWidth/p.DX) + 1
	rows := math.Floor(s.GridHeight/p.DY) + 1
	if n := cols * rows; math.IsInf(n, 0) || math.IsNaN(n) || n > MaxLatticePoints {
		return errors.New(errors.ErrCodeInvalidParameter,
			"%gx%g mm grid at %g um spacing needs %.3g lattice points, limit is %d",
			s.GridWidth, s.GridHeight, s.Spacing, n, MaxLatticePoints)
	}
	return nil
}

// Validate reports negative border dimensions.
func (b Border) Validate() error {
	if b.Width < 0 || b.Height < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "border size must not be negative, got %gx%g", b.Width, b.Height)
	}
	if b.TabRadius < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "tab radius must not be negative, got %g", b.TabRadius)
	}
	return nil
}

// NewPitch converts a spacing in micrometres and a lattice angle in degrees
// into millimetre pitches.
func NewPitch(spacing, angle float64) Pitch {
	if angle > 0 {
		rad := angle * math.Pi / 180
		dx := spacing * round2(2*math.Cos(rad)) * micron
		dy := spacing * round2(math.Sin(rad)) * micron
		return Pitch{DX: dx, DY: dy, XOff: dx / 2}
	}
	d := spacing * micron
	return Pitch{DX: d, DY: d}
}

// round2 rounds the exact binary value of v to two decimal places, ties to
// even.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}

// Counts returns the number of columns and rows needed to cover a grid at
// pitch p, counting both boundary points. Callers must bound the grid first;
// [Spec.Validate] does.
func Counts(gridWidth, gridHeight float64, p Pitch) (columns, rows int) {
	return int(math.Floor(gridWidth/p.DX)) + 1, int(math.Floor(gridHeight/p.DY)) + 1
}

// LabelText formats the caption for a diameter/spacing pair.
func LabelText(diameter, spacing float64, suffix string) string {
	return formatNumber(diameter) + "-" + formatNumber(spacing) + " " + suffix
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Layout computes the holes, border and label of one perforation pattern.
// A nil border or label omits that part; the label is still positioned
// relative to the (default) border rectangle.
func Layout(spec Spec, border *Border, label *Label) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}
	if border != nil {
		if err := border.Validate(); err != nil {
			return Result{}, err
		}
	}

	pitch := NewPitch(spec.Spacing, spec.Angle)
	cols, rows := Counts(spec.GridWidth, spec.GridHeight, pitch)
	box := borderBox(spec, border)

	res := Result{
		Pitch:     pitch,
		Columns:   cols,
		Rows:      rows,
		BorderBox: box,
		Holes:     holes(spec, pitch, cols, rows),
	}

	if border != nil {
		res.Border = outline(box, spec.Offset.X, border.TabRadius)
	}

	if label != nil {
		h := label.Height
		if h <= 0 {
			h = DefaultLabelHeight
		}
		res.Labels = []geom.Label{{
			Anchor: r2.Vec{X: box.Min.X + labelInset, Y: box.Min.Y + labelInset},
			Text:   LabelText(spec.Diameter, spec.Spacing, label.Suffix),
			Height: h,
		}}
	}

	return res, nil
}

func holes(spec Spec, p Pitch, cols, rows int) [][]geom.Circle {
	r := spec.HoleRadius()
	stagger := spec.Staggered()
	left := spec.Offset.X - spec.GridWidth/2
	bottom := spec.Offset.Y - spec.GridHeight/2

	out := make([][]geom.Circle, rows)
	for j := range rows {
		n, shift := cols, 0.0
		if stagger && j%2 == 1 {
			n, shift = cols-1, p.XOff
		}
		y := float64(j)*p.DY + bottom
		row := make([]geom.Circle, n)
		for i := range n {
			row[i] = geom.Circle{
				Center: r2.Vec{X: float64(i)*p.DX + shift + left, Y: y},
				Radius: r,
			}
		}
		out[j] = row
	}
	return out
}

func borderBox(spec Spec, border *Border) r2.Box {
	w, h := spec.DefaultBorder()
	if border != nil {
		if border.Width > 0 {
			w = border.Width
		}
		if border.Height > 0 {
			h = border.Height
		}
	}
	return r2.Box{
		Min: r2.Vec{X: spec.Offset.X - w/2, Y: spec.Offset.Y - h/2},
		Max: r2.Vec{X: spec.Offset.X + w/2, Y: spec.Offset.Y + h/2},
	}
}

// outline draws left, right and bottom edges, then the top edge, split around
// the tab when tab > 0.
func outline(box r2.Box, centerX, tab float64) []geom.Primitive {
	left, right := box.Min.X, box.Max.X
	bottom, top := box.Min.Y, box.Max.Y

	prims := []geom.Primitive{
		geom.Segment{From: r2.Vec{X: left, Y: bottom}, To: r2.Vec{X: left, Y: top}},
		geom.Segment{From: r2.Vec{X: right, Y: bottom}, To: r2.Vec{X: right, Y: top}},
		geom.Segment{From: r2.Vec{X: left, Y: bottom}, To: r2.Vec{X: right, Y: bottom}},
	}
	if tab > 0 {
		return append(prims,
			geom.Segment{From: r2.Vec{X: left, Y: top}, To: r2.Vec{X: centerX - tab, Y: top}},
			geom.Segment{From: r2.Vec{X: centerX + tab, Y: top}, To: r2.Vec{X: right, Y: top}},
			geom.Arc{Center: r2.Vec{X: centerX, Y: top}, Radius: tab, StartAngle: 0, EndAngle: 180},
		)
	}
	return append(prims, geom.Segment{From: r2.Vec{X: left, Y: top}, To: r2.Vec{X: right, Y: top}})
}

// Primitives returns every primitive in a flat sequence: border first, then
// holes row by row, then the label.
func (r Result) Primitives() []geom.Primitive {
	out := make([]geom.Primitive, 0, len(r.Border)+r.HoleCount()+len(r.Labels))
	out = append(out, r.Border...)
	for _, row := range r.Holes {
		for _, c := range row {
			out = append(out, c)
		}
	}
	for _, l := range r.Labels {
		out = append(out, l)
	}
	return out
}

// HoleCount returns the total number of holes.
func (r Result) HoleCount() int {
	n := 0
	for _, row := range r.Holes {
		n += len(row)
	}
	return n
}

// Width returns the resolved border width.
func (r Result) Width() float64 { return r.BorderBox.Max.X - r.BorderBox.Min.X }

// Height returns the resolved border height.
func (r Result) Height() float64 { return r.BorderBox.Max.Y - r.BorderBox.Min.Y }
