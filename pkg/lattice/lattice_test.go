package lattice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/geom"
)

const eps = 1e-9

func orthoSpec() Spec {
	return Spec{Diameter: 5, Spacing: 25, GridWidth: 4.25, GridHeight: 3.25}
}

func TestLayoutOrthogonal(t *testing.T) {
	res, err := Layout(orthoSpec(), nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.025, res.Pitch.DX, eps)
	assert.InDelta(t, 0.025, res.Pitch.DY, eps)
	assert.Zero(t, res.Pitch.XOff)
	assert.Equal(t, 171, res.Columns)
	assert.Equal(t, 131, res.Rows)
	require.Len(t, res.Holes, 131)
	assert.Equal(t, 171*131, res.HoleCount())

	for j, row := range res.Holes {
		require.Len(t, row, 171, "row %d", j)
		for i := 1; i < len(row); i++ {
			assert.InDelta(t, res.Pitch.DX, row[i].Center.X-row[i-1].Center.X, eps)
			assert.InDelta(t, row[0].Center.Y, row[i].Center.Y, eps)
		}
		assert.InDelta(t, -4.25/2, row[0].Center.X, eps, "rows are not staggered")
	}

	first := res.Holes[0][0]
	assert.InDelta(t, -2.125, first.Center.X, eps)
	assert.InDelta(t, -1.625, first.Center.Y, eps)
	assert.InDelta(t, 0.0025, first.Radius, eps)

	assert.Empty(t, res.Border)
	assert.Empty(t, res.Labels)
}

func TestLayoutHexagonal(t *testing.T) {
	spec := Spec{Diameter: 5, Spacing: 25, Angle: 60, GridWidth: 0.25, GridHeight: 0.25}
	res, err := Layout(spec, nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.025, res.Pitch.DX, eps)
	// sin(60°) rounds to 0.87 before scaling.
	assert.InDelta(t, 0.02175, res.Pitch.DY, eps)
	assert.InDelta(t, 0.0125, res.Pitch.XOff, eps)
	assert.Equal(t, 11, res.Columns)
	assert.Equal(t, 12, res.Rows)

	for j, row := range res.Holes {
		if j%2 == 0 {
			assert.Len(t, row, res.Columns, "even row %d", j)
			assert.InDelta(t, -0.125, row[0].Center.X, eps)
		} else {
			assert.Len(t, row, res.Columns-1, "odd row %d", j)
			assert.InDelta(t, -0.125+0.0125, row[0].Center.X, eps)
		}
		assert.InDelta(t, float64(j)*res.Pitch.DY-0.125, row[0].Center.Y, eps)
	}
	assert.Equal(t, 6*11+6*10, res.HoleCount())
}

func TestRound2TiesToEven(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.125, 0.12},
		{0.375, 0.38},
		{1.7320508075688772, 1.73},
		{-0.125, -0.12},
		{0.866, 0.87},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}

func TestLayoutAtLatticeCap(t *testing.T) {
	// 1000 x 1000 points at a 1 mm pitch: under the cap, accepted.
	spec := Spec{Diameter: 5, Spacing: 1000, GridWidth: 999.5, GridHeight: 999.5}
	res, err := Layout(spec, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, res.Columns)
	assert.Equal(t, 1000, res.Rows)
	assert.Equal(t, 1_000_000, res.HoleCount())
}

func TestNewPitchRoundsFactors(t *testing.T) {
	tests := []struct {
		name   string
		angle  float64
		dx, dy float64
	}{
		{"orthogonal", 0, 0.025, 0.025},
		{"sixty", 60, 0.025, 0.02175},
		{"thirty", 30, 25 * 1.73 * 1e-3, 0.0125},
		{"forty-five", 45, 25 * 1.41 * 1e-3, 25 * 0.71 * 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPitch(25, tt.angle)
			assert.InDelta(t, tt.dx, p.DX, eps)
			assert.InDelta(t, tt.dy, p.DY, eps)
			if tt.angle > 0 {
				assert.InDelta(t, p.DX/2, p.XOff, eps)
			} else {
				assert.Zero(t, p.XOff)
			}
		})
	}
}

func TestCountsFencePost(t *testing.T) {
	p := Pitch{DX: 0.5, DY: 0.25}
	cols, rows := Counts(2, 1, p)
	assert.Equal(t, 5, cols)
	assert.Equal(t, 5, rows)

	cols, rows = Counts(0.001, 0.001, p)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)
}

func TestLayoutTinyGrid(t *testing.T) {
	res, err := Layout(Spec{Diameter: 5, Spacing: 25, Angle: 60, GridWidth: 0.001, GridHeight: 0.001}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Columns)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 1, res.HoleCount())
}

func TestLayoutDefaultBorder(t *testing.T) {
	res, err := Layout(orthoSpec(), &Border{}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.25+0.005, res.Width(), eps)
	assert.InDelta(t, 3.25+0.005, res.Height(), eps)
	require.Len(t, res.Border, 4)

	// One side explicit, the other derived.
	res, err = Layout(orthoSpec(), &Border{Width: 6}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 6, res.Width(), eps)
	assert.InDelta(t, 3.255, res.Height(), eps)
}

func TestLayoutTab(t *testing.T) {
	res, err := Layout(orthoSpec(), &Border{Width: 8.5, Height: 8.37, TabRadius: 1}, nil)
	require.NoError(t, err)
	require.Len(t, res.Border, 6)

	top := 8.37 / 2
	var segs []geom.Segment
	var arcs []geom.Arc
	for _, p := range res.Border {
		switch v := p.(type) {
		case geom.Segment:
			segs = append(segs, v)
		case geom.Arc:
			arcs = append(arcs, v)
		default:
			t.Fatalf("unexpected border primitive %T", p)
		}
	}
	require.Len(t, segs, 5)
	require.Len(t, arcs, 1)

	leftTop := segs[3]
	assert.InDelta(t, -4.25, leftTop.From.X, eps)
	assert.InDelta(t, top, leftTop.From.Y, eps)
	assert.InDelta(t, -1, leftTop.To.X, eps)
	assert.InDelta(t, top, leftTop.To.Y, eps)

	rightTop := segs[4]
	assert.InDelta(t, 1, rightTop.From.X, eps)
	assert.InDelta(t, 4.25, rightTop.To.X, eps)
	assert.InDelta(t, top, rightTop.To.Y, eps)

	arc := arcs[0]
	assert.InDelta(t, 0, arc.Center.X, eps)
	assert.InDelta(t, top, arc.Center.Y, eps)
	assert.Equal(t, 1.0, arc.Radius)
	assert.Equal(t, 0.0, arc.StartAngle)
	assert.Equal(t, 180.0, arc.EndAngle)
}

func TestLayoutTabFollowsOffset(t *testing.T) {
	spec := orthoSpec()
	spec.Offset = r2.Vec{X: 10, Y: -5}
	res, err := Layout(spec, &Border{Width: 8.5, Height: 8.37, TabRadius: 1}, nil)
	require.NoError(t, err)

	arc, ok := res.Border[5].(geom.Arc)
	require.True(t, ok)
	assert.InDelta(t, 10, arc.Center.X, eps)
	assert.InDelta(t, -5+8.37/2, arc.Center.Y, eps)
	assert.InDelta(t, 9, res.Border[3].(geom.Segment).To.X, eps)
	assert.InDelta(t, 11, res.Border[4].(geom.Segment).From.X, eps)
}

func TestLayoutLabel(t *testing.T) {
	spec := Spec{Diameter: 10, Spacing: 25, GridWidth: 4.25, GridHeight: 3.25}
	res, err := Layout(spec, &Border{Width: 8.5, Height: 8.37}, &Label{Suffix: "A"})
	require.NoError(t, err)
	require.Len(t, res.Labels, 1)

	l := res.Labels[0]
	assert.Equal(t, "10-25 A", l.Text)
	assert.InDelta(t, -4.25+0.5, l.Anchor.X, eps)
	assert.InDelta(t, -8.37/2+0.5, l.Anchor.Y, eps)
	assert.Equal(t, DefaultLabelHeight, l.Height)
}

func TestLayoutLabelWithoutBorder(t *testing.T) {
	res, err := Layout(orthoSpec(), nil, &Label{Suffix: "B", Height: 0.5})
	require.NoError(t, err)
	assert.Empty(t, res.Border)
	require.Len(t, res.Labels, 1)

	w, h := orthoSpec().DefaultBorder()
	assert.InDelta(t, -w/2+0.5, res.Labels[0].Anchor.X, eps)
	assert.InDelta(t, -h/2+0.5, res.Labels[0].Anchor.Y, eps)
	assert.Equal(t, 0.5, res.Labels[0].Height)
}

func TestLabelText(t *testing.T) {
	assert.Equal(t, "10-25 A", LabelText(10, 25, "A"))
	assert.Equal(t, "2.5-12.5 ", LabelText(2.5, 12.5, ""))
}

func TestBorderBoundingBoxRoundTrip(t *testing.T) {
	for _, tab := range []float64{0, 1} {
		spec := orthoSpec()
		spec.Offset = r2.Vec{X: 3, Y: 2}
		res, err := Layout(spec, &Border{Width: 8.5, Height: 8.37, TabRadius: tab}, nil)
		require.NoError(t, err)

		var segs []geom.Segment
		for _, p := range res.Border {
			if s, ok := p.(geom.Segment); ok {
				segs = append(segs, s)
			}
		}
		box, ok := geom.BoundsOf(segs)
		require.True(t, ok)
		assert.InDelta(t, 3-4.25, box.Min.X, eps)
		assert.InDelta(t, 3+4.25, box.Max.X, eps)
		assert.InDelta(t, 2-8.37/2, box.Min.Y, eps)
		assert.InDelta(t, 2+8.37/2, box.Max.Y, eps)
	}
}

func TestHolesStayInsideGrid(t *testing.T) {
	for _, angle := range []float64{0, 30, 60} {
		spec := Spec{Diameter: 5, Spacing: 25, Angle: angle, GridWidth: 1, GridHeight: 0.5}
		res, err := Layout(spec, nil, nil)
		require.NoError(t, err)

		centers := make([]geom.Circle, 0, res.HoleCount())
		for _, row := range res.Holes {
			centers = append(centers, row...)
		}
		box, ok := geom.BoundsOf(centers)
		require.True(t, ok)
		r := spec.HoleRadius()
		assert.GreaterOrEqual(t, box.Min.X+r, -0.5-eps, "angle %g", angle)
		assert.LessOrEqual(t, box.Max.X-r, 0.5+eps, "angle %g", angle)
		assert.GreaterOrEqual(t, box.Min.Y+r, -0.25-eps, "angle %g", angle)
		assert.LessOrEqual(t, box.Max.Y-r, 0.25+eps, "angle %g", angle)
	}
}

func TestPrimitivesOrder(t *testing.T) {
	res, err := Layout(Spec{Diameter: 5, Spacing: 25, GridWidth: 0.05, GridHeight: 0.025},
		&Border{TabRadius: 0.01}, &Label{Suffix: "x"})
	require.NoError(t, err)

	prims := res.Primitives()
	require.Len(t, prims, 6+res.HoleCount()+1)
	for i := range 6 {
		assert.NotEqual(t, geom.KindCircle, prims[i].Kind())
	}
	for i := 6; i < 6+res.HoleCount(); i++ {
		assert.Equal(t, geom.KindCircle, prims[i].Kind())
	}
	assert.Equal(t, geom.KindLabel, prims[len(prims)-1].Kind())

	// Row order is preserved: the second row starts one pitch above the first.
	second := prims[6+len(res.Holes[0])].(geom.Circle)
	assert.InDelta(t, res.Holes[0][0].Center.Y+res.Pitch.DY, second.Center.Y, eps)
}

func TestLayoutInvalidParameters(t *testing.T) {
	base := orthoSpec()
	tests := []struct {
		name   string
		mutate func(*Spec)
		border *Border
	}{
		{"zero diameter", func(s *Spec) { s.Diameter = 0 }, nil},
		{"negative spacing", func(s *Spec) { s.Spacing = -1 }, nil},
		{"zero grid width", func(s *Spec) { s.GridWidth = 0 }, nil},
		{"negative grid height", func(s *Spec) { s.GridHeight = -3 }, nil},
		{"nan diameter", func(s *Spec) { s.Diameter = math.NaN() }, nil},
		{"right angle", func(s *Spec) { s.Angle = 90 }, nil},
		{"negative angle", func(s *Spec) { s.Angle = -10 }, nil},
		{"angle rounding to zero pitch", func(s *Spec) { s.Angle = 89.9 }, nil},
		{"lattice too large", func(s *Spec) { s.Spacing, s.GridWidth, s.GridHeight = 1e-6, 1000, 1000 }, nil},
		{"lattice over the cap", func(s *Spec) { s.Spacing, s.GridWidth, s.GridHeight = 1, 3, 1 }, nil},
		{"infinite grid", func(s *Spec) { s.GridWidth = math.Inf(1) }, nil},
		{"negative border", func(*Spec) {}, &Border{Width: -1}},
		{"negative tab", func(*Spec) {}, &Border{TabRadius: -0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := base
			tt.mutate(&spec)
			res, err := Layout(spec, tt.border, &Label{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidParameter), "got %v", err)
			assert.Zero(t, res.HoleCount())
			assert.Empty(t, res.Labels)
		})
	}
}
