package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf/color"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/geom"
	"github.com/matzehuels/microperf/pkg/lattice"
	"github.com/matzehuels/microperf/pkg/render"
)

func testDocument(t *testing.T) *drawing.Document {
	t.Helper()
	res, err := lattice.Layout(
		lattice.Spec{Diameter: 5, Spacing: 25, Angle: 60, GridWidth: 0.25, GridHeight: 0.25, Offset: r2.Vec{X: 20, Y: 80}},
		&lattice.Border{Width: 8.5, Height: 8.37, TabRadius: 1},
		&lattice.Label{Suffix: "A"},
	)
	require.NoError(t, err)

	doc := drawing.New("series-a")
	doc.AddLayout("hex-5-25", res)
	require.NoError(t, doc.AddRectangle(drawing.LayerReference, r2.Vec{X: 75, Y: 20}, 10, 10))
	require.NoError(t, doc.AddText(drawing.LayerText, r2.Vec{X: 75, Y: 18}, "10mmx10mm", 1))
	return doc
}

func TestDXFRoundTrip(t *testing.T) {
	doc := testDocument(t)
	data, err := RenderDXF(doc)
	require.NoError(t, err)

	got, err := DecodeDXF(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, doc.Layers(), got.Layers())
	for _, layer := range doc.Layers() {
		assert.Equal(t, doc.Count(layer), got.Count(layer), "layer %s", layer)
	}
	want := doc.Entities()
	have := got.Entities()
	require.Len(t, have, len(want))
	for i := range want {
		assert.Equal(t, want[i].Layer, have[i].Layer, "entity %d", i)
		assertPrimitiveNear(t, want[i].Primitive, have[i].Primitive)
	}

	wb, _ := doc.Bounds()
	gb, _ := got.Bounds()
	assert.InDelta(t, wb.Min.X, gb.Min.X, 1e-9)
	assert.InDelta(t, wb.Max.Y, gb.Max.Y, 1e-9)
}

func assertPrimitiveNear(t *testing.T, want, got geom.Primitive) {
	t.Helper()
	const eps = 1e-9
	switch w := want.(type) {
	case geom.Circle:
		g, ok := got.(geom.Circle)
		require.True(t, ok, "got %T, want circle", got)
		assert.InDelta(t, w.Center.X, g.Center.X, eps)
		assert.InDelta(t, w.Center.Y, g.Center.Y, eps)
		assert.InDelta(t, w.Radius, g.Radius, eps)
	case geom.Segment:
		g, ok := got.(geom.Segment)
		require.True(t, ok, "got %T, want segment", got)
		assert.InDelta(t, w.From.X, g.From.X, eps)
		assert.InDelta(t, w.From.Y, g.From.Y, eps)
		assert.InDelta(t, w.To.X, g.To.X, eps)
		assert.InDelta(t, w.To.Y, g.To.Y, eps)
	case geom.Arc:
		g, ok := got.(geom.Arc)
		require.True(t, ok, "got %T, want arc", got)
		assert.InDelta(t, w.Radius, g.Radius, eps)
		assert.InDelta(t, w.StartAngle, g.StartAngle, eps)
		assert.InDelta(t, w.EndAngle, g.EndAngle, eps)
	case geom.Label:
		g, ok := got.(geom.Label)
		require.True(t, ok, "got %T, want label", got)
		assert.Equal(t, w.Text, g.Text)
		assert.InDelta(t, w.Anchor.X, g.Anchor.X, eps)
		assert.InDelta(t, w.Height, g.Height, eps)
	}
}

// dxfLines returns the group code/value lines with padding stripped.
func dxfLines(data []byte) string {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

func TestDXFStructure(t *testing.T) {
	data, err := RenderDXF(testDocument(t), WithLayerColor(drawing.LayerHoles, color.Blue))
	require.NoError(t, err)
	out := dxfLines(data)

	assert.True(t, strings.HasPrefix(out, "0\nSECTION\n2\nHEADER\n"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "0\nEOF"))
	assert.NotContains(t, out, "$INSUNITS")

	for layer, aci := range map[string]color.ColorNumber{drawing.LayerHoles: color.Blue, drawing.LayerBorder: color.White} {
		i := strings.Index(out, "\n2\n"+layer+"\n")
		require.GreaterOrEqual(t, i, 0, "layer %s missing from table", layer)
		entry := out[i:]
		if j := strings.Index(entry, "\n0\n"); j >= 0 {
			entry = entry[:j]
		}
		assert.Contains(t, entry, "\n62\n"+strconv.Itoa(int(aci))+"\n", "layer %s color", layer)
	}
	assert.Contains(t, out, "\nARC\n")
	assert.Contains(t, out, "\nTEXT\n")
	assert.Contains(t, out, "\n1\n10mmx10mm\n")
}

func TestDecodeDXFSkipsUnknownEntities(t *testing.T) {
	src := strings.Join([]string{
		"0", "SECTION", "2", "ENTITIES",
		"0", "POINT", "8", "misc", "10", "1", "20", "2", "30", "0",
		"0", "CIRCLE", "10", "1.5", "20", "-2", "30", "0", "40", "0.25",
		"0", "ENDSEC", "0", "EOF",
	}, "\n")

	doc, err := DecodeDXF(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Len())
	e := doc.Entities()[0]
	assert.Equal(t, "0", e.Layer)
	assert.Equal(t, geom.Circle{Center: r2.Vec{X: 1.5, Y: -2}, Radius: 0.25}, e.Primitive)
}

func TestDecodeDXFErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad group code", "x\nSECTION\n"},
		{"bad layer", "0\nSECTION\n2\nENTITIES\n0\nLINE\n8\nmy layer\n0\nENDSEC\n0\nEOF\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDXF(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
		})
	}
}

func TestRenderSVG(t *testing.T) {
	doc := testDocument(t)
	out := string(RenderSVG(doc,
		WithTitle("series A"),
		WithLayerStyle(drawing.LayerHoles, "fill:red"),
	))

	assert.Contains(t, out, "<title>series A</title>")
	assert.Contains(t, out, `<g id="holes" style="fill:red"`)
	assert.Contains(t, out, `<g id="border"`)
	assert.Contains(t, out, `<g id="ref"`)
	assert.Equal(t, doc.Count(drawing.LayerHoles), strings.Count(out, "<circle "))
	assert.Equal(t, doc.Count(drawing.LayerReference)+5, strings.Count(out, "<line "))
	assert.Equal(t, 1, strings.Count(out, "<path "), "one tab arc")
	assert.Contains(t, out, ">10mmx10mm</text>")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))

	b, _ := doc.Bounds()
	w := int(b.Max.X-b.Min.X+2*DefaultMargin) + 1
	assert.Contains(t, out, `mm" height=`)
	assert.Contains(t, out, `width="`+strconv.Itoa(w)+`mm"`)
}

func TestRenderSVGFlipsYAxis(t *testing.T) {
	doc := drawing.New("flip")
	require.NoError(t, doc.Add("holes", geom.Circle{Center: r2.Vec{X: 1, Y: 2}, Radius: 0.5}))
	out := string(RenderSVG(doc, WithMargin(0)))
	assert.Contains(t, out, `<circle cx="1000000" cy="-2000000" r="500000"`)
	assert.Contains(t, out, `viewBox="500000 -2500000 1000000 1000000"`)
}

func TestRenderSVGEmptyDocument(t *testing.T) {
	out := string(RenderSVG(drawing.New("empty")))
	assert.Contains(t, out, "<svg")
	assert.NotContains(t, out, "<g ")
}

func TestJSONRoundTrip(t *testing.T) {
	doc := testDocument(t)
	data, err := RenderJSON(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, doc.ID(), raw["id"])
	assert.Equal(t, "mm", raw["units"])
	assert.Len(t, raw["patterns"], 1)

	got, err := DecodeJSON(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, doc.Name(), got.Name())
	assert.Equal(t, doc.Entities(), got.Entities())
}

func TestJSONSummary(t *testing.T) {
	doc := testDocument(t)
	data, err := RenderJSON(doc, WithJSONSummary())
	require.NoError(t, err)

	var out jsonOutput
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Empty(t, out.Entities)
	require.Len(t, out.Patterns, 1)
	assert.Equal(t, 11, out.Patterns[0].Columns)
	assert.Equal(t, 12, out.Patterns[0].Rows)
	assert.InDelta(t, 0.0125, out.Patterns[0].XOff, 1e-12)

	counts := map[string]int{}
	for _, l := range out.Layers {
		counts[l.Name] = l.Count
	}
	assert.Equal(t, doc.Count(drawing.LayerHoles), counts[drawing.LayerHoles])
}

func TestDecodeJSONRejectsUnknownKind(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"name":"x","entities":[{"layer":"holes","kind":"spline"}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestRenderPDFAndPNG(t *testing.T) {
	if !render.Available() {
		t.Skip("rsvg-convert not installed")
	}
	ctx := context.Background()
	doc := testDocument(t)

	pdf, err := RenderPDF(ctx, doc, WithPDFSVGOptions(WithTitle("series A")))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	png, err := RenderPNG(ctx, doc, WithScale(2))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
