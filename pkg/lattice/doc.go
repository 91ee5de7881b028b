// Package lattice computes the layout of a perforation pattern.
//
// # Overview
//
// A perforation pattern is a lattice of circular holes covering a target grid
// area, optionally framed by a rectangular border with a semicircular tab
// cut into its top edge, and optionally captioned with a label. [Layout] turns
// the physical parameters into a [Result] of [geom] primitives. It is pure and
// deterministic: no I/O, no shared state, safe to call from many goroutines.
//
// # Units
//
// Hole diameter and spacing are given in micrometres; every other length
// (grid, border, tab, offset, label height) is in millimetres. Diameter and
// spacing are converted to millimetres before any geometry is computed.
//
// # Lattice Regimes
//
// With Angle == 0 holes sit on an orthogonal grid with pitch Spacing on both
// axes. With Angle > 0 odd rows are shifted right by half a column pitch and
// the pitches become
//
//	dx = Spacing × round(2·cos(Angle), 2)
//	dy = Spacing × round(sin(Angle), 2)
//
// The factors are rounded to two decimals before scaling; hole counts depend
// on it, so it must not be replaced by an exact trigonometric value. Odd rows
// of a staggered lattice carry one hole fewer than even rows so the pattern
// stays inside the requested grid width.
//
// # Counting
//
// Columns and rows follow the fence-post rule floor(span/pitch) + 1, so a
// grid smaller than one pitch still gets a single row or column.
//
// # Usage
//
//	res, err := lattice.Layout(lattice.Spec{
//	    Diameter: 5, Spacing: 25, Angle: 60,
//	    GridWidth: 4.25, GridHeight: 3.25,
//	}, &lattice.Border{Width: 8.5, Height: 8.37, TabRadius: 1}, &lattice.Label{Suffix: "A"})
//	if err != nil {
//	    return err
//	}
//	for _, p := range res.Primitives() {
//	    // hand to a renderer
//	}
//
// [geom]: github.com/matzehuels/microperf/pkg/geom
package lattice
