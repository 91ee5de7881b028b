// Package pkg holds the libraries behind microperf, a generator for
// micro-perforation patterns.
//
// # Overview
//
// A pattern is a rectangular or staggered lattice of small round holes,
// optionally framed by a border with a tab and captioned with a label. The
// libraries are organised in layers:
//
//  1. [lattice] - hole geometry for one pattern
//  2. [drawing] - a layered vector document several layouts are placed on
//  3. [sink] - DXF, SVG, JSON, PDF and PNG encoders (and DXF/JSON decoders)
//  4. [pipeline] - validation, layout, composition, cached rendering
//  5. [series] - TOML files describing many patterns on one sheet
//  6. [archive] - run history in memory, on disk or in MongoDB
//  7. [server] - the HTTP API
//
// # Data flow
//
//	pipeline.Options / series.File
//	         ↓
//	    [lattice] Layout
//	         ↓
//	    [drawing] Document
//	         ↓
//	    [sink] DXF/SVG/JSON/PDF/PNG  ←→  [cache]
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Diameter: 5, Spacing: 25, Angle: 60,
//	    Border: true, TabRadius: 1, Label: true,
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("5-25.dxf", result.Artifacts["dxf"], 0o644)
//
// [lattice]: github.com/matzehuels/microperf/pkg/lattice
// [drawing]: github.com/matzehuels/microperf/pkg/drawing
// [sink]: github.com/matzehuels/microperf/pkg/sink
// [pipeline]: github.com/matzehuels/microperf/pkg/pipeline
// [series]: github.com/matzehuels/microperf/pkg/series
// [archive]: github.com/matzehuels/microperf/pkg/archive
// [server]: github.com/matzehuels/microperf/pkg/server
// [cache]: github.com/matzehuels/microperf/pkg/cache
package pkg
