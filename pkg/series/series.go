// Package series composes several perforation patterns onto one drawing.
//
// A series file is TOML. Named styles carry the shared parameters, each
// [[patterns]] entry picks a style and sets its own diameter, spacing and
// offset, and [[references]] add plain rectangles with a caption, such as a
// 10 mm calibration square:
//
//	name = "series-a"
//	output = "series-a.dxf"
//
//	[styles.hex]
//	angle = 60
//	grid_width = 0.25
//	grid_height = 0.25
//	border = true
//	border_width = 8.5
//	border_height = 8.37
//	tab_radius = 1
//	label = true
//	suffix = "A"
//
//	[[patterns]]
//	style = "hex"
//	diameter = 5
//	spacing = 25
//	offset_x = 20
//	offset_y = 80
//
//	[[references]]
//	x = 75
//	y = 20
//	width = 10
//	height = 10
//	caption = "10mmx10mm"
//
// Patterns without a style use the style named "default" when the file
// defines one.
package series

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/microperf/pkg/drawing"
	"github.com/matzehuels/microperf/pkg/errors"
	"github.com/matzehuels/microperf/pkg/pipeline"
)

// DefaultStyle is used by patterns that name no style.
const DefaultStyle = "default"

// DefaultCaptionGap is the distance from a reference's bottom edge down to
// its caption anchor, in mm.
const DefaultCaptionGap = 2.0

//go:embed presets/*.toml
var presets embed.FS

// Reference is a rectangle drawn for scale, with an optional caption below it.
type Reference struct {
	X             float64 `toml:"x"`
	Y             float64 `toml:"y"`
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	Layer         string  `toml:"layer"`
	Caption       string  `toml:"caption"`
	CaptionHeight float64 `toml:"caption_height"`
	CaptionGap    float64 `toml:"caption_gap"`
}

// File is a decoded series file.
type File struct {
	Name       string           `toml:"name"`
	Output     string           `toml:"output"`
	Formats    []string         `toml:"formats"`
	Styles     map[string]Style `toml:"styles"`
	Patterns   []Pattern        `toml:"patterns"`
	References []Reference      `toml:"references"`
}

// Load reads and validates a series file from disk.
func Load(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open series file")
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// Decode reads and validates a series file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func Decode(r io.Reader) (*File, error) {
	var s File
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode series")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Builtin returns one of the bundled series by name.
func Builtin(name string) (*File, error) {
	data, err := presets.ReadFile(path.Join("presets", name+".toml"))
	if err != nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no builtin series %q (have: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return Decode(bytes.NewReader(data))
}

// BuiltinNames lists the bundled series.
func BuiltinNames() []string {
	entries, _ := presets.ReadDir("presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(names)
	return names
}

// Validate checks style references, reference rectangles and formats.
// Lattice parameters are validated when the patterns are laid out.
func (s *File) Validate() error {
	if len(s.Patterns) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "series has no patterns")
	}
	for i, p := range s.Patterns {
		if _, err := s.style(p); err != nil {
			return fmt.Errorf("pattern %d: %w", i+1, err)
		}
	}
	for i, ref := range s.References {
		if !(ref.Width > 0) || !(ref.Height > 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "reference %d: size must be positive, got %gx%g", i+1, ref.Width, ref.Height)
		}
		if ref.Layer != "" {
			if err := errors.ValidateLayerName(ref.Layer); err != nil {
				return fmt.Errorf("reference %d: %w", i+1, err)
			}
		}
		if err := errors.ValidateLabelText(ref.Caption); err != nil {
			return fmt.Errorf("reference %d: %w", i+1, err)
		}
	}
	if err := pipeline.ValidateFormats(s.Formats); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "formats")
	}
	return nil
}

func (s *File) style(p Pattern) (Style, error) {
	name := p.Style
	if name == "" {
		name = DefaultStyle
	}
	st, ok := s.Styles[name]
	if !ok {
		if p.Style == "" {
			return Style{}, nil
		}
		return Style{}, errors.New(errors.ErrCodeInvalidConfig, "unknown style %q", p.Style)
	}
	return st, nil
}

// Options resolves every pattern against its style.
func (s *File) Options() ([]pipeline.Options, error) {
	out := make([]pipeline.Options, 0, len(s.Patterns))
	for i, p := range s.Patterns {
		st, err := s.style(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i+1, err)
		}
		out = append(out, st.Apply(p))
	}
	return out, nil
}

// Build lays out every pattern and reference onto one document.
func (s *File) Build(ctx context.Context, runner *pipeline.Runner) (*drawing.Document, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	name := s.Name
	if name == "" {
		name = "series"
	}

	doc, err := runner.Compose(ctx, name, opts...)
	if err != nil {
		return nil, err
	}

	for i, ref := range s.References {
		layer := ref.Layer
		if layer == "" {
			layer = drawing.LayerReference
		}
		if err := doc.AddRectangle(layer, r2.Vec{X: ref.X, Y: ref.Y}, ref.Width, ref.Height); err != nil {
			return nil, fmt.Errorf("reference %d: %w", i+1, err)
		}
		if ref.Caption == "" {
			continue
		}
		gap := ref.CaptionGap
		if gap == 0 {
			gap = DefaultCaptionGap
		}
		anchor := r2.Vec{X: ref.X, Y: ref.Y - gap}
		if err := doc.AddText(drawing.LayerText, anchor, ref.Caption, ref.CaptionHeight); err != nil {
			return nil, fmt.Errorf("reference %d caption: %w", i+1, err)
		}
	}
	return doc, nil
}
