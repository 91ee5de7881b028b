package series

import (
	"github.com/matzehuels/microperf/pkg/pipeline"
)

// Style holds the defaults shared by a family of patterns, such as every
// 60-degree tile with a tab and a label.
type Style struct {
	Angle        float64 `toml:"angle"`
	GridWidth    float64 `toml:"grid_width"`
	GridHeight   float64 `toml:"grid_height"`
	Border       bool    `toml:"border"`
	BorderWidth  float64 `toml:"border_width"`
	BorderHeight float64 `toml:"border_height"`
	TabRadius    float64 `toml:"tab_radius"`
	Label        bool    `toml:"label"`
	Suffix       string  `toml:"suffix"`
	LabelHeight  float64 `toml:"label_height"`
}

// Pattern is one tile of a series. Nil override fields inherit from the style.
type Pattern struct {
	Name     string  `toml:"name"`
	Style    string  `toml:"style"`
	Diameter float64 `toml:"diameter"`
	Spacing  float64 `toml:"spacing"`
	OffsetX  float64 `toml:"offset_x"`
	OffsetY  float64 `toml:"offset_y"`

	Angle        *float64 `toml:"angle"`
	GridWidth    *float64 `toml:"grid_width"`
	GridHeight   *float64 `toml:"grid_height"`
	Border       *bool    `toml:"border"`
	BorderWidth  *float64 `toml:"border_width"`
	BorderHeight *float64 `toml:"border_height"`
	TabRadius    *float64 `toml:"tab_radius"`
	Label        *bool    `toml:"label"`
	Suffix       *string  `toml:"suffix"`
	LabelHeight  *float64 `toml:"label_height"`
}

// Apply merges a pattern onto the style and returns the pipeline options for
// that tile.
func (s Style) Apply(p Pattern) pipeline.Options {
	opts := pipeline.Options{
		Name:         p.Name,
		Diameter:     p.Diameter,
		Spacing:      p.Spacing,
		OffsetX:      p.OffsetX,
		OffsetY:      p.OffsetY,
		Angle:        pick(p.Angle, s.Angle),
		GridWidth:    pick(p.GridWidth, s.GridWidth),
		GridHeight:   pick(p.GridHeight, s.GridHeight),
		Border:       pick(p.Border, s.Border),
		BorderWidth:  pick(p.BorderWidth, s.BorderWidth),
		BorderHeight: pick(p.BorderHeight, s.BorderHeight),
		TabRadius:    pick(p.TabRadius, s.TabRadius),
		Label:        pick(p.Label, s.Label),
		Suffix:       pick(p.Suffix, s.Suffix),
		LabelHeight:  pick(p.LabelHeight, s.LabelHeight),
	}
	return opts
}

func pick[T any](override *T, base T) T {
	if override != nil {
		return *override
	}
	return base
}
