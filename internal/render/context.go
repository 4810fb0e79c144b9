package render

import (
	"gonum.org/v1/plot/vg"

	"github.com/mmitucha/compactmapper/internal/config"
	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/stats"
	"github.com/mmitucha/compactmapper/internal/surface"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// Context carries everything a view needs. Views read it and never modify
// the dataset.
type Context struct {
	Dataset    *telemetry.Dataset
	Categories []quality.Category // parallel to Dataset.Samples
	Report     stats.Report
	Grid       surface.Options
	Width      vg.Length
	Height     vg.Length
}

// NewContext builds a render context with default grid and page settings.
func NewContext(ds *telemetry.Dataset, cats []quality.Category, report stats.Report) *Context {
	return &Context{
		Dataset:    ds,
		Categories: cats,
		Report:     report,
		Grid:       surface.DefaultOptions(),
		Width:      16 * vg.Inch,
		Height:     12 * vg.Inch,
	}
}

// Configure applies grid and page settings from cfg.
func (rc *Context) Configure(cfg *config.Config) *Context {
	rc.Grid = surface.OptionsFrom(cfg.Grid)
	rc.Width = vg.Length(cfg.Render.WidthIn) * vg.Inch
	rc.Height = vg.Length(cfg.Render.HeightIn) * vg.Inch
	return rc
}

// point is a positioned sample with its category.
type point struct {
	X, Y   float64
	Sample telemetry.Sample
	Cat    quality.Category
}

func (rc *Context) points() []point {
	out := make([]point, 0, rc.Dataset.Len())
	for i, s := range rc.Dataset.Samples {
		if !s.HasPosition() {
			continue
		}
		cat := quality.Classify(s.Delta())
		if i < len(rc.Categories) {
			cat = rc.Categories[i]
		}
		out = append(out, point{X: s.Easting.V, Y: s.Northing.V, Sample: s, Cat: cat})
	}
	return out
}
