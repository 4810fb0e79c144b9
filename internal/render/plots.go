package render

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/surface"
)

const (
	qualityPointRadius = 6 * vg.Millimeter / 2
	scalarPointRadius  = 2 * vg.Millimeter / 2
	overviewRadius     = 1.5 * vg.Millimeter / 2
	legendEntries      = 5
)

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Easting (m)"
	p.Y.Label.Text = "Northing (m)"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

// frame fixes the axes to the padded sample extent.
func frame(p *plot.Plot, b *geom.Bounds) {
	p.X.Min, p.X.Max = b.Min(0), b.Max(0)
	p.Y.Min, p.Y.Max = b.Min(1), b.Max(1)
}

func xysOf(pts []point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	return xys
}

// boundsPolygon converts b to a filled rectangle.
func boundsPolygon(b *geom.Bounds, fill color.Color) (*plotter.Polygon, error) {
	ring := b.Polygon().Coords()[0]
	xys := make(plotter.XYs, len(ring))
	for i, c := range ring {
		xys[i].X, xys[i].Y = c.X(), c.Y()
	}
	poly, err := plotter.NewPolygon(xys)
	if err != nil {
		return nil, eris.Wrap(err, "render: flat fill")
	}
	poly.Color = fill
	poly.LineStyle.Width = 0
	return poly, nil
}

// bandGrid presents a grid as band indices so each heat map colour covers
// one equal-width band.
type bandGrid struct {
	*surface.Grid
	levels []float64
}

func (b bandGrid) Z(c, r int) float64 { return float64(surface.Band(b.levels, b.Grid.Z(c, r))) }
func (b bandGrid) Min() float64       { return 0 }
func (b bandGrid) Max() float64       { return float64(len(b.levels) - 2) }

func bandedHeatMap(s *surface.Surface) *plotter.HeatMap {
	bands := len(s.Levels) - 1
	pal := bandPalette(bands)
	hm := plotter.NewHeatMap(bandGrid{Grid: s.Grid, levels: s.Levels}, pal)
	hm.Min, hm.Max = 0, float64(bands-1)
	hm.Rasterized = true
	if bands == 1 {
		hm.Palette = fixedPalette{pal[0], pal[0]}
		hm.Max = 1
	}
	return hm
}

// qualityPlot draws the interpolated delta surface under the classified
// samples.
func qualityPlot(rc *Context) (*plot.Plot, error) {
	samples := rc.Dataset.Positioned()
	surf, err := surface.Reconstruct(samples, surface.DeltaField, rc.Grid)
	if errors.Is(err, surface.ErrNoSites) && len(samples) > 0 {
		// No sample has both pass counts; every point classifies as
		// optimal, so draw the category surface instead.
		surf, err = surface.Reconstruct(samples, surface.CategoryField, rc.Grid)
	}
	if err != nil {
		return nil, err
	}

	p := newPlot("Compaction Quality Heatmap (UTM Coordinates)\n" + rc.Report.Status())
	p.X.Label.Text = "UTM Easting (m)"
	p.Y.Label.Text = "UTM Northing (m)"
	frame(p, surf.Grid.Bounds)

	switch surf.Mode {
	case surface.FlatFill:
		fill, err := boundsPolygon(surf.Grid.Bounds, withAlpha(fillColors[surf.FlatCategory()], flatAlpha))
		if err != nil {
			return nil, err
		}
		p.Add(fill)
	case surface.BandedContour:
		p.Add(bandedHeatMap(surf))
	}

	if err := addCategoryPoints(p, rc.points(), pointColors, qualityPointRadius, true); err != nil {
		return nil, err
	}

	for _, c := range quality.Categories {
		p.Legend.Add(fmt.Sprintf("%s (%d pts)", c.Label(), rc.Report.Share(c).Count), swatch{fillColors[c]})
	}
	if surf.Mode == surface.BandedContour {
		pal := bandPalette(len(surf.Levels) - 1)
		for i := len(surf.Levels) - 2; i >= 0; i-- {
			p.Legend.Add(fmt.Sprintf("delta %.2f to %.2f", surf.Levels[i], surf.Levels[i+1]), swatch{pal[i]})
		}
	}

	box, err := statsBox(rc, surf.Grid.Bounds)
	if err != nil {
		return nil, err
	}
	p.Add(box)

	return p, nil
}

// statsBox is the summary text pinned to the top-left of the extent.
func statsBox(rc *Context, b *geom.Bounds) (*plotter.Labels, error) {
	lines := []string{fmt.Sprintf("Total Points: %d", rc.Report.Total)}
	if t := rc.Report.TargetPassCount; t != nil {
		lines = append(lines, fmt.Sprintf("Target: %g passes", *t))
	}
	if pc := rc.Report.PassCount; pc != nil {
		lines = append(lines, fmt.Sprintf("Actual: %g-%g", pc.Min, pc.Max))
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: b.Min(0), Y: b.Max(1)}},
		Labels: []string{strings.Join(lines, "\n")},
	})
	if err != nil {
		return nil, eris.Wrap(err, "render: stats box")
	}
	labels.TextStyle[0].XAlign = draw.XLeft
	labels.TextStyle[0].YAlign = draw.YTop
	labels.Offset = vg.Point{X: 2 * vg.Millimeter, Y: -2 * vg.Millimeter}
	return labels, nil
}

// addCategoryPoints adds one scatter of all points coloured by category,
// optionally ringed in black.
func addCategoryPoints(p *plot.Plot, pts []point, colors map[quality.Category]color.NRGBA, radius vg.Length, ring bool) error {
	sc, err := plotter.NewScatter(xysOf(pts))
	if err != nil {
		return eris.Wrap(err, "render: sample points")
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[pts[i].Cat], Radius: radius, Shape: draw.CircleGlyph{}}
	}
	p.Add(sc)

	if ring {
		outline, err := plotter.NewScatter(xysOf(pts))
		if err != nil {
			return eris.Wrap(err, "render: sample outlines")
		}
		outline.GlyphStyle = draw.GlyphStyle{Color: color.Black, Radius: radius, Shape: draw.RingGlyph{}}
		p.Add(outline)
	}
	return nil
}

// scalarPlot scatters one field over a continuous colour map. Samples with
// no value for the field are left out.
func scalarPlot(rc *Context, v scalarView, radius vg.Length) (*plot.Plot, error) {
	all := rc.points()
	bounds, err := surface.Extent(rc.Dataset.Positioned(), rc.Grid)
	if err != nil {
		return nil, err
	}

	var pts []point
	var vals []float64
	for _, pt := range all {
		if val := v.field.Value(pt.Sample); val.Valid {
			pts = append(pts, pt)
			vals = append(vals, val.V)
		}
	}

	title := v.title
	if len(pts) == 0 {
		title += fmt.Sprintf("\nno %s readings", v.field.Name)
	}
	p := newPlot(title)
	frame(p, bounds)
	if len(pts) == 0 {
		return p, nil
	}

	cmap := scaleFor(v.cmap(), vals)
	sc, err := plotter.NewScatter(xysOf(pts))
	if err != nil {
		return nil, eris.Wrapf(err, "render: %s points", v.field.Name)
	}
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colorAt(cmap, vals[i]), Radius: radius, Shape: draw.CircleGlyph{}}
	}
	p.Add(sc)

	// Colour scale, highest value on top.
	lo, hi := cmap.Min(), cmap.Max()
	for i := legendEntries - 1; i >= 0; i-- {
		val := lo + float64(i)*(hi-lo)/float64(legendEntries-1)
		name := fmt.Sprintf("%s %.2f", v.label, val)
		p.Legend.Add(name, swatch{colorAt(cmap, val)})
	}
	return p, nil
}

// overviewPlots returns the 2x2 grid: classification, pass count,
// elevation, delta.
func overviewPlots(rc *Context) ([][]*plot.Plot, error) {
	bounds, err := surface.Extent(rc.Dataset.Positioned(), rc.Grid)
	if err != nil {
		return nil, err
	}

	qp := newPlot("Compaction Quality (Red=Under, Green=Optimal, Blue=Over)")
	frame(qp, bounds)
	if err := addCategoryPoints(qp, rc.points(), overviewColors, overviewRadius, false); err != nil {
		return nil, err
	}
	for _, c := range quality.Categories {
		qp.Legend.Add(c.Label(), swatch{overviewColors[c]})
	}

	pass, err := scalarPlot(rc, scalarView{title: "Pass Count Distribution", label: passCountView.label, field: passCountView.field, cmap: passCountView.cmap}, overviewRadius)
	if err != nil {
		return nil, err
	}
	elev, err := scalarPlot(rc, elevationView, overviewRadius)
	if err != nil {
		return nil, err
	}
	delta, err := scalarPlot(rc, deltaView, overviewRadius)
	if err != nil {
		return nil, err
	}

	return [][]*plot.Plot{
		{qp, pass},
		{elev, delta},
	}, nil
}
