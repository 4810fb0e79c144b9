package render

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/palette/brewer"

	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/surface"
)

const (
	chartWidth  = "1200px"
	chartHeight = "900px"
	panelWidth  = "700px"
	panelHeight = "520px"
)

// Interactive writes view as a self-contained HTML page with pan, zoom and
// per-point tooltips.
func Interactive(rc *Context, view View, w io.Writer) error {
	if len(rc.Dataset.Positioned()) == 0 {
		return eris.Wrapf(surface.ErrNoSites, "render: %s", view)
	}

	switch view {
	case Overview:
		page := components.NewPage().SetPageTitle("Compaction Overview")
		page.SetLayout(components.PageFlexLayout)
		page.AddCharts(
			categoryChart(rc, "Compaction Quality", overviewColors, panelWidth, panelHeight),
			scalarChart(rc, scalarView{title: "Pass Count Distribution", label: passCountView.label, field: passCountView.field}, panelWidth, panelHeight),
			scalarChart(rc, elevationView, panelWidth, panelHeight),
			scalarChart(rc, deltaView, panelWidth, panelHeight),
		)
		return eris.Wrap(page.Render(w), "render: overview page")
	case Quality:
		c := categoryChart(rc, "Compaction Quality (UTM Coordinates)", pointColors, chartWidth, chartHeight)
		return eris.Wrap(c.Render(w), "render: quality chart")
	}

	sv, ok := scalarViews[view]
	if !ok {
		return eris.Errorf("render: unknown view %q", view)
	}
	return eris.Wrapf(scalarChart(rc, sv, chartWidth, chartHeight).Render(w), "render: %s chart", view)
}

func baseChart(title, subtitle, width, height string) *charts.Scatter {
	c := charts.NewScatter()
	c.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Easting (m)", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Northing (m)", Type: "value", Scale: opts.Bool(true)}),
	)
	return c
}

// categoryChart draws one series per quality category so the legend
// toggles them.
func categoryChart(rc *Context, title string, colors map[quality.Category]color.NRGBA, width, height string) *charts.Scatter {
	c := baseChart(title, rc.Report.Status(), width, height)

	byCat := make(map[quality.Category][]opts.ScatterData, len(quality.Categories))
	for _, pt := range rc.points() {
		byCat[pt.Cat] = append(byCat[pt.Cat], opts.ScatterData{
			Name:  fmt.Sprintf("row %d", pt.Sample.Row),
			Value: []interface{}{pt.X, pt.Y, pt.Sample.PassCount.String(), pt.Sample.TargetPassCount.String()},
		})
	}
	for _, cat := range quality.Categories {
		name := fmt.Sprintf("%s (%d pts)", cat.Label(), rc.Report.Share(cat).Count)
		c.AddSeries(name, byCat[cat],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: cssColor(colors[cat])}),
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		)
	}
	return c
}

// scalarChart colours points by one field through a visual map.
func scalarChart(rc *Context, v scalarView, width, height string) *charts.Scatter {
	var data []opts.ScatterData
	var vals []float64
	for _, pt := range rc.points() {
		val := v.field.Value(pt.Sample)
		if !val.Valid {
			continue
		}
		vals = append(vals, val.V)
		data = append(data, opts.ScatterData{
			Name:  fmt.Sprintf("row %d", pt.Sample.Row),
			Value: []interface{}{pt.X, pt.Y, val.V},
		})
	}

	subtitle := fmt.Sprintf("%d points", len(data))
	if len(data) == 0 {
		subtitle = fmt.Sprintf("no %s readings", v.field.Name)
	}
	c := baseChart(v.title, subtitle, width, height)

	if len(vals) > 0 {
		lo, hi := floats.Min(vals), floats.Max(vals)
		if hi <= lo {
			lo, hi = lo-0.5, hi+0.5
		}
		c.SetGlobalOptions(charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			Right:      "2%",
			InRange:    &opts.VisualMapInRange{Color: scaleColors()},
		}))
	}
	c.AddSeries(v.label, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return c
}

// scaleColors is the diverging red-to-green ramp used by visual maps.
func scaleColors() []string {
	pal, err := brewer.GetPalette(brewer.TypeAny, "RdYlGn", 5)
	if err != nil {
		return []string{cssColor(bandColors[0]), cssColor(bandColors[len(bandColors)-1])}
	}
	out := make([]string, 0, 5)
	for _, c := range pal.Colors() {
		out = append(out, cssColor(c))
	}
	return out
}
