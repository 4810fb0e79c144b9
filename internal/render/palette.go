package render

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mmitucha/compactmapper/internal/quality"
)

// Contour band colours, lowest band first.
var bandColors = []color.NRGBA{
	hex("#FF3333"),
	hex("#FFFF33"),
	hex("#33FF33"),
	hex("#3399FF"),
	hex("#3333FF"),
}

// Flat-fill and legend colours per category.
var fillColors = map[quality.Category]color.NRGBA{
	quality.Under:   hex("#FF3333"),
	quality.Optimal: hex("#33FF33"),
	quality.Over:    hex("#3333FF"),
}

// Sample point colours on the quality view.
var pointColors = map[quality.Category]color.NRGBA{
	quality.Under:   hex("#AA0000"),
	quality.Optimal: hex("#00AA00"),
	quality.Over:    hex("#0000AA"),
}

// Sample point colours on the overview classification panel.
var overviewColors = map[quality.Category]color.NRGBA{
	quality.Under:   hex("#FF4444"),
	quality.Optimal: hex("#44FF44"),
	quality.Over:    hex("#4444FF"),
}

const (
	flatAlpha = 0.3
	bandAlpha = 0.7
)

// hex parses #RRGGBB. It panics on malformed input; all callers pass
// literals.
func hex(s string) color.NRGBA {
	if len(s) != 7 || s[0] != '#' {
		panic(fmt.Sprintf("render: bad colour %q", s))
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		panic(fmt.Sprintf("render: bad colour %q", s))
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(a*255 + 0.5)
	return c
}

// cssColor formats c as #rrggbb.
func cssColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// fixedPalette is a palette.Palette over a literal colour list.
type fixedPalette []color.Color

func (p fixedPalette) Colors() []color.Color { return p }

// bandPalette returns n band colours, sampling the five base colours when n
// differs from five.
func bandPalette(n int) fixedPalette {
	out := make(fixedPalette, n)
	for i := range out {
		j := 0
		if n > 1 {
			j = i * (len(bandColors) - 1) / (n - 1)
		}
		out[i] = withAlpha(bandColors[j], bandAlpha)
	}
	return out
}

// scaleFor fits cmap to the range of vals. A degenerate range is widened so
// every value still maps to a colour.
func scaleFor(cmap palette.ColorMap, vals []float64) palette.ColorMap {
	lo, hi := 0.0, 1.0
	if len(vals) > 0 {
		lo, hi = floats.Min(vals), floats.Max(vals)
	}
	if hi <= lo {
		lo, hi = lo-0.5, hi+0.5
	}
	cmap.SetMin(lo)
	cmap.SetMax(hi)
	return cmap
}

func colorAt(cmap palette.ColorMap, v float64) color.Color {
	c, err := cmap.At(v)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return c
}

// swatch is a filled legend thumbnail.
type swatch struct {
	color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.Color, c.ClipPolygonXY(pts))
}
