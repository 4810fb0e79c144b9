package render

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Formats lists the image formats Render can produce.
var Formats = []string{"png", "jpg", "jpeg", "svg", "pdf", "tif", "tiff", "eps"}

// FormatFor returns the image format implied by path's extension.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if f == ext {
			return f, nil
		}
	}
	return "", eris.Errorf("render: unsupported image extension %q (want one of %s)", filepath.Ext(path), strings.Join(Formats, ", "))
}

// Render draws view to w in the given image format.
func Render(rc *Context, view View, w io.Writer, format string) error {
	cw, err := draw.NewFormattedCanvas(rc.Width, rc.Height, format)
	if err != nil {
		return eris.Wrapf(err, "render: canvas for %s", format)
	}
	dc := draw.New(cw)

	switch view {
	case Overview:
		rows, err := overviewPlots(rc)
		if err != nil {
			return eris.Wrap(err, "render: overview")
		}
		tiles := draw.Tiles{
			Rows: 2, Cols: 2,
			PadX: vg.Centimeter, PadY: vg.Centimeter,
			PadTop: vg.Centimeter / 2, PadBottom: vg.Centimeter / 2,
			PadLeft: vg.Centimeter / 2, PadRight: vg.Centimeter / 2,
		}
		canvases := plot.Align(rows, tiles, dc)
		for i := range rows {
			for j := range rows[i] {
				rows[i][j].Draw(canvases[i][j])
			}
		}
	case Quality:
		p, err := qualityPlot(rc)
		if err != nil {
			return eris.Wrap(err, "render: quality")
		}
		p.Draw(dc)
	default:
		sv, ok := scalarViews[view]
		if !ok {
			return eris.Errorf("render: unknown view %q", view)
		}
		p, err := scalarPlot(rc, sv, scalarPointRadius)
		if err != nil {
			return eris.Wrapf(err, "render: %s", view)
		}
		p.Draw(dc)
	}

	if _, err := cw.WriteTo(w); err != nil {
		return eris.Wrapf(err, "render: write %s", format)
	}
	return nil
}

// Save renders view to path, choosing the format from the extension.
func Save(rc *Context, view View, path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "render: create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	if err := Render(rc, view, f, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "render: close %s", path)
	}
	zap.L().Info("saved visualization",
		zap.String("view", string(view)),
		zap.String("path", path),
		zap.String("format", format),
	)
	return nil
}
