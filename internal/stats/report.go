package stats

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/mmitucha/compactmapper/internal/quality"
)

var remarks = map[quality.Category]string{
	quality.Under:   "NEEDS MORE PASSES",
	quality.Optimal: "GOOD",
	quality.Over:    "EXCESSIVE",
}

// WriteText writes the human-readable report.
func WriteText(w io.Writer, r Report) error {
	p := message.NewPrinter(language.English)
	ew := &errWriter{w: w}

	ew.printf(p, "\n=== Compaction Statistics ===\n")
	ew.printf(p, "Total points: %d\n", r.Total)

	if r.Easting != nil && r.Northing != nil {
		ew.printf(p, "\nCoordinate range:\n")
		ew.printf(p, "  Easting:   %.2f - %.2f m\n", r.Easting.Min, r.Easting.Max)
		ew.printf(p, "  Northing:  %.2f - %.2f m\n", r.Northing.Min, r.Northing.Max)
	}
	if r.Elevation != nil {
		ew.printf(p, "  Elevation: %.2f - %.2f m\n", r.Elevation.Min, r.Elevation.Max)
	}

	ew.printf(p, "\n=== Compaction Quality ===\n")
	if r.TargetPassCount != nil {
		ew.printf(p, "Target pass count: %v\n", *r.TargetPassCount)
	}
	if r.PassCount != nil {
		ew.printf(p, "\nPass count:\n")
		ew.printf(p, "  Min:    %v\n", r.PassCount.Min)
		ew.printf(p, "  Max:    %v\n", r.PassCount.Max)
		ew.printf(p, "  Mean:   %.1f\n", r.PassCount.Mean)
		ew.printf(p, "  Median: %.1f\n", r.PassCount.Median)
	}

	if r.Total > 0 {
		ew.printf(p, "\nCompaction quality assessment:\n")
		for _, s := range r.Categories {
			ew.printf(p, "  %-14s %7d points (%5.1f%%) - %s\n", s.Label+":", s.Count, s.Percent, remarks[s.Category])
		}
		for _, line := range r.Assessment() {
			ew.printf(p, "\n%s\n", line)
		}
	}

	if len(r.Sensors) > 0 {
		ew.printf(p, "\n=== Additional Sensor Data ===\n")
		for _, s := range r.Sensors {
			ew.printf(p, "%s (%s):\n", s.Label, s.Column)
			ew.printf(p, "  Valid points: %d / %d\n", s.Valid, s.Total)
			ew.printf(p, "  Mean: %.1f\n", s.Mean)
		}
	}
	ew.printf(p, "\n")

	return eris.Wrap(ew.err, "stats: write text report")
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "stats: encode json")
	}
	return nil
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "stats: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "stats: flush yaml")
	}
	return nil
}

// SaveXLSX writes a workbook with a summary sheet and a sensor sheet.
func SaveXLSX(path string, r Report) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "stats: add summary sheet")
	}
	addRow(summary, "Source", r.Source)
	addRow(summary, "Total points", r.Total)
	if r.TargetPassCount != nil {
		addRow(summary, "Target pass count", *r.TargetPassCount)
	}
	addRow(summary)
	addRow(summary, "Category", "Count", "Percent")
	for _, s := range r.Categories {
		addRow(summary, s.Label, s.Count, s.Percent)
	}
	if r.PassCount != nil {
		addRow(summary)
		addRow(summary, "Pass count", "Min", "Max", "Mean", "Median")
		addRow(summary, "", r.PassCount.Min, r.PassCount.Max, r.PassCount.Mean, r.PassCount.Median)
	}
	addRow(summary)
	addRow(summary, "Axis", "Min", "Max")
	for _, ax := range []struct {
		name string
		rng  *Range
	}{
		{"Easting (m)", r.Easting},
		{"Northing (m)", r.Northing},
		{"Elevation (m)", r.Elevation},
	} {
		if ax.rng != nil {
			addRow(summary, ax.name, ax.rng.Min, ax.rng.Max)
		}
	}

	sensors, err := f.AddSheet("Sensors")
	if err != nil {
		return eris.Wrap(err, "stats: add sensor sheet")
	}
	addRow(sensors, "Column", "Label", "Valid", "Total", "Mean")
	for _, s := range r.Sensors {
		addRow(sensors, s.Column, s.Label, s.Valid, s.Total, s.Mean)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "stats: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, vals ...interface{}) {
	row := sheet.AddRow()
	for _, v := range vals {
		cell := row.AddCell()
		switch t := v.(type) {
		case string:
			cell.SetString(t)
		case int:
			cell.SetInt(t)
		case float64:
			cell.SetFloat(t)
		}
	}
}

// Save writes the report to path, choosing the encoding from the extension:
// .json, .yaml/.yml, .xlsx, or .txt.
func Save(path string, r Report) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return SaveXLSX(path, r)
	}
	write, ok := map[string]func(io.Writer, Report) error{
		".json": WriteJSON,
		".yaml": WriteYAML,
		".yml":  WriteYAML,
		".txt":  WriteText,
	}[ext]
	if !ok {
		return eris.Errorf("stats: unsupported report extension %q (want .json, .yaml, .yml, .xlsx or .txt)", ext)
	}
	return writeFile(path, func(w io.Writer) error { return write(w, r) })
}

// Encode writes the report to w in the named format: text, json or yaml.
func Encode(w io.Writer, format string, r Report) error {
	switch format {
	case "text", "":
		return WriteText(w, r)
	case "json":
		return WriteJSON(w, r)
	case "yaml":
		return WriteYAML(w, r)
	}
	return eris.Errorf("stats: unknown format %q (want text, json or yaml)", format)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(p *message.Printer, format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = p.Fprintf(e.w, format, args...)
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "stats: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = eris.Wrapf(cerr, "stats: close %s", path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return err
	}
	return eris.Wrapf(bw.Flush(), "stats: flush %s", path)
}
