// Package stats summarises a classified telemetry dataset.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// goodShare is the optimal fraction above which a field is reported as good.
const goodShare = 0.95

// Report is the aggregate view of one dataset.
type Report struct {
	RunID           string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source          string          `json:"source" yaml:"source"`
	Total           int             `json:"total" yaml:"total"`
	Categories      []CategoryShare `json:"categories" yaml:"categories"`
	TargetPassCount *float64        `json:"target_pass_count,omitempty" yaml:"target_pass_count,omitempty"`
	PassCount       *Summary        `json:"pass_count,omitempty" yaml:"pass_count,omitempty"`
	Easting         *Range          `json:"easting,omitempty" yaml:"easting,omitempty"`
	Northing        *Range          `json:"northing,omitempty" yaml:"northing,omitempty"`
	Elevation       *Range          `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	Sensors         []Sensor        `json:"sensors,omitempty" yaml:"sensors,omitempty"`
}

// CategoryShare is the count and percentage of one category.
type CategoryShare struct {
	Category quality.Category `json:"category" yaml:"category"`
	Label    string           `json:"label" yaml:"label"`
	Count    int              `json:"count" yaml:"count"`
	Percent  float64          `json:"percent" yaml:"percent"`
}

// Summary describes the distribution of a column's present values.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
}

// Range is a min/max pair.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Sensor is coverage and mean of an optional sensor column.
type Sensor struct {
	Column string  `json:"column" yaml:"column"`
	Label  string  `json:"label" yaml:"label"`
	Valid  int     `json:"valid" yaml:"valid"`
	Total  int     `json:"total" yaml:"total"`
	Mean   float64 `json:"mean" yaml:"mean"`
}

// Compute builds the report. cats must be parallel to ds.Samples.
func Compute(ds *telemetry.Dataset, cats []quality.Category) Report {
	r := Report{Source: ds.Path, Total: ds.Len()}

	counts := quality.Tally(cats)
	for _, c := range quality.Categories {
		share := CategoryShare{Category: c, Label: c.Label(), Count: counts.Of(c)}
		if r.Total > 0 {
			share.Percent = 100 * float64(share.Count) / float64(r.Total)
		}
		r.Categories = append(r.Categories, share)
	}

	for _, s := range ds.Samples {
		if s.TargetPassCount.Valid {
			v := s.TargetPassCount.V
			r.TargetPassCount = &v
			break
		}
	}

	r.PassCount = summarize(ds.Values(telemetry.ColPassCount))
	r.Easting = rangeOf(ds.Values(telemetry.ColEasting))
	r.Northing = rangeOf(ds.Values(telemetry.ColNorthing))
	r.Elevation = rangeOf(ds.Values(telemetry.ColElevation))

	for _, col := range ds.Sensors() {
		vals := ds.Values(col)
		if len(vals) == 0 {
			continue
		}
		r.Sensors = append(r.Sensors, Sensor{
			Column: col,
			Label:  telemetry.SensorLabel(col),
			Valid:  len(vals),
			Total:  r.Total,
			Mean:   stat.Mean(vals, nil),
		})
	}

	return r
}

func summarize(vals []float64) *Summary {
	if len(vals) == 0 {
		return nil
	}
	return &Summary{
		Count:  len(vals),
		Min:    floats.Min(vals),
		Max:    floats.Max(vals),
		Mean:   stat.Mean(vals, nil),
		Median: Median(vals),
	}
}

func rangeOf(vals []float64) *Range {
	if len(vals) == 0 {
		return nil
	}
	return &Range{Min: floats.Min(vals), Max: floats.Max(vals)}
}

// Median averages the two middle values for even-length input. vals is not
// modified. Returns 0 for empty input.
func Median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Share returns the entry for category c.
func (r Report) Share(c quality.Category) CategoryShare {
	for _, s := range r.Categories {
		if s.Category == c {
			return s
		}
	}
	return CategoryShare{Category: c, Label: c.Label()}
}

// Status is the one-line headline used as a plot subtitle.
func (r Report) Status() string {
	under, optimal, over := r.Share(quality.Under).Count, r.Share(quality.Optimal).Count, r.Share(quality.Over).Count
	var parts []string
	if under > 0 {
		parts = append(parts, fmt.Sprintf("%d UNDER-COMPACTED", under))
	}
	if over > 0 {
		parts = append(parts, fmt.Sprintf("%d OVER-COMPACTED", over))
	}
	if r.Total > 0 && optimal == r.Total {
		parts = append(parts, "ALL OPTIMAL")
	}
	if len(parts) == 0 {
		return "Analysis complete"
	}
	return strings.Join(parts, " | ")
}

// Assessment returns the closing verdict lines of the text report.
func (r Report) Assessment() []string {
	if r.Total == 0 {
		return nil
	}
	under, optimal := r.Share(quality.Under).Count, r.Share(quality.Optimal).Count
	var out []string
	if under > 0 {
		out = append(out, fmt.Sprintf("WARNING: %d points are under-compacted and need additional passes", under))
	}
	switch share := float64(optimal) / float64(r.Total); {
	case optimal == r.Total:
		out = append(out, "EXCELLENT: All points meet target compaction")
	case share > goodShare:
		out = append(out, fmt.Sprintf("GOOD: %.1f%% of points meet target compaction", 100*share))
	}
	return out
}
