// Package surface reconstructs a dense grid from scattered samples by
// nearest-neighbour assignment.
package surface

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/mmitucha/compactmapper/internal/config"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// ErrNoSites is returned when no sample has both coordinates and a value.
var ErrNoSites = eris.New("surface: no samples with coordinates and a value")

// Options controls grid construction.
type Options struct {
	Resolution     int     // cells per axis
	PadFraction    float64 // padding as a fraction of the axis extent
	MinExtent      float64 // extents below this are replaced by FallbackExtent
	FallbackExtent float64
	Levels         int     // contour bands
	FlatEpsilon    float64 // value ranges below this render as a flat fill
}

// DefaultOptions returns the standard 200x200, five band settings.
func DefaultOptions() Options {
	return Options{
		Resolution:     200,
		PadFraction:    0.1,
		MinExtent:      0.1,
		FallbackExtent: 5.0,
		Levels:         5,
		FlatEpsilon:    0.01,
	}
}

// OptionsFrom maps the grid configuration section.
func OptionsFrom(cfg config.GridConfig) Options {
	return Options{
		Resolution:     cfg.Resolution,
		PadFraction:    cfg.PadFraction,
		MinExtent:      cfg.MinExtent,
		FallbackExtent: cfg.FallbackExtent,
		Levels:         cfg.Levels,
		FlatEpsilon:    cfg.FlatEpsilon,
	}
}

// Extent returns the padded bounding box of the positioned samples.
func Extent(samples []telemetry.Sample, opts Options) (*geom.Bounds, error) {
	flat := make([]float64, 0, 2*len(samples))
	for _, s := range samples {
		if s.HasPosition() {
			flat = append(flat, s.Easting.V, s.Northing.V)
		}
	}
	if len(flat) == 0 {
		return nil, ErrNoSites
	}
	b := geom.NewBounds(geom.XY).Extend(geom.NewMultiPointFlat(geom.XY, flat))
	return Pad(b, opts), nil
}

// Pad widens each axis of b by PadFraction of its extent. An axis narrower
// than MinExtent is treated as FallbackExtent wide, so a single point or a
// line of samples still yields an area.
func Pad(b *geom.Bounds, opts Options) *geom.Bounds {
	var lo, hi [2]float64
	for dim := 0; dim < 2; dim++ {
		extent := b.Max(dim) - b.Min(dim)
		if extent < opts.MinExtent {
			extent = opts.FallbackExtent
		}
		pad := extent * opts.PadFraction
		lo[dim], hi[dim] = b.Min(dim)-pad, b.Max(dim)+pad
	}
	return geom.NewBounds(geom.XY).Set(lo[0], lo[1], hi[0], hi[1])
}
