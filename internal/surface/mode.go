package surface

import (
	"math"

	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// Mode is how a reconstructed grid is drawn.
type Mode int

// Rendering modes.
const (
	// FlatFill paints the whole extent one colour; the grid has no variation
	// worth banding.
	FlatFill Mode = iota + 1
	// BandedContour splits the value range into equal-width bands.
	BandedContour
)

func (m Mode) String() string {
	switch m {
	case FlatFill:
		return "flat_fill"
	case BandedContour:
		return "banded_contour"
	}
	return "unknown"
}

// SelectMode returns FlatFill when the grid's value range is below epsilon.
func SelectMode(g *Grid, epsilon float64) Mode {
	if g.Range() < epsilon {
		return FlatFill
	}
	return BandedContour
}

// Levels returns n+1 equal-width boundaries spanning [lo, hi].
func Levels(lo, hi float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n] = hi
	return out
}

// Band returns the index of the band containing v, clamped to
// [0, len(levels)-2]. The top boundary belongs to the last band.
func Band(levels []float64, v float64) int {
	last := len(levels) - 2
	if last < 0 || math.IsNaN(v) {
		return 0
	}
	for i := 0; i < last; i++ {
		if v < levels[i+1] {
			return i
		}
	}
	return last
}

// Surface is a grid plus its drawing decision.
type Surface struct {
	Grid   *Grid
	Mode   Mode
	Levels []float64 // only for BandedContour
}

// Reconstruct builds the grid for field and selects a drawing mode.
func Reconstruct(samples []telemetry.Sample, field Field, opts Options) (*Surface, error) {
	g, err := Build(samples, field, opts)
	if err != nil {
		return nil, err
	}
	s := &Surface{Grid: g, Mode: SelectMode(g, opts.FlatEpsilon)}
	if s.Mode == BandedContour {
		s.Levels = Levels(g.Min(), g.Max(), opts.Levels)
	}
	return s, nil
}

// FlatValue is the value painted by a FlatFill surface.
func (s *Surface) FlatValue() float64 { return s.Grid.Min() }

// FlatCategory classifies the flat value as a pass-count delta.
func (s *Surface) FlatCategory() quality.Category {
	return quality.Classify(telemetry.Some(s.FlatValue()))
}
