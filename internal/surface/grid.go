package surface

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// Field selects the scalar a grid is built from.
type Field struct {
	Name  string
	Value func(telemetry.Sample) telemetry.Value
}

// DeltaField is PassCount - TargPassCount.
var DeltaField = Field{
	Name:  "delta",
	Value: func(s telemetry.Sample) telemetry.Value { return s.Delta() },
}

// CategoryField is the classification as -1, 0 or +1. Every positioned
// sample carries it.
var CategoryField = Field{
	Name: "quality",
	Value: func(s telemetry.Sample) telemetry.Value {
		return telemetry.Some(float64(quality.Classify(s.Delta())))
	},
}

// ColumnField reads a named CSV column.
func ColumnField(col string) Field {
	return Field{
		Name:  col,
		Value: func(s telemetry.Sample) telemetry.Value { return s.Field(col) },
	}
}

// Grid is a dense row-major reconstruction. Row 0 is the southern edge and
// column 0 the western edge; both edges are sampled.
type Grid struct {
	Field  string
	Bounds *geom.Bounds
	Sites  int

	cols, rows int
	values     []float64
	min, max   float64
}

// NewNearest indexes the samples that have coordinates and a value for field.
func NewNearest(samples []telemetry.Sample, field Field) (*Nearest, error) {
	var s sites
	for _, smp := range samples {
		if !smp.HasPosition() {
			continue
		}
		v := field.Value(smp)
		if !v.Valid {
			continue
		}
		s = append(s, site{X: smp.Easting.V, Y: smp.Northing.V, V: v.V})
	}
	if len(s) == 0 {
		return nil, eris.Wrapf(ErrNoSites, "surface: field %s", field.Name)
	}
	return newNearest(s), nil
}

// Build reconstructs field over the padded extent of samples. The extent
// covers every positioned sample, including those with no value for field.
func Build(samples []telemetry.Sample, field Field, opts Options) (*Grid, error) {
	if opts.Resolution < 2 {
		return nil, eris.Errorf("surface: resolution must be at least 2, got %d", opts.Resolution)
	}
	nn, err := NewNearest(samples, field)
	if err != nil {
		return nil, err
	}
	bounds, err := Extent(samples, opts)
	if err != nil {
		return nil, err
	}

	n := opts.Resolution
	g := &Grid{
		Field:  field.Name,
		Bounds: bounds,
		Sites:  nn.Len(),
		cols:   n,
		rows:   n,
		values: make([]float64, n*n),
		min:    math.Inf(1),
		max:    math.Inf(-1),
	}
	for r := 0; r < n; r++ {
		y := g.Y(r)
		for c := 0; c < n; c++ {
			v := nn.At(g.X(c), y)
			g.values[r*n+c] = v
			g.min = math.Min(g.min, v)
			g.max = math.Max(g.max, v)
		}
	}

	zap.L().Debug("surface: grid built",
		zap.String("field", field.Name),
		zap.Int("sites", g.Sites),
		zap.Int("resolution", n),
		zap.Float64("min", g.min),
		zap.Float64("max", g.max),
	)
	return g, nil
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (c, r int) { return g.cols, g.rows }

// Z returns the value at column c, row r.
func (g *Grid) Z(c, r int) float64 { return g.values[r*g.cols+c] }

// X returns the easting of column c.
func (g *Grid) X(c int) float64 { return lerp(g.Bounds.Min(0), g.Bounds.Max(0), c, g.cols) }

// Y returns the northing of row r.
func (g *Grid) Y(r int) float64 { return lerp(g.Bounds.Min(1), g.Bounds.Max(1), r, g.rows) }

// Min is the smallest cell value.
func (g *Grid) Min() float64 { return g.min }

// Max is the largest cell value.
func (g *Grid) Max() float64 { return g.max }

// Range is Max - Min.
func (g *Grid) Range() float64 { return g.max - g.min }

func lerp(lo, hi float64, i, n int) float64 {
	if i == n-1 {
		return hi
	}
	return lo + float64(i)*(hi-lo)/float64(n-1)
}
