// Package quality classifies telemetry samples against their pass target.
package quality

import (
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// Category is the compaction outcome of one sample.
type Category int8

// Categories, ordered by delta sign.
const (
	Under   Category = -1
	Optimal Category = 0
	Over    Category = 1
)

// Categories lists every category in legend order.
var Categories = []Category{Under, Optimal, Over}

func (c Category) String() string {
	switch c {
	case Under:
		return "under"
	case Optimal:
		return "optimal"
	case Over:
		return "over"
	}
	return "unknown"
}

// Label is the legend text for the category.
func (c Category) Label() string {
	switch c {
	case Under:
		return "Under Target"
	case Optimal:
		return "At Target"
	case Over:
		return "Over Target"
	}
	return "Unknown"
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Classify maps a pass-count delta to a category.
// Rules:
//   - missing delta: Optimal
//   - delta < 0: Under
//   - delta == 0: Optimal
//   - delta > 0: Over
func Classify(delta telemetry.Value) Category {
	switch {
	case !delta.Valid:
		// Rows without a usable pass count are treated as on target.
		return Optimal
	case delta.V < 0:
		return Under
	case delta.V > 0:
		return Over
	}
	return Optimal
}

// ClassifyAll classifies each sample independently, in input order.
func ClassifyAll(samples []telemetry.Sample) []Category {
	out := make([]Category, len(samples))
	for i, s := range samples {
		out[i] = Classify(s.Delta())
	}
	return out
}

// Counts tallies categories.
type Counts struct {
	Under   int `json:"under" yaml:"under"`
	Optimal int `json:"optimal" yaml:"optimal"`
	Over    int `json:"over" yaml:"over"`
}

// Tally counts each category in cats.
func Tally(cats []Category) Counts {
	var c Counts
	for _, cat := range cats {
		switch cat {
		case Under:
			c.Under++
		case Optimal:
			c.Optimal++
		case Over:
			c.Over++
		}
	}
	return c
}

// Total is the sum of all categories.
func (c Counts) Total() int { return c.Under + c.Optimal + c.Over }

// Of returns the count for one category.
func (c Counts) Of(cat Category) int {
	switch cat {
	case Under:
		return c.Under
	case Optimal:
		return c.Optimal
	case Over:
		return c.Over
	}
	return 0
}
