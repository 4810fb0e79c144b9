package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmitucha/compactmapper/internal/telemetry"
)

func sample(pass, targ telemetry.Value) telemetry.Sample {
	return telemetry.Sample{PassCount: pass, TargetPassCount: targ}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		delta    telemetry.Value
		expected Category
	}{
		{name: "under: one pass short", delta: telemetry.Some(-1), expected: Under},
		{name: "under: far short", delta: telemetry.Some(-7), expected: Under},
		{name: "under: fractional", delta: telemetry.Some(-0.5), expected: Under},
		{name: "optimal: exact", delta: telemetry.Some(0), expected: Optimal},
		{name: "over: one extra", delta: telemetry.Some(1), expected: Over},
		{name: "over: fractional", delta: telemetry.Some(0.25), expected: Over},
		{name: "optimal: missing", delta: telemetry.Missing, expected: Optimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.delta))
		})
	}
}

func TestClassifyAll_ThreeRows(t *testing.T) {
	samples := []telemetry.Sample{
		sample(telemetry.Some(2), telemetry.Some(3)),
		sample(telemetry.Some(3), telemetry.Some(3)),
		sample(telemetry.Some(4), telemetry.Some(3)),
	}
	assert.Equal(t, []Category{Under, Optimal, Over}, ClassifyAll(samples))
}

func TestClassifyAll_MissingPassCount(t *testing.T) {
	samples := []telemetry.Sample{
		sample(telemetry.Missing, telemetry.Some(3)),
		sample(telemetry.Some(3), telemetry.Missing),
	}
	assert.Equal(t, []Category{Optimal, Optimal}, ClassifyAll(samples))
}

func TestClassifyAll_OrderIndependent(t *testing.T) {
	samples := []telemetry.Sample{
		sample(telemetry.Some(1), telemetry.Some(3)),
		sample(telemetry.Some(5), telemetry.Some(3)),
		sample(telemetry.Some(3), telemetry.Some(3)),
		sample(telemetry.Missing, telemetry.Some(3)),
	}
	forward := ClassifyAll(samples)

	reversed := make([]telemetry.Sample, len(samples))
	for i, s := range samples {
		reversed[len(samples)-1-i] = s
	}
	backward := ClassifyAll(reversed)

	for i := range samples {
		assert.Equal(t, forward[i], backward[len(samples)-1-i])
	}
}

func TestTally(t *testing.T) {
	cats := []Category{Under, Optimal, Over, Optimal, Optimal}
	c := Tally(cats)
	assert.Equal(t, Counts{Under: 1, Optimal: 3, Over: 1}, c)
	assert.Equal(t, len(cats), c.Total())
	assert.Equal(t, 3, c.Of(Optimal))
	assert.Equal(t, 0, Tally(nil).Total())
}

func TestCategoryNames(t *testing.T) {
	for _, c := range Categories {
		assert.NotEqual(t, "unknown", c.String())
		assert.NotEqual(t, "Unknown", c.Label())
	}
	assert.Equal(t, "unknown", Category(5).String())

	text, err := Over.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "over", string(text))
}
