package telemetry

// Sample is one telemetry row.
type Sample struct {
	Row             int // 1-based data row in the source file
	Easting         Value
	Northing        Value
	Elevation       Value
	PassCount       Value
	TargetPassCount Value
	Sensors         map[string]Value
}

// Delta is PassCount - TargetPassCount.
func (s Sample) Delta() Value { return Sub(s.PassCount, s.TargetPassCount) }

// HasPosition reports whether both planar coordinates are present.
func (s Sample) HasPosition() bool { return s.Easting.Valid && s.Northing.Valid }

// Field returns the reading for a column name, Missing when unknown.
func (s Sample) Field(col string) Value {
	switch col {
	case ColEasting:
		return s.Easting
	case ColNorthing:
		return s.Northing
	case ColElevation:
		return s.Elevation
	case ColPassCount:
		return s.PassCount
	case ColTargetPassCount:
		return s.TargetPassCount
	}
	return s.Sensors[col]
}

// Dataset is an immutable, fully loaded telemetry file.
type Dataset struct {
	Path    string
	Columns []string
	Samples []Sample
	// Missing counts cells per column that were absent or failed coercion.
	Missing map[string]int
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Samples) }

// Has reports whether the source header carried col.
func (d *Dataset) Has(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Positioned returns the samples with both coordinates present.
func (d *Dataset) Positioned() []Sample {
	out := make([]Sample, 0, len(d.Samples))
	for _, s := range d.Samples {
		if s.HasPosition() {
			out = append(out, s)
		}
	}
	return out
}

// Values returns the present readings of col in row order.
func (d *Dataset) Values(col string) []float64 {
	out := make([]float64, 0, len(d.Samples))
	for _, s := range d.Samples {
		if v := s.Field(col); v.Valid {
			out = append(out, v.V)
		}
	}
	return out
}

// Sensors returns the optional sensor columns present in the header, in
// canonical order.
func (d *Dataset) Sensors() []string {
	var out []string
	for _, col := range SensorColumns {
		if d.Has(col) {
			out = append(out, col)
		}
	}
	return out
}
