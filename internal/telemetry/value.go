package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mmitucha/compactmapper/internal/csvio"
)

// Value is a numeric cell that may be missing. The zero Value is missing.
type Value struct {
	V     float64
	Valid bool
}

// Missing is the absent reading.
var Missing = Value{}

// Some returns a present reading.
func Some(v float64) Value { return Value{V: v, Valid: true} }

// ParseValue coerces a raw cell. Placeholders, unparseable text and
// non-finite numbers all become Missing.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if csvio.IsMissingToken(s) {
		return Missing
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Some(f)
}

// Sub returns a - b, missing if either side is.
func Sub(a, b Value) Value {
	if !a.Valid || !b.Valid {
		return Missing
	}
	return Some(a.V - b.V)
}

func (v Value) String() string {
	if !v.Valid {
		return "NA"
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

// MarshalJSON encodes a missing reading as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}
