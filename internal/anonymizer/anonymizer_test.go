package anonymizer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmitucha/compactmapper/internal/csvio"
)

const export = "\xEF\xBB\xBFTime,DesignName,Machine,MeasuredData,CellN_m,CellE_m,PassCount\n" +
	"2025/Oct/01 09:30:02.800,RoadA,CB10,Day1,4100000.125,500000,2\n" +
	"2025/Oct/01 09:31:00.000,RoadA,CB10,Day1,4100001,500001.5,3\n" +
	"2025/Oct/01 09:32:00.000,RoadB,CB12,Day1,?,bad,4\n" +
	"2025/Oct/01 09:33:00.000,,CB12,Day1,4100002,500002,5\n"

func setup(t *testing.T, content string) (in, out string) {
	t.Helper()
	dir := t.TempDir()
	in = filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(content), 0o644))
	return in, filepath.Join(dir, "out.csv")
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestShift(t *testing.T) {
	tests := []struct {
		name   string
		cell   string
		by     float64
		want   string
		wantOK bool
	}{
		{"north", "4100000", 1000, "4101000.000", true},
		{"south", "4100000.1254", -1500000, "2600000.125", true},
		{"zero", "12.5", 0, "12.500", true},
		{"padded", " 7 ", 1, "8.000", true},
		{"blank", "", 1000, "", false},
		{"missing token", "?", 1000, "?", false},
		{"text", "bad", 1000, "bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Shift(tt.cell, tt.by)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "north", Direction(1000, "north", "south"))
	assert.Equal(t, "south", Direction(-1, "north", "south"))
	assert.Equal(t, "no shift", Direction(0, "east", "west"))
}

func TestSubstituter_Consistent(t *testing.T) {
	s := NewSubstituter(42)

	a := s.Replace("DesignName", "RoadA")
	b := s.Replace("DesignName", "RoadB")
	assert.NotEqual(t, "RoadA", a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, s.Replace("DesignName", "RoadA"))
	assert.Equal(t, 2, s.Count("DesignName"))

	assert.Regexp(t, `^Machine-\S+-\d{2}`, s.Replace("Machine", "CB10"))
	assert.Regexp(t, `^Dataset-\S+-\d{4}`, s.Replace("MeasuredData", "Day1"))

	assert.Equal(t, "", s.Replace("DesignName", ""))
	assert.Equal(t, "Alice", s.Replace("Operator", "Alice"))
	assert.False(t, s.Handles("Operator"))
}

func TestSubstituter_SeedIsReproducible(t *testing.T) {
	a, b := NewSubstituter(7), NewSubstituter(7)
	for _, v := range []string{"RoadA", "RoadB", "RoadC"} {
		assert.Equal(t, a.Replace("DesignName", v), b.Replace("DesignName", v))
	}
}

func TestAnonymize(t *testing.T) {
	in, out := setup(t, export)

	opts := DefaultOptions
	opts.Seed = 1
	res, err := Anonymize(in, out, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, 6, res.Shifted)
	assert.Equal(t, map[string]int{"DesignName": 2, "Machine": 2, "MeasuredData": 1}, res.Replaced)

	rows := readRows(t, out)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Time", "DesignName", "Machine", "MeasuredData", "CellN_m", "CellE_m", "PassCount"}, rows[0])

	first, second, third, fourth := rows[1], rows[2], rows[3], rows[4]
	assert.Equal(t, "2025/Oct/01 09:30:02.800", first[0])
	assert.Equal(t, "4101000.125", first[4])
	assert.Equal(t, "501000.000", first[5])
	assert.Equal(t, "2", first[6])
	assert.Equal(t, "501001.500", second[5])

	assert.NotEqual(t, "RoadA", first[1])
	assert.Equal(t, first[1], second[1])
	assert.NotEqual(t, first[1], third[1])
	assert.Equal(t, first[2], second[2])
	assert.Equal(t, third[2], fourth[2])
	assert.Equal(t, first[3], fourth[3])

	assert.Equal(t, "?", third[4])
	assert.Equal(t, "bad", third[5])
	assert.Equal(t, "", fourth[1])
}

func TestAnonymize_NoShiftColumns(t *testing.T) {
	in, out := setup(t, "DesignName;PassCount\nRoadA;1\n")

	opts := DefaultOptions
	opts.CSV = csvio.DefaultOptions.WithDelimiter(';')
	res, err := Anonymize(in, out, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.Zero(t, res.Shifted)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "DesignName;PassCount\n")
	assert.NotContains(t, string(b), "RoadA")
}

func TestAnonymize_HeaderOnly(t *testing.T) {
	in, out := setup(t, "CellN_m,CellE_m\n")

	res, err := Anonymize(in, out, DefaultOptions)
	require.NoError(t, err)
	assert.Zero(t, res.Rows)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "CellN_m,CellE_m\n", string(b))
}

func TestAnonymize_Errors(t *testing.T) {
	_, err := Anonymize(filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "out.csv"), DefaultOptions)
	assert.Error(t, err)

	in, _ := setup(t, "")
	_, err = Anonymize(in, filepath.Join(t.TempDir(), "out.csv"), DefaultOptions)
	require.Error(t, err)
	assert.ErrorIs(t, err, csvio.ErrNoHeader)
}
