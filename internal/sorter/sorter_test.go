package sorter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025/Oct/01 09:30:02.800")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", got)

	got, err = ParseDate("2025/Oct/01 09:30:02")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", got)

	_, err = ParseDate("01.10.2025")
	assert.Error(t, err)
}

func TestNormalizeAmp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0.97", "097"},
		{"2.10", "210"},
		{"1.5", "15"},
		{"1.2345", "123"},
		{"", NoAmp},
		{"?", NoAmp},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAmp(tt.in), tt.in)
	}
}

func TestKeyFilename(t *testing.T) {
	assert.Equal(t, "2025-10-01designRoadAamp097.csv", Key{"2025-10-01", "RoadA", "097"}.Filename())
	assert.Equal(t, "2025-10-01designRoadAamp.csv", Key{"2025-10-01", "RoadA", NoAmp}.Filename())
	assert.Equal(t, "2025-10-01designab.csvamp097.csv", Key{"2025-10-01", `a/b".csv`, "097"}.Filename())
}

const export = "\xEF\xBB\xBFTime,DesignName,LastAmp,CellE_m\n" +
	"2025/Oct/01 09:30:02.800,RoadA,0.97,1\n" +
	"2025/Oct/01 09:31:00.000,RoadA,0.97,2\n" +
	"2025/Oct/01 10:00:00.000,RoadA,2.10,3\n" +
	"2025/Oct/02 08:00:00.000,RoadB,?,4\n" +
	"garbage,RoadB,1.0,5\n"

func skipping(log io.Writer) Options {
	opts := DefaultOptions
	opts.SkipErrors = true
	opts.ErrorLog = log
	return opts
}

func TestSortFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", export)
	out := filepath.Join(dir, "sorted")

	var log bytes.Buffer
	res, err := SortFile(in, out, skipping(&log))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Outputs, 3)
	assert.Contains(t, log.String(), "File: in.csv, Row 6: error parsing date from 'garbage'")
	assert.Contains(t, log.String(), "File: in.csv - Total skipped rows during sorting: 1")

	rows := readCSV(t, filepath.Join(out, "2025-10-01designRoadAamp097.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Time", "DesignName", "LastAmp", "CellE_m"}, rows[0])
	assert.Equal(t, "1", rows[1][3])
	assert.Equal(t, "2", rows[2][3])

	rows = readCSV(t, filepath.Join(out, "2025-10-02designRoadBamp.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "4", rows[1][3])
}

func TestSortFile_FailsOnBadTimeByDefault(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", export)
	out := filepath.Join(dir, "sorted")

	res, err := SortFile(in, out, DefaultOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 6")
	assert.Empty(t, res.Outputs)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output is written for a failed file")
}

func TestSortFile_Delimiter(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "Time;DesignName;LastAmp\n2025/Oct/01 09:30:02.800;RoadA;0.97\n")
	out := filepath.Join(dir, "sorted")

	opts := DefaultOptions
	opts.CSV = opts.CSV.WithDelimiter(';')
	res, err := SortFile(in, out, opts)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	b, err := os.ReadFile(res.Outputs[0])
	require.NoError(t, err)
	assert.Equal(t, "Time;DesignName;LastAmp\n2025/Oct/01 09:30:02.800;RoadA;0.97\n", string(b))
}

func TestSortFile_AppendsWithoutSecondHeader(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", export)
	out := filepath.Join(dir, "sorted")

	_, err := SortFile(in, out, skipping(nil))
	require.NoError(t, err)
	_, err = SortFile(in, out, skipping(nil))
	require.NoError(t, err)

	rows := readCSV(t, filepath.Join(out, "2025-10-01designRoadAamp210.csv"))
	require.Len(t, rows, 3)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "3", rows[1][3])
	assert.Equal(t, "3", rows[2][3])
}

func TestSortFile_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "Time,CellE_m\n2025/Oct/01 09:30:02.800,1\n")
	_, err := SortFile(in, filepath.Join(dir, "out"), DefaultOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DesignName, LastAmp")
}

func TestSortFile_NotFound(t *testing.T) {
	_, err := SortFile(filepath.Join(t.TempDir(), "nope.csv"), t.TempDir(), DefaultOptions)
	assert.Error(t, err)
}

func TestSortGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Time,DesignName,LastAmp\n2025/Oct/01 09:30:02.800,RoadA,0.97\n")
	writeFile(t, dir, "b.csv", "Time,DesignName,LastAmp\n2025/Oct/01 11:30:02.800,RoadA,0.97\n2025/Oct/03 11:30:02.800,RoadC,1.00\n")
	out := filepath.Join(dir, "sorted")

	res, err := SortGlob(filepath.Join(dir, "*.csv"), out, DefaultOptions)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inputs)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, []string{
		filepath.Join(out, "2025-10-01designRoadAamp097.csv"),
		filepath.Join(out, "2025-10-03designRoadCamp100.csv"),
	}, res.Outputs)

	rows := readCSV(t, res.Outputs[0])
	assert.Len(t, rows, 3)

	_, err = SortGlob(filepath.Join(dir, "*.txt"), out, DefaultOptions)
	assert.Error(t, err)
}

func TestSortGlob_SkipErrorsContinuesPastBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Time,CellE_m\n2025/Oct/01 09:30:02.800,1\n")
	writeFile(t, dir, "b.csv", "Time,DesignName,LastAmp\n2025/Oct/01 11:30:02.800,RoadA,0.97\n")
	out := filepath.Join(dir, "sorted")

	_, err := SortGlob(filepath.Join(dir, "*.csv"), out, DefaultOptions)
	require.Error(t, err)

	var log bytes.Buffer
	res, err := SortGlob(filepath.Join(dir, "*.csv"), out, skipping(&log))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inputs)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, []string{filepath.Join(dir, "a.csv")}, res.Failed)
	assert.Contains(t, log.String(), "Error processing a.csv")
}
