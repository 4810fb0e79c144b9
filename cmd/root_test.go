package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmitucha/compactmapper/internal/config"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

const fieldCSV = "CellE_m,CellN_m,Elevation_m,PassCount,TargPassCount,LastCMV\n" +
	"500000,4100000,101.5,2,4,30\n" +
	"500003,4100000,101.7,4,4,45\n" +
	"500006,4100002,101.9,6,4,60\n" +
	"500001,4100005,102.0,3,4,35\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "field.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testConfig uses a small grid and page so renders stay fast.
func testConfig() *config.Config {
	return &config.Config{
		Log: config.LogConfig{Level: "error", Format: "console"},
		Grid: config.GridConfig{
			Resolution:     20,
			PadFraction:    0.1,
			MinExtent:      0.1,
			FallbackExtent: 5,
			Levels:         5,
			FlatEpsilon:    0.01,
		},
		Render:  config.RenderConfig{WidthIn: 6, HeightIn: 4},
		Preview: config.PreviewConfig{Addr: "127.0.0.1:0"},
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"visualize", "stats", "export", "sort", "sample", "anonymize"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "compactmapper", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestVisualizeCommand_Flags(t *testing.T) {
	tests := []struct {
		name, short, def string
	}{
		{"file", "f", ""},
		{"type", "t", "quality"},
		{"output", "o", ""},
		{"stats", "s", "false"},
		{"report", "", ""},
	}
	for _, tt := range tests {
		flag := visualizeCmd.Flags().Lookup(tt.name)
		require.NotNil(t, flag, "visualize should have --%s", tt.name)
		assert.Equal(t, tt.short, flag.Shorthand, tt.name)
		assert.Equal(t, tt.def, flag.DefValue, tt.name)
	}
	assert.Contains(t, visualizeCmd.Flags().Lookup("file").Annotations, "cobra_annotation_bash_completion_one_required_flag")
}

func TestOtherCommand_Flags(t *testing.T) {
	assert.Equal(t, "text", statsCmd.Flags().Lookup("format").DefValue)
	assert.NotNil(t, statsCmd.Flags().Lookup("xlsx"))
	assert.NotNil(t, exportCmd.Flags().Lookup("output"))
	assert.NotNil(t, sortCmd.Flags().Lookup("files"))
	assert.Equal(t, "false", sortCmd.Flags().Lookup("skip-errors").DefValue)
	assert.Equal(t, "10", sampleCmd.Flags().Lookup("sample-count").DefValue)
	assert.Equal(t, "1000", anonymizeCmd.Flags().Lookup("north").DefValue)
	assert.Equal(t, "1000", anonymizeCmd.Flags().Lookup("west").DefValue)
	for _, c := range []*cobra.Command{sortCmd, sampleCmd, anonymizeCmd} {
		flag := c.Flags().Lookup("delimiter")
		require.NotNil(t, flag, "%s should have --delimiter", c.Name())
		assert.Equal(t, ",", flag.DefValue)
	}
}

func resetVisualize(t *testing.T) {
	t.Helper()
	cfg = testConfig()
	visualizeFile, visualizeType, visualizeOutput, visualizeReport = "", "quality", "", ""
	visualizeStats = false
	visualizeCmd.SetContext(context.Background())
	t.Cleanup(func() {
		visualizeCmd.SetOut(nil)
		visualizeCmd.SetContext(context.TODO())
	})
}

func TestVisualize_SavesImageAndStats(t *testing.T) {
	resetVisualize(t)
	dir := t.TempDir()
	visualizeFile = writeCSV(t, fieldCSV)
	visualizeOutput = filepath.Join(dir, "quality.png")
	visualizeReport = filepath.Join(dir, "report.json")
	visualizeStats = true

	var out bytes.Buffer
	visualizeCmd.SetOut(&out)
	require.NoError(t, visualizeCmd.RunE(visualizeCmd, nil))

	assert.Contains(t, out.String(), "=== Compaction Statistics ===")
	assert.Contains(t, out.String(), "Visualization saved to: "+visualizeOutput)

	info, err := os.Stat(visualizeOutput)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	b, err := os.ReadFile(visualizeReport)
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &report))
	assert.EqualValues(t, 4, report["total"])
}

func TestVisualize_AllViews(t *testing.T) {
	for _, view := range []string{"overview", "quality", "pass_count", "elevation", "cmv", "mdp"} {
		t.Run(view, func(t *testing.T) {
			resetVisualize(t)
			visualizeFile = writeCSV(t, fieldCSV)
			visualizeType = view
			visualizeOutput = filepath.Join(t.TempDir(), view+".svg")
			visualizeCmd.SetOut(&bytes.Buffer{})
			require.NoError(t, visualizeCmd.RunE(visualizeCmd, nil))
			_, err := os.Stat(visualizeOutput)
			assert.NoError(t, err)
		})
	}
}

func TestVisualize_Errors(t *testing.T) {
	t.Run("unknown view", func(t *testing.T) {
		resetVisualize(t)
		visualizeFile = writeCSV(t, fieldCSV)
		visualizeType = "contour"
		assert.Error(t, visualizeCmd.RunE(visualizeCmd, nil))
	})

	t.Run("bad output extension", func(t *testing.T) {
		resetVisualize(t)
		visualizeFile = writeCSV(t, fieldCSV)
		visualizeOutput = filepath.Join(t.TempDir(), "out.bmp")
		err := visualizeCmd.RunE(visualizeCmd, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported image extension")
	})

	t.Run("missing file", func(t *testing.T) {
		resetVisualize(t)
		visualizeFile = filepath.Join(t.TempDir(), "absent.csv")
		visualizeOutput = filepath.Join(t.TempDir(), "out.png")
		err := visualizeCmd.RunE(visualizeCmd, nil)
		require.Error(t, err)
		assert.True(t, telemetry.IsKind(err, telemetry.InputNotFound))
	})

	t.Run("wrong input format", func(t *testing.T) {
		resetVisualize(t)
		path := filepath.Join(t.TempDir(), "cloud.las")
		require.NoError(t, os.WriteFile(path, []byte("LASF"), 0o644))
		visualizeFile = path
		visualizeOutput = filepath.Join(t.TempDir(), "out.png")
		err := visualizeCmd.RunE(visualizeCmd, nil)
		require.Error(t, err)
		assert.True(t, telemetry.IsKind(err, telemetry.UnsupportedFormat))
	})

	t.Run("missing columns", func(t *testing.T) {
		resetVisualize(t)
		visualizeFile = writeCSV(t, "CellE_m,CellN_m\n1,2\n")
		visualizeOutput = filepath.Join(t.TempDir(), "out.png")
		err := visualizeCmd.RunE(visualizeCmd, nil)
		require.Error(t, err)
		assert.True(t, telemetry.IsKind(err, telemetry.MissingRequiredColumns))
		assert.Contains(t, err.Error(), "Elevation_m")
	})
}

func TestVisualize_InteractiveStopsOnCancel(t *testing.T) {
	resetVisualize(t)
	visualizeFile = writeCSV(t, fieldCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	visualizeCmd.SetContext(ctx)
	var out bytes.Buffer
	visualizeCmd.SetOut(&out)

	require.NoError(t, visualizeCmd.RunE(visualizeCmd, nil))
	assert.Contains(t, out.String(), "Preview at http://127.0.0.1:")
}

func TestStatsCommand(t *testing.T) {
	cfg = testConfig()
	statsFile = writeCSV(t, fieldCSV)
	statsFormat = "json"
	statsXLSX = filepath.Join(t.TempDir(), "report.xlsx")
	t.Cleanup(func() { statsCmd.SetOut(nil); statsCmd.SetErr(nil); statsFormat = "text"; statsXLSX = "" })

	var out, errOut bytes.Buffer
	statsCmd.SetOut(&out)
	statsCmd.SetErr(&errOut)
	require.NoError(t, statsCmd.RunE(statsCmd, nil))

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.EqualValues(t, 4, report["total"])
	assert.Contains(t, errOut.String(), "Workbook saved to")
	_, err := os.Stat(statsXLSX)
	assert.NoError(t, err)

	statsFormat = "toml"
	assert.Error(t, statsCmd.RunE(statsCmd, nil))
}

func TestExportCommand(t *testing.T) {
	cfg = testConfig()
	exportFile = writeCSV(t, fieldCSV)
	exportOutput = filepath.Join(t.TempDir(), "points.geojson")
	t.Cleanup(func() { exportCmd.SetOut(nil); exportOutput = "" })

	var out bytes.Buffer
	exportCmd.SetOut(&out)
	require.NoError(t, exportCmd.RunE(exportCmd, nil))
	assert.Contains(t, out.String(), "GeoJSON saved to")

	b, err := os.ReadFile(exportOutput)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"FeatureCollection"`)
}

func TestSortCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"),
		[]byte("Time,DesignName,LastAmp\n2025/Oct/01 09:30:02.800,RoadA,0.97\nbad,RoadA,0.97\n"), 0o644))
	sortFiles = filepath.Join(dir, "*.csv")
	sortOutput = filepath.Join(dir, "sorted")
	t.Cleanup(func() {
		sortCmd.SetOut(nil)
		sortFiles, sortOutput, sortDelimiter = "", "", ","
		sortSkipErrors = false
	})

	var out bytes.Buffer
	sortCmd.SetOut(&out)
	err := sortCmd.RunE(sortCmd, nil)
	require.Error(t, err, "unreadable timestamps fail without --skip-errors")
	assert.Contains(t, err.Error(), "line 3")

	sortSkipErrors = true
	require.NoError(t, sortCmd.RunE(sortCmd, nil))
	assert.Contains(t, out.String(), "Sorted 1 rows from 1 files into 1 outputs")
	assert.Contains(t, out.String(), "Skipped 1 rows")
	_, err = os.Stat(filepath.Join(dir, "sorted", "2025-10-01designRoadAamp097.csv"))
	assert.NoError(t, err)

	log, err := os.ReadFile(filepath.Join(dir, "sorted", "err.log"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "File: a.csv, Row 3: error parsing date from 'bad'")

	sortDelimiter = ";;"
	assert.Error(t, sortCmd.RunE(sortCmd, nil))
}

func TestSampleCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("DesignName,PassCount\nA,1\nA,2\nB,3\n"), 0o644))
	out := filepath.Join(dir, "out.csv")
	sampleCols, sampleCount = "DesignName", 2
	t.Cleanup(func() { sampleCmd.SetOut(nil); sampleCols, sampleCount, sampleDelimiter = "", 10, "," })

	var buf bytes.Buffer
	sampleCmd.SetOut(&buf)
	require.NoError(t, sampleCmd.RunE(sampleCmd, []string{in, out}))
	assert.Contains(t, buf.String(), "Sampled 3 rows from 2 groups")
	assert.Contains(t, buf.String(), "Warning: DesignName=B has only 1/2 rows")

	sampleCols = " , "
	assert.Error(t, sampleCmd.RunE(sampleCmd, []string{in, out}))
}

func TestAnonymizeCommand(t *testing.T) {
	in := writeCSV(t, "DesignName,Machine,CellN_m,CellE_m\nRoadA,CB10,4100000,500000\nRoadA,CB10,4100001,500001\n")
	out := filepath.Join(t.TempDir(), "shared.csv")
	anonNorth, anonEast, anonSeed = -1500, 200, 3
	t.Cleanup(func() {
		anonymizeCmd.SetOut(nil)
		anonNorth, anonEast, anonSeed, anonDelimiter = 1000, 1000, 0, ","
	})

	var buf bytes.Buffer
	anonymizeCmd.SetOut(&buf)
	require.NoError(t, anonymizeCmd.RunE(anonymizeCmd, []string{in, out}))
	assert.Contains(t, buf.String(), "Anonymized 2 rows")
	assert.Contains(t, buf.String(), "DesignName: 1 values replaced")
	assert.Contains(t, buf.String(), "North/South: -1500m (south)")
	assert.Contains(t, buf.String(), "West/East: +200m (east)")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "4098500.000,500200.000")
	assert.NotContains(t, string(b), "RoadA")

	anonDelimiter = "ab"
	assert.Error(t, anonymizeCmd.RunE(anonymizeCmd, []string{in, out}))
}
