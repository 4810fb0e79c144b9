package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/csvio"
	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/render"
	"github.com/mmitucha/compactmapper/internal/stats"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// loadContext runs load, classify and stats for path and returns a render
// context configured from cfg.
func loadContext(path string) (*render.Context, error) {
	if path == "" {
		return nil, eris.New("--file is required")
	}
	ds, err := telemetry.Load(path)
	if err != nil {
		return nil, err
	}

	cats := quality.ClassifyAll(ds.Samples)
	report := stats.Compute(ds, cats)
	report.RunID = runID

	counts := quality.Tally(cats)
	zap.L().Info("classified samples",
		zap.String("file", path),
		zap.Int("under", counts.Under),
		zap.Int("optimal", counts.Optimal),
		zap.Int("over", counts.Over),
	)

	var undetermined int
	for _, smp := range ds.Samples {
		if !smp.Delta().Valid {
			undetermined++
		}
	}
	if undetermined > 0 {
		zap.L().Warn("samples without a pass delta counted as optimal",
			zap.String("file", path),
			zap.Int("count", undetermined),
		)
	}

	rc := render.NewContext(ds, cats, report)
	if cfg != nil {
		rc.Configure(cfg)
	}
	return rc, nil
}

// csvOptions returns the export reader options with the separator named by
// a --delimiter flag.
func csvOptions(delimiter string) (csvio.Options, error) {
	d, err := csvio.ParseDelimiter(delimiter)
	if err != nil {
		return csvio.Options{}, err
	}
	return csvio.DefaultOptions.WithDelimiter(d), nil
}
