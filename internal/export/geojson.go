// Package export writes classified telemetry in interchange formats.
package export

import (
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/quality"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// FeatureCollection converts the positioned samples to GeoJSON point
// features in the source grid coordinates. Samples without coordinates are
// skipped; cats must be parallel to ds.Samples.
func FeatureCollection(ds *telemetry.Dataset, cats []quality.Category) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	sensors := ds.Sensors()

	var flat []float64
	for i, s := range ds.Samples {
		if !s.HasPosition() {
			continue
		}
		cat := quality.Classify(s.Delta())
		if i < len(cats) {
			cat = cats[i]
		}

		props := map[string]interface{}{
			"row":               s.Row,
			"quality":           cat.String(),
			"pass_count":        s.PassCount,
			"target_pass_count": s.TargetPassCount,
			"delta":             s.Delta(),
			"elevation":         s.Elevation,
		}
		for _, col := range sensors {
			props[col] = s.Sensors[col]
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         strconv.Itoa(s.Row),
			Geometry:   geom.NewPointFlat(geom.XY, []float64{s.Easting.V, s.Northing.V}),
			Properties: props,
		})
		flat = append(flat, s.Easting.V, s.Northing.V)
	}

	if len(flat) > 0 {
		fc.BBox = geom.NewBounds(geom.XY).Extend(geom.NewMultiPointFlat(geom.XY, flat))
	}
	return fc
}

// WriteGeoJSON encodes the feature collection for ds to w.
func WriteGeoJSON(w io.Writer, ds *telemetry.Dataset, cats []quality.Category) error {
	fc := FeatureCollection(ds, cats)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	zap.L().Debug("export: wrote geojson", zap.Int("features", len(fc.Features)))
	return nil
}

// SaveGeoJSON writes the feature collection for ds to path.
func SaveGeoJSON(path string, ds *telemetry.Dataset, cats []quality.Category) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := WriteGeoJSON(f, ds, cats); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}
	zap.L().Info("exported geojson", zap.String("path", path), zap.String("source", ds.Path))
	return nil
}
