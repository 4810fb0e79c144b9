// Package telemetry loads compaction machine exports into memory.
package telemetry

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/csvio"
)

// Load reads a telemetry CSV from path.
//
// The file must exist and carry a .csv extension; the extension is checked
// before any byte is read. Unparseable cells become Missing rather than
// failing the load.
func Load(path string) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: InputNotFound, Path: path, Err: err}
		}
		return nil, eris.Wrapf(err, "telemetry: stat %s", path)
	}
	if info.IsDir() {
		return nil, &LoadError{Kind: InputNotFound, Path: path, Err: eris.New("path is a directory")}
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, &LoadError{Kind: UnsupportedFormat, Path: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "telemetry: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Read(f, path)
}

// Read parses telemetry CSV from r. name is used in errors and logs.
func Read(r io.Reader, name string) (*Dataset, error) {
	cr := csvio.NewReader(r, csvio.DefaultOptions)
	header, err := cr.ReadHeader()
	if errors.Is(err, csvio.ErrNoHeader) {
		return nil, &LoadError{Kind: MissingHeader, Path: name, Err: err}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "telemetry: read %s", name)
	}
	if missing := header.Missing(RequiredColumns...); len(missing) > 0 {
		return nil, &LoadError{Kind: MissingRequiredColumns, Path: name, Columns: missing}
	}

	ds := &Dataset{
		Path:    name,
		Columns: header.Names,
		Missing: make(map[string]int),
	}
	sensors := ds.Sensors()

	coerce := func(row []string, col string) Value {
		v := ParseValue(header.Get(row, col))
		if !v.Valid {
			ds.Missing[col]++
		}
		return v
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "telemetry: parse %s", name)
		}

		s := Sample{
			Row:             cr.Rows(),
			Easting:         coerce(row, ColEasting),
			Northing:        coerce(row, ColNorthing),
			Elevation:       coerce(row, ColElevation),
			PassCount:       coerce(row, ColPassCount),
			TargetPassCount: coerce(row, ColTargetPassCount),
		}
		if len(sensors) > 0 {
			s.Sensors = make(map[string]Value, len(sensors))
			for _, col := range sensors {
				s.Sensors[col] = coerce(row, col)
			}
		}
		ds.Samples = append(ds.Samples, s)
	}

	for _, col := range append(append([]string{}, RequiredColumns...), sensors...) {
		if n := ds.Missing[col]; n > 0 {
			zap.L().Debug("telemetry: missing cells",
				zap.String("file", name),
				zap.String("column", col),
				zap.Int("count", n),
			)
		}
	}
	zap.L().Info("telemetry: loaded dataset",
		zap.String("file", name),
		zap.Int("rows", ds.Len()),
		zap.Int("sensors", len(sensors)),
	)

	return ds, nil
}
