// Package anonymizer prepares exports for sharing: positions are moved by a
// fixed offset and identifying text is replaced with generated names.
package anonymizer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/csvio"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// DefaultShift is the offset in metres applied to each axis.
const DefaultShift = 1000

// Options configures a run.
type Options struct {
	North float64 // metres added to CellN_m; negative moves south
	East  float64 // metres added to CellE_m; negative moves west
	Seed  uint64  // 0 picks a random seed
	CSV   csvio.Options
}

// DefaultOptions shifts one kilometre north and east.
var DefaultOptions = Options{North: DefaultShift, East: DefaultShift, CSV: csvio.DefaultOptions}

// Result summarises an anonymize run.
type Result struct {
	Rows     int
	Shifted  int            // coordinate cells rewritten
	Replaced map[string]int // distinct values replaced, per text column
}

// Shift adds by to a coordinate cell and formats it to millimetres. Blank or
// non-numeric cells are returned unchanged.
func Shift(cell string, by float64) (string, bool) {
	if csvio.IsMissingToken(cell) {
		return cell, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return cell, false
	}
	return strconv.FormatFloat(v+by, 'f', 3, 64), true
}

// Direction names the sign of a shift, e.g. Direction(-5, "north", "south").
func Direction(by float64, pos, neg string) string {
	switch {
	case by > 0:
		return pos
	case by < 0:
		return neg
	}
	return "no shift"
}

type generator func(f *gofakeit.Faker) string

var generators = map[string]generator{
	telemetry.ColDesignName: func(f *gofakeit.Faker) string {
		return strings.ReplaceAll(f.Adjective()+"-"+f.Noun(), " ", "-")
	},
	telemetry.ColMeasuredData: func(f *gofakeit.Faker) string {
		return fmt.Sprintf("Dataset-%s-%04d", strings.ReplaceAll(f.Noun(), " ", "-"), f.Number(1, 9999))
	},
	telemetry.ColMachine: func(f *gofakeit.Faker) string {
		return fmt.Sprintf("Machine-%s-%02d", strings.ReplaceAll(f.Color(), " ", ""), f.Number(1, 99))
	},
}

// Substituter replaces text values consistently: within one Substituter a
// value always maps to the same replacement, and distinct values in a column
// never share one.
type Substituter struct {
	faker *gofakeit.Faker
	seen  map[string]map[string]string // column -> original -> fake
	used  map[string]map[string]bool   // column -> fake
}

// NewSubstituter seeds the name generator; seed 0 is random.
func NewSubstituter(seed uint64) *Substituter {
	return &Substituter{
		faker: gofakeit.New(seed),
		seen:  make(map[string]map[string]string),
		used:  make(map[string]map[string]bool),
	}
}

// Handles reports whether column is replaced.
func (s *Substituter) Handles(column string) bool {
	_, ok := generators[column]
	return ok
}

// Replace returns the stand-in for value in column. Empty values and columns
// without a generator pass through.
func (s *Substituter) Replace(column, value string) string {
	gen, ok := generators[column]
	if !ok || value == "" {
		return value
	}
	if s.seen[column] == nil {
		s.seen[column] = make(map[string]string)
		s.used[column] = make(map[string]bool)
	}
	if fake, ok := s.seen[column][value]; ok {
		return fake
	}

	fake := gen(s.faker)
	for i := 2; s.used[column][fake]; i++ {
		fake = fmt.Sprintf("%s-%d", gen(s.faker), i)
	}
	s.seen[column][value] = fake
	s.used[column][fake] = true
	return fake
}

// Count returns how many distinct values of column were replaced.
func (s *Substituter) Count(column string) int { return len(s.seen[column]) }

// Anonymize copies in to out, shifting CellN_m/CellE_m and replacing the
// DesignName, MeasuredData and Machine columns. Column order is preserved.
func Anonymize(in, out string, opts Options) (Result, error) {
	res := Result{Replaced: make(map[string]int)}

	f, err := os.Open(in)
	if err != nil {
		return res, eris.Wrapf(err, "anonymizer: open %s", in)
	}
	defer f.Close()

	r := csvio.NewReader(f, opts.CSV)
	header, err := r.ReadHeader()
	if err != nil {
		return res, eris.Wrapf(err, "anonymizer: %s", in)
	}

	northIdx, hasNorth := header.Index(telemetry.ColNorthing)
	eastIdx, hasEast := header.Index(telemetry.ColEasting)
	sub := NewSubstituter(opts.Seed)
	var textCols []int
	for i, name := range header.Names {
		if sub.Handles(name) {
			textCols = append(textCols, i)
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, eris.Wrapf(err, "anonymizer: %s", in)
		}
		for _, i := range textCols {
			if i < len(row) {
				row[i] = sub.Replace(header.Names[i], row[i])
			}
		}
		if hasNorth && northIdx < len(row) {
			var ok bool
			if row[northIdx], ok = Shift(row[northIdx], opts.North); ok {
				res.Shifted++
			}
		}
		if hasEast && eastIdx < len(row) {
			var ok bool
			if row[eastIdx], ok = Shift(row[eastIdx], opts.East); ok {
				res.Shifted++
			}
		}
		rows = append(rows, row)
	}
	res.Rows = len(rows)
	for _, i := range textCols {
		res.Replaced[header.Names[i]] = sub.Count(header.Names[i])
	}

	if err := write(out, header.Names, rows, opts.CSV); err != nil {
		return res, err
	}

	zap.L().Info("anonymized file",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("rows", res.Rows),
		zap.Int("shifted", res.Shifted),
		zap.Float64("north_m", opts.North),
		zap.Float64("east_m", opts.East),
	)
	return res, nil
}

func write(path string, header []string, rows [][]string, opts csvio.Options) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "anonymizer: create %s", path)
	}
	w := csvio.NewWriter(f, opts)
	if err := w.Write(header); err != nil {
		f.Close()
		return eris.Wrapf(err, "anonymizer: write %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return eris.Wrapf(err, "anonymizer: write %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "anonymizer: close %s", path)
	}
	return nil
}
