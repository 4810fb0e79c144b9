// Package sorter splits machine exports into one file per working day,
// design and vibration amplitude.
package sorter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/csvio"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// TimeLayout is the machine timestamp format, e.g. "2025/Oct/01 09:30:02.800".
const TimeLayout = "2006/Jan/02 15:04:05.999"

// NoAmp marks rows without an amplitude reading.
const NoAmp = "no_amp"

// Columns a file must carry to be sorted.
var Columns = []string{telemetry.ColTime, telemetry.ColDesignName, telemetry.ColLastAmp}

// Key identifies one output file.
type Key struct {
	Date   string
	Design string
	Amp    string
}

// Filename is "{date}design{design}amp{amp}.csv" with characters that are
// invalid in file names removed.
func (k Key) Filename() string {
	amp := k.Amp
	if amp == NoAmp {
		amp = ""
	}
	return sanitize(fmt.Sprintf("%sdesign%samp%s.csv", k.Date, k.Design, amp))
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
}

// ParseDate returns the YYYY-MM-DD day of a machine timestamp.
func ParseDate(ts string) (string, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(ts))
	if err != nil {
		return "", eris.Wrapf(err, "sorter: parse time %q", ts)
	}
	return t.Format("2006-01-02"), nil
}

// NormalizeAmp drops the decimal point and keeps three digits:
// "0.97" becomes "097" and "2.10" becomes "210".
func NormalizeAmp(amp string) string {
	amp = strings.TrimSpace(amp)
	if csvio.IsMissingToken(amp) {
		return NoAmp
	}
	n := strings.ReplaceAll(amp, ".", "")
	if len(n) > 3 {
		n = n[:3]
	}
	return n
}

// Result summarises a sort run.
type Result struct {
	Inputs  int
	Rows    int
	Skipped int
	Outputs []string // sorted output paths
	Failed  []string // inputs abandoned under SkipErrors
}

func (r *Result) merge(o Result) {
	r.Inputs += o.Inputs
	r.Rows += o.Rows
	r.Skipped += o.Skipped
	seen := make(map[string]bool, len(r.Outputs))
	for _, p := range r.Outputs {
		seen[p] = true
	}
	for _, p := range o.Outputs {
		if !seen[p] {
			r.Outputs = append(r.Outputs, p)
		}
	}
	sort.Strings(r.Outputs)
}

// ErrorLogName is the file in the output directory that collects skipped rows.
const ErrorLogName = "err.log"

// Options controls how files are read and how bad rows are handled.
type Options struct {
	CSV csvio.Options
	// SkipErrors skips rows whose Time does not parse instead of failing.
	SkipErrors bool
	// ErrorLog receives one line per skipped row when SkipErrors is set.
	ErrorLog io.Writer
}

// DefaultOptions fails on the first unreadable timestamp.
var DefaultOptions = Options{CSV: csvio.DefaultOptions}

// SortFile splits one CSV into outDir. Output files that already exist are
// appended to without repeating the header. A row whose Time does not parse
// fails the file unless opts.SkipErrors is set, in which case it is counted
// and reported to opts.ErrorLog. Nothing is written for a failed file.
func SortFile(path, outDir string, opts Options) (Result, error) {
	res := Result{Inputs: 1}
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return res, eris.Wrapf(err, "sorter: open %s", path)
	}
	defer f.Close()

	r := csvio.NewReader(f, opts.CSV)
	header, err := r.ReadHeader()
	if err != nil {
		return res, eris.Wrapf(err, "sorter: %s", path)
	}
	if missing := header.Missing(Columns...); len(missing) > 0 {
		return res, eris.Errorf("sorter: %s: missing required columns: %s", path, strings.Join(missing, ", "))
	}

	groups := make(map[Key][][]string)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, eris.Wrapf(err, "sorter: %s", path)
		}
		ts := header.Get(row, telemetry.ColTime)
		date, err := ParseDate(ts)
		if err != nil {
			// Line numbers count the header.
			line := r.Rows() + 1
			if !opts.SkipErrors {
				return res, eris.Wrapf(err, "sorter: %s line %d", path, line)
			}
			res.Skipped++
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "File: %s, Row %d: error parsing date from '%s': %v\n", name, line, ts, eris.Cause(err))
			}
			zap.L().Debug("sorter: skipping row", zap.String("file", path), zap.Int("line", line), zap.Error(err))
			continue
		}
		k := Key{
			Date:   date,
			Design: header.Get(row, telemetry.ColDesignName),
			Amp:    NormalizeAmp(header.Get(row, telemetry.ColLastAmp)),
		}
		groups[k] = append(groups[k], row)
		res.Rows++
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, eris.Wrapf(err, "sorter: create %s", outDir)
	}

	keys := make([]Key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Filename() < keys[j].Filename() })

	for _, k := range keys {
		out := filepath.Join(outDir, k.Filename())
		if err := appendRows(out, header.Names, groups[k], opts.CSV); err != nil {
			return res, err
		}
		res.Outputs = append(res.Outputs, out)
	}

	if res.Skipped > 0 && opts.ErrorLog != nil {
		fmt.Fprintf(opts.ErrorLog, "File: %s - Total skipped rows during sorting: %d\n", name, res.Skipped)
	}

	zap.L().Info("sorted file",
		zap.String("file", path),
		zap.Int("rows", res.Rows),
		zap.Int("skipped", res.Skipped),
		zap.Int("outputs", len(res.Outputs)),
	)
	return res, nil
}

func appendRows(path string, header []string, rows [][]string, opts csvio.Options) error {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrapf(err, "sorter: open %s", path)
	}

	w := csvio.NewWriter(f, opts)
	if fresh {
		if err := w.Write(header); err != nil {
			f.Close()
			return eris.Wrapf(err, "sorter: write header to %s", path)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return eris.Wrapf(err, "sorter: write %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "sorter: close %s", path)
	}
	return nil
}

// SortGlob sorts every file matching pattern into outDir, in name order.
// With opts.SkipErrors a file that cannot be sorted is logged to
// opts.ErrorLog and the remaining files are still processed.
func SortGlob(pattern, outDir string, opts Options) (Result, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return Result{}, eris.Wrapf(err, "sorter: glob %s", pattern)
	}
	if len(files) == 0 {
		return Result{}, eris.Errorf("sorter: no files match %s", pattern)
	}
	sort.Strings(files)

	var total Result
	for _, f := range files {
		res, err := SortFile(f, outDir, opts)
		if err != nil {
			if !opts.SkipErrors {
				return total, err
			}
			if opts.ErrorLog != nil {
				fmt.Fprintf(opts.ErrorLog, "Error processing %s: %v\n", filepath.Base(f), err)
			}
			zap.L().Warn("sorter: skipping file", zap.String("file", f), zap.Error(err))
			total.Inputs++
			total.Failed = append(total.Failed, f)
			continue
		}
		total.merge(res)
	}
	return total, nil
}
