// Package sampler thins a large export to a fixed number of rows per group,
// producing small fixtures that still cover every day, design and machine.
package sampler

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mmitucha/compactmapper/internal/csvio"
	"github.com/mmitucha/compactmapper/internal/sorter"
	"github.com/mmitucha/compactmapper/internal/telemetry"
)

// DateKey groups by the day of the Time column.
const DateKey = "Date"

// DefaultCount is the number of rows kept per group.
const DefaultCount = 10

// Group is one combination of grouping values.
type Group struct {
	Key       []string
	Available int
	Kept      int
}

// Label renders the group as "col=value, ...".
func (g Group) Label(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + "=" + g.Key[i]
	}
	return strings.Join(parts, ", ")
}

// Result summarises a sampling run.
type Result struct {
	Cols   []string
	Count  int
	Rows   int
	Groups []Group // sorted by key
}

// Short returns the groups with fewer than Count rows.
func (r Result) Short() []Group {
	var out []Group
	for _, g := range r.Groups {
		if g.Available < r.Count {
			out = append(out, g)
		}
	}
	return out
}

// dateOf falls back to the text before the first space when the timestamp
// does not parse.
func dateOf(ts string) string {
	if d, err := sorter.ParseDate(ts); err == nil {
		return d
	}
	if i := strings.IndexByte(ts, ' '); i >= 0 {
		return ts[:i]
	}
	return ts
}

// Sample reads in and writes the first n rows of every group to out. Groups
// are emitted in key order; rows keep their source order within a group.
// The output uses the same delimiter as the input.
func Sample(in, out string, cols []string, n int, opts csvio.Options) (Result, error) {
	res := Result{Cols: cols, Count: n}
	if len(cols) == 0 {
		return res, eris.New("sampler: at least one grouping column is required")
	}
	if n < 1 {
		return res, eris.Errorf("sampler: sample count must be positive, got %d", n)
	}

	f, err := os.Open(in)
	if err != nil {
		return res, eris.Wrapf(err, "sampler: open %s", in)
	}
	defer f.Close()

	r := csvio.NewReader(f, opts)
	header, err := r.ReadHeader()
	if err != nil {
		return res, eris.Wrapf(err, "sampler: %s", in)
	}
	for _, c := range cols {
		if c == DateKey {
			if !header.Has(telemetry.ColTime) {
				return res, eris.Errorf("sampler: %q key requires a %s column", DateKey, telemetry.ColTime)
			}
			continue
		}
		if !header.Has(c) {
			return res, eris.Errorf("sampler: column %q not found (available: %s)", c, strings.Join(header.Names, ", "))
		}
	}

	type bucket struct {
		key  []string
		rows [][]string
		seen int
	}
	buckets := make(map[string]*bucket)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, eris.Wrapf(err, "sampler: %s", in)
		}
		key := make([]string, len(cols))
		for i, c := range cols {
			if c == DateKey {
				key[i] = dateOf(header.Get(row, telemetry.ColTime))
			} else {
				key[i] = header.Get(row, c)
			}
		}
		id := strings.Join(key, "\x00")
		b, ok := buckets[id]
		if !ok {
			b = &bucket{key: key}
			buckets[id] = b
		}
		b.seen++
		if len(b.rows) < n {
			b.rows = append(b.rows, row)
		}
	}

	ids := make([]string, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	of, err := os.Create(out)
	if err != nil {
		return res, eris.Wrapf(err, "sampler: create %s", out)
	}
	w := csvio.NewWriter(of, opts)
	if err := w.Write(header.Names); err != nil {
		of.Close()
		return res, eris.Wrapf(err, "sampler: write %s", out)
	}
	for _, id := range ids {
		b := buckets[id]
		if err := w.WriteAll(b.rows); err != nil {
			of.Close()
			return res, eris.Wrapf(err, "sampler: write %s", out)
		}
		res.Rows += len(b.rows)
		res.Groups = append(res.Groups, Group{Key: b.key, Available: b.seen, Kept: len(b.rows)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		of.Close()
		return res, eris.Wrapf(err, "sampler: flush %s", out)
	}
	if err := of.Close(); err != nil {
		return res, eris.Wrapf(err, "sampler: close %s", out)
	}

	for _, g := range res.Short() {
		zap.L().Warn("sampler: short group",
			zap.String("group", g.Label(cols)),
			zap.Int("available", g.Available),
			zap.Int("wanted", n),
		)
	}
	zap.L().Info("sampled file",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("rows", res.Rows),
		zap.Int("groups", len(res.Groups)),
	)
	return res, nil
}
