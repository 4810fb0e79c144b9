// Package csvio reads delimited machine exports: BOM-prefixed files, ragged
// rows, and header lookups by column name.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = eris.New("csvio: no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures the CSV reader and writer.
type Options struct {
	Delimiter  rune // default ','
	LazyQuotes bool
	TrimSpace  bool
}

// WithDelimiter returns a copy of o using d as the field separator.
func (o Options) WithDelimiter(d rune) Options {
	o.Delimiter = d
	return o
}

// ParseDelimiter accepts a single character, or "tab" / "\t" for a tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' || r[0] == utf8.RuneError {
		return 0, eris.Errorf("csvio: invalid delimiter %q", s)
	}
	return r[0], nil
}

// DefaultOptions matches the exports written by the machine software.
var DefaultOptions = Options{LazyQuotes: true, TrimSpace: true}

// Reader reads a header row followed by data rows.
type Reader struct {
	csv  *csv.Reader
	opts Options
	rows int
}

// NewReader wraps r, dropping a leading UTF-8 byte order mark if present.
func NewReader(r io.Reader, opts Options) *Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	return &Reader{csv: reader, opts: opts}
}

// NewWriter returns a CSV writer using the delimiter from opts.
func NewWriter(w io.Writer, opts Options) *csv.Writer {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	return cw
}

// ReadHeader reads the first record and indexes it by column name.
func (r *Reader) ReadHeader() (Header, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return Header{}, ErrNoHeader
	}
	if err != nil {
		return Header{}, eris.Wrap(err, "csvio: read header")
	}
	return NewHeader(record), nil
}

// Read returns the next data row, or io.EOF when the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, eris.Wrapf(err, "csvio: read row %d", r.rows+1)
	}
	r.rows++
	if r.opts.TrimSpace {
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
	}
	return record, nil
}

// Rows reports how many data rows have been read so far.
func (r *Reader) Rows() int { return r.rows }

// Header maps column names to their position in a row.
type Header struct {
	Names []string
	index map[string]int
}

// NewHeader builds a Header. Names are trimmed; on duplicates the first
// occurrence wins.
func NewHeader(names []string) Header {
	h := Header{Names: make([]string, len(names)), index: make(map[string]int, len(names))}
	for i, n := range names {
		n = strings.TrimSpace(n)
		h.Names[i] = n
		if _, dup := h.index[n]; !dup {
			h.index[n] = i
		}
	}
	return h
}

// Index returns the position of name.
func (h Header) Index(name string) (int, bool) {
	i, ok := h.index[name]
	return i, ok
}

// Has reports whether name is a column.
func (h Header) Has(name string) bool {
	_, ok := h.index[name]
	return ok
}

// Missing returns the subset of names that are not columns, in order.
func (h Header) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if !h.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the field for name, or "" when the column is absent or the row
// is short.
func (h Header) Get(row []string, name string) string {
	i, ok := h.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// IsMissingToken reports whether s is one of the placeholders the machine
// writes for an absent reading.
func IsMissingToken(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "?":
		return true
	}
	return false
}
