package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const peekSize = 64 * 1024

// Required header columns.
const (
	ColumnID   = "id"
	ColumnName = "name"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("catalog: missing required column")

// Record is one data row with its position in the file.
type Record struct {
	Line   int
	fields []string
	header map[string]int
}

// Get returns the value of column, or "" when the column or cell is absent.
func (r Record) Get(column string) string {
	i, ok := r.header[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Reader reads a ranking dump. The delimiter is a tab when the first line
// contains one and a comma otherwise.
type Reader struct {
	csv       *csv.Reader
	header    map[string]int
	Delimiter rune
}

// NewReader detects the delimiter, reads the header and validates it.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, peekSize)
	head, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("peek header: %w", err)
	}

	delimiter := ','
	firstLine := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		firstLine = head[:i]
	}
	if bytes.IndexByte(firstLine, '\t') >= 0 {
		delimiter = '\t'
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	cells, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := make(map[string]int, len(cells))
	for i, cell := range cells {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(cell))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}

	for _, col := range []string{ColumnID, ColumnName} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	return &Reader{csv: cr, header: header, Delimiter: delimiter}, nil
}

// Next returns the next data row. It returns io.EOF after the last row.
// A *csv.ParseError only affects the current row; reading may continue.
func (r *Reader) Next() (Record, error) {
	for {
		fields, err := r.csv.Read()
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return Record{Line: parseErr.StartLine, header: r.header}, err
			}
			return Record{}, err
		}

		line, _ := r.csv.FieldPos(0)
		if isBlank(fields) {
			continue
		}
		return Record{Line: line, fields: fields, header: r.header}, nil
	}
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
