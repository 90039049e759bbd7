// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

// Package tabular decodes and encodes the tabular files the geocoding
// pipeline works on: comma-separated values with a header line, plus XLSX
// workbooks for input.
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/innatives/geocoding-app-v2/utils/textutils"
)

// ParseError reports a malformed input table. It aborts a run before any
// row is processed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing table: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Table holds a decoded tabular file: the shared header plus the data rows,
// in input order. Rows are never mutated after decoding.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the named column, matching
// case-insensitively with accents folded, or -1 when the name does not
// appear in the header.
func (t *Table) ColumnIndex(name string) int {
	want := textutils.LowerASCIIFolding(name)
	if want == "" {
		return -1
	}

	for i, col := range t.Header {
		if textutils.LowerASCIIFolding(col) == want {
			return i
		}
	}

	return -1
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Uploads arrive in whatever encoding the user's spreadsheet tool produced.
// UTF-8 passes through (minus a byte order mark); anything else goes through
// the charset sniffer, which covers the UTF-16 BOMs and the windows-1252
// family that older exports use.
func normalize(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)

	preview, err := br.Peek(1024)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if bytes.HasPrefix(preview, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}

		return br, nil
	}

	if validUTF8Prefix(preview) {
		return br, nil
	}

	return charset.NewReader(br, "")
}

// validUTF8Prefix reports whether b is valid UTF-8, allowing a rune split by
// the preview boundary at the very end.
func validUTF8Prefix(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			return len(b) < utf8.UTFMax
		}

		b = b[size:]
	}

	return true
}

// Decode parses a comma-separated stream with a header line into a Table.
// Ragged rows and empty input are malformed (ParseError).
func Decode(r io.Reader) (*Table, error) {
	rr, err := normalize(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	records, err := csv.NewReader(rr).ReadAll()
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	if len(records) == 0 {
		return nil, &ParseError{Err: errors.New("empty table: missing header row")}
	}

	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// DecodeNamed decodes r, dispatching on the file name extension: .xlsx is
// read as a workbook, everything else as CSV.
func DecodeNamed(name string, r io.Reader) (*Table, error) {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return DecodeXLSX(r)
	}

	return Decode(r)
}

// DecodeFile reads the table stored at path.
func DecodeFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return DecodeNamed(path, f)
}

// Encode writes the table as comma-separated values, header line first.
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()

	return cw.Error()
}
