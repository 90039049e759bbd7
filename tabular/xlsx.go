// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package tabular

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// DecodeXLSX reads the first sheet of a workbook into a Table. The sheet is
// squared off against the header: GetRows trims trailing empty cells, so
// short rows are padded, and cells past the header width are dropped.
func DecodeXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &ParseError{Err: errors.New("workbook has no sheets")}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	if len(rows) == 0 {
		return nil, &ParseError{Err: errors.New("empty table: missing header row")}
	}

	header := rows[0]
	data := make([][]string, 0, len(rows)-1)

	for _, row := range rows[1:] {
		for len(row) < len(header) {
			row = append(row, "")
		}

		data = append(data, row[:len(header)])
	}

	return &Table{Header: header, Rows: data}, nil
}
