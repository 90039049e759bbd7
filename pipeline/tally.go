// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"strings"

	"github.com/innatives/geocoding-app-v2/utils/textutils"
)

// RowError details one row whose geocoding attempt failed.
type RowError struct {
	// Row is the 1-based position of the row in the input table.
	Row int `json:"row"`

	// Message is the failure description.
	Message string `json:"message"`

	// Query is the location text that was sent.
	Query string `json:"query"`
}

// Tally accounts for every row of one run: each row is either processed
// (coordinates appended) or skipped, and failed rows additionally carry a
// RowError. ProcessedRows+len(SkippedRows) equals TotalRows on a completed
// run, and the rows handled so far on a canceled one.
type Tally struct {
	TotalRows     int        `json:"total_rows"`
	ProcessedRows int        `json:"processed_rows"`
	SkippedRows   []int      `json:"skipped_rows"`
	Errors        []RowError `json:"errors"`
}

func newTally(total int) *Tally {
	return &Tally{TotalRows: total}
}

func (t *Tally) addProcessed() {
	t.ProcessedRows++
}

func (t *Tally) addSkipped(row int) {
	t.SkippedRows = append(t.SkippedRows, row)
}

func (t *Tally) addError(row int, message, query string) {
	t.addSkipped(row)
	t.Errors = append(t.Errors, RowError{Row: row, Message: message, Query: query})
}

// Handled returns how many rows have an outcome so far.
func (t *Tally) Handled() int {
	return t.ProcessedRows + len(t.SkippedRows)
}

// Summary renders a human-readable report, listing at most maxErrors
// failed rows.
func (t *Tally) Summary(maxErrors int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s of %s rows geocoded, %s skipped",
		textutils.FormatInt(int64(t.ProcessedRows)),
		textutils.FormatInt(int64(t.TotalRows)),
		textutils.FormatInt(int64(len(t.SkippedRows))))

	if len(t.Errors) == 0 || maxErrors <= 0 {
		return sb.String()
	}

	n := min(maxErrors, len(t.Errors))
	fmt.Fprintf(&sb, "\n%s failed, showing %d:", textutils.FormatInt(int64(len(t.Errors))), n)

	for _, e := range t.Errors[:n] {
		fmt.Fprintf(&sb, "\n  row %d: %s (%q)", e.Row, e.Message, e.Query)
	}

	return sb.String()
}
