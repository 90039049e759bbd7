// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline drives the row-by-row geocoding of a table: it builds
// each row's location query, resolves it, throttles between calls, and
// accounts for every row in a tally.
package pipeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/innatives/geocoding-app-v2/geocode"
	"github.com/innatives/geocoding-app-v2/spatial"
	"github.com/innatives/geocoding-app-v2/tabular"
)

// Configuration errors that stop a run before any row is touched.
var (
	ErrNoColumns    = errors.New("no location columns selected")
	ErrNoCredential = errors.New("missing geocoding credential")
)

// DefaultDelay is the pause between consecutive geocoding calls.
const DefaultDelay = 200 * time.Millisecond

// Header names of the appended coordinate columns.
const (
	latitudeColumn  = "Latitude"
	longitudeColumn = "Longitude"
	h3Column        = "H3Index"
)

// Processor geocodes a table strictly one row at a time, in input order.
type Processor struct {
	// Resolver performs the per-query geocoding call.
	Resolver geocode.Resolver

	// Delay is the pause after every row that reached the resolver,
	// including the last one. Zero disables throttling; callers normally
	// set DefaultDelay.
	Delay time.Duration

	// OnProgress, when set, receives the handled fraction after each row.
	// It is non-decreasing and reaches 1.0 exactly once, on the last row.
	OnProgress func(fraction float64)

	// H3Resolution, when positive, appends an H3 cell index column next to
	// the coordinates of each resolved row.
	H3Resolution int
}

// Run geocodes the table and returns the augmented copy plus the run tally.
// The output has exactly one row per input row, in input order; the
// Latitude and Longitude columns are appended only when at least one row
// resolved, with skipped rows padded with empty cells. When ctx is
// canceled, Run stops between rows and returns the rows handled so far
// together with ctx.Err(); the partial output and tally are still
// consistent with each other.
func (p *Processor) Run(ctx context.Context, table *tabular.Table, columns Columns, credential string) (*tabular.Table, *Tally, error) {
	if columns.Empty() {
		return nil, nil, ErrNoColumns
	}

	if credential == "" {
		return nil, nil, ErrNoCredential
	}

	out := &tabular.Table{
		Header: append([]string(nil), table.Header...),
		Rows:   make([][]string, 0, len(table.Rows)),
	}
	tally := newTally(len(table.Rows))
	idxs := columns.indices(table)

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return p.finalize(out, tally), tally, err
		}

		rowIndex := i + 1

		query := buildQuery(row, idxs)
		if query == "" {
			// Nothing to geocode. No call is made so no delay applies.
			tally.addSkipped(rowIndex)
			out.Rows = append(out.Rows, row)
			p.reportProgress(tally)

			continue
		}

		outcome := p.Resolver.Resolve(ctx, query, credential)
		switch outcome.Kind {
		case geocode.OutcomeResolved:
			tally.addProcessed()
			out.Rows = append(out.Rows, p.augment(row, outcome.Point))
		case geocode.OutcomeUnresolved:
			tally.addSkipped(rowIndex)
			out.Rows = append(out.Rows, row)
		default:
			tally.addError(rowIndex, outcome.Err, query)
			out.Rows = append(out.Rows, row)
		}

		p.reportProgress(tally)

		if p.Delay > 0 {
			if err := sleep(ctx, p.Delay); err != nil {
				return p.finalize(out, tally), tally, err
			}
		}
	}

	return p.finalize(out, tally), tally, nil
}

func (p *Processor) reportProgress(tally *Tally) {
	if p.OnProgress == nil || tally.TotalRows == 0 {
		return
	}

	p.OnProgress(float64(tally.Handled()) / float64(tally.TotalRows))
}

// augment returns a fresh copy of row with the coordinate cells appended,
// leaving the input table's backing arrays untouched.
func (p *Processor) augment(row []string, point spatial.Point) []string {
	cells := make([]string, len(row), len(row)+3)
	copy(cells, row)

	cells = append(cells,
		strconv.FormatFloat(point.Lat, 'f', -1, 64),
		strconv.FormatFloat(point.Lng, 'f', -1, 64))

	if p.H3Resolution > 0 {
		// A point the resolver validated cannot fail at a legal
		// resolution; an illegal one yields an empty cell.
		cell, err := point.Cell(p.H3Resolution)
		if err != nil {
			cell = ""
		}

		cells = append(cells, cell)
	}

	return cells
}

// finalize appends the coordinate headers when at least one row resolved
// and pads every narrower row to the final width.
func (p *Processor) finalize(out *tabular.Table, tally *Tally) *tabular.Table {
	if tally.ProcessedRows == 0 {
		return out
	}

	out.Header = append(out.Header, latitudeColumn, longitudeColumn)
	if p.H3Resolution > 0 {
		out.Header = append(out.Header, h3Column)
	}

	width := len(out.Header)
	for i, row := range out.Rows {
		if len(row) >= width {
			continue
		}

		padded := make([]string, width)
		copy(padded, row)
		out.Rows[i] = padded
	}

	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
