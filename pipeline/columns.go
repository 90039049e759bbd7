// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"strings"

	"github.com/innatives/geocoding-app-v2/tabular"
)

// Columns selects which header columns feed the location query, in the
// fixed order address, city, country. At least one reference must be set
// for a run to start; a reference that no longer matches the header is
// skipped.
type Columns struct {
	Address string
	City    string
	Country string
}

// Empty reports whether no reference is set.
func (c Columns) Empty() bool {
	return strings.TrimSpace(c.Address) == "" &&
		strings.TrimSpace(c.City) == "" &&
		strings.TrimSpace(c.Country) == ""
}

// indices resolves the selection against the table header once per run.
// Unset references are dropped; set references that don't match any header
// column resolve to -1 and contribute nothing to queries.
func (c Columns) indices(t *tabular.Table) []int {
	idxs := make([]int, 0, 3)

	for _, name := range []string{c.Address, c.City, c.Country} {
		if strings.TrimSpace(name) == "" {
			continue
		}

		idxs = append(idxs, t.ColumnIndex(name))
	}

	return idxs
}

// buildQuery joins the selected, non-empty cell values of one row with
// commas. An empty result means the row has nothing to geocode.
func buildQuery(row []string, idxs []int) string {
	parts := make([]string, 0, len(idxs))

	for _, idx := range idxs {
		if idx < 0 || idx >= len(row) {
			continue
		}

		if v := strings.TrimSpace(row[idx]); v != "" {
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, ", ")
}
