// Copyright 2026 The Innatives Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Valid reports whether the point lies inside the global coordinate bounds.
func (p Point) Valid() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got: %f)", p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got: %f)", p.Lng)
	}

	return nil
}

// Cell returns the hex H3 cell identifier containing the point at the given
// resolution (0-15).
func (p Point) Cell(res int) (string, error) {
	latLng := h3.NewLatLng(p.Lat, p.Lng)

	cell, err := h3.LatLngToCell(latLng, res)
	if err != nil {
		return "", fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
	}

	return cell.String(), nil
}
