// README: Shared value types used across modules.
package types

import "errors"

type ID string

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var ErrInvalidPoint = errors.New("invalid geographic point")

// Validate checks that the point lies within the WGS84 coordinate ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidPoint
	}
	if p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidPoint
	}
	return nil
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
