package overlay

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// DefaultWeight is the weight given to points declared without one.
const DefaultWeight = 1.0

// WeightedPoint is a geographic position carrying a heat contribution.
type WeightedPoint struct {
	Lat    float64
	Lng    float64
	Weight float64
}

// NewWeightedPoint validates and returns a point with the given weight.
func NewWeightedPoint(lat, lng, weight float64) (WeightedPoint, error) {
	p := WeightedPoint{Lat: lat, Lng: lng, Weight: weight}
	if err := p.Validate(); err != nil {
		return WeightedPoint{}, err
	}
	return p, nil
}

// Point returns a point with the default weight.
func Point(lat, lng float64) (WeightedPoint, error) {
	return NewWeightedPoint(lat, lng, DefaultWeight)
}

// Validate checks the coordinate bounds and the weight.
func (p WeightedPoint) Validate() error {
	if !finite(p.Lat) || !finite(p.Lng) || math.Abs(p.Lat) > 90 || math.Abs(p.Lng) > 180 {
		return fmt.Errorf("%w: coordinate (%v, %v) out of range", ErrInvariantViolation, p.Lat, p.Lng)
	}
	if !finite(p.Weight) || p.Weight < 0 {
		return fmt.Errorf("%w: weight %v must be finite and non-negative", ErrInvariantViolation, p.Weight)
	}
	return nil
}

// Orb returns the position as an orb point (lng, lat order).
func (p WeightedPoint) Orb() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// LatLng returns the position as an s2 lat/lng.
func (p WeightedPoint) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

// Bounds returns the smallest lat/lng rectangle containing every point.
// ok is false for an empty set.
func Bounds(points []WeightedPoint) (rect s2.Rect, ok bool) {
	if len(points) == 0 {
		return s2.EmptyRect(), false
	}
	rect = s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(p.LatLng())
	}
	return rect, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
