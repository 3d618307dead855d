package overlay

import (
	"fmt"
	"math"
	"slices"
)

// DefaultColorMapSize is the number of entries the native side interpolates
// the gradient into.
const DefaultColorMapSize = 256

// Color is a 32-bit ARGB color.
type Color uint32

// ARGB builds a color from its channels.
func ARGB(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Alpha returns the alpha channel.
func (c Color) Alpha() uint8 { return uint8(c >> 24) }

// RGBA returns the red, green, blue and alpha channels.
func (c Color) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

// GradientStop is one color and the fraction of max intensity where it starts.
type GradientStop struct {
	Color Color
	Start float64
}

// Gradient maps heat intensity to color.
type Gradient struct {
	stops        []GradientStop
	colorMapSize int
}

// NewGradient validates the stops. colorMapSize <= 0 selects the default.
func NewGradient(stops []GradientStop, colorMapSize int) (*Gradient, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: gradient must have at least one stop", ErrInvariantViolation)
	}
	prev := 0.0
	for i, s := range stops {
		if math.IsNaN(s.Start) || s.Start < 0 || s.Start > 1 {
			return nil, fmt.Errorf("%w: gradient start %v at %d outside [0,1]", ErrInvariantViolation, s.Start, i)
		}
		if i > 0 && s.Start < prev {
			return nil, fmt.Errorf("%w: gradient starts must be non-decreasing (index %d)", ErrInvariantViolation, i)
		}
		prev = s.Start
	}
	if colorMapSize <= 0 {
		colorMapSize = DefaultColorMapSize
	}
	return &Gradient{stops: slices.Clone(stops), colorMapSize: colorMapSize}, nil
}

// Stops returns a copy of the gradient stops.
func (g *Gradient) Stops() []GradientStop {
	return slices.Clone(g.stops)
}

// ColorMapSize returns the interpolation resolution.
func (g *Gradient) ColorMapSize() int {
	return g.colorMapSize
}

// Colors returns the colors in stop order.
func (g *Gradient) Colors() []Color {
	out := make([]Color, len(g.stops))
	for i, s := range g.stops {
		out[i] = s.Color
	}
	return out
}

// StartPoints returns the start fractions in stop order.
func (g *Gradient) StartPoints() []float64 {
	out := make([]float64, len(g.stops))
	for i, s := range g.stops {
		out[i] = s.Start
	}
	return out
}

// Equal reports whether both gradients hold the same stops and size.
// Two nil gradients are equal.
func (g *Gradient) Equal(o *Gradient) bool {
	if g == nil || o == nil {
		return g == o
	}
	return g.colorMapSize == o.colorMapSize && slices.Equal(g.stops, o.stops)
}
