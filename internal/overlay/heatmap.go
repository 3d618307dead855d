// Package overlay defines the immutable descriptors of map overlays and the
// partial updates exchanged between the declarative and platform layers.
package overlay

import (
	"fmt"
	"math"
	"slices"
)

// Heatmap defaults and limits.
const (
	DefaultOpacity     = 0.6
	DefaultRadius      = 20
	DefaultDissipating = true

	// MinRadius and MaxRadius bound the blur radius in pixels. Values outside
	// this range crash the Android tile provider.
	MinRadius = 10
	MaxRadius = 45
)

// ID identifies an overlay within one collection.
type ID string

// Heatmap describes the desired state of one heatmap overlay.
// The zero value is not valid; use NewHeatmap.
type Heatmap struct {
	id           ID
	points       []WeightedPoint
	dissipating  bool
	gradient     *Gradient
	maxIntensity float64
	hasMax       bool
	opacity      float64
	radius       int
}

// Option sets one field of a heatmap under construction.
type Option func(*Heatmap)

// WithPoints sets the weighted points.
func WithPoints(points ...WeightedPoint) Option {
	return func(h *Heatmap) { h.points = slices.Clone(points) }
}

// WithDissipating sets whether the heatmap fades out when zooming in.
func WithDissipating(v bool) Option {
	return func(h *Heatmap) { h.dissipating = v }
}

// WithGradient sets the color gradient. nil restores the platform default.
func WithGradient(g *Gradient) Option {
	return func(h *Heatmap) { h.gradient = g }
}

// WithMaxIntensity pins the intensity mapped to the last gradient stop.
func WithMaxIntensity(v float64) Option {
	return func(h *Heatmap) { h.maxIntensity, h.hasMax = v, true }
}

// WithoutMaxIntensity lets the native side compute the max intensity.
func WithoutMaxIntensity() Option {
	return func(h *Heatmap) { h.maxIntensity, h.hasMax = 0, false }
}

// WithOpacity sets the overlay opacity.
func WithOpacity(v float64) Option {
	return func(h *Heatmap) { h.opacity = v }
}

// WithRadius sets the blur radius in pixels.
func WithRadius(v int) Option {
	return func(h *Heatmap) { h.radius = v }
}

// NewHeatmap builds a validated heatmap descriptor.
func NewHeatmap(id ID, opts ...Option) (Heatmap, error) {
	h := Heatmap{
		id:          id,
		dissipating: DefaultDissipating,
		opacity:     DefaultOpacity,
		radius:      DefaultRadius,
	}
	return h.With(opts...)
}

// With returns a copy of h with opts applied. h itself is never modified.
func (h Heatmap) With(opts ...Option) (Heatmap, error) {
	h.points = slices.Clone(h.points)
	for _, opt := range opts {
		opt(&h)
	}
	if err := h.validate(); err != nil {
		return Heatmap{}, err
	}
	return h, nil
}

func (h Heatmap) validate() error {
	if h.id == "" {
		return fmt.Errorf("%w: heatmap id is empty", ErrInvariantViolation)
	}
	for i, p := range h.points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("heatmap %q point %d: %w", h.id, i, err)
		}
	}
	if math.IsNaN(h.opacity) || h.opacity < 0 || h.opacity > 1 {
		return fmt.Errorf("%w: heatmap %q opacity %v outside [0,1]", ErrInvariantViolation, h.id, h.opacity)
	}
	if h.radius < MinRadius || h.radius > MaxRadius {
		return fmt.Errorf("%w: heatmap %q radius %d outside [%d,%d]", ErrInvariantViolation, h.id, h.radius, MinRadius, MaxRadius)
	}
	if h.hasMax && (math.IsNaN(h.maxIntensity) || math.IsInf(h.maxIntensity, 0) || h.maxIntensity < 0) {
		return fmt.Errorf("%w: heatmap %q max intensity %v", ErrInvariantViolation, h.id, h.maxIntensity)
	}
	return nil
}

// OverlayID returns the heatmap id.
func (h Heatmap) OverlayID() ID { return h.id }

// Points returns a copy of the weighted points.
func (h Heatmap) Points() []WeightedPoint { return slices.Clone(h.points) }

// Dissipating reports whether the heatmap dissipates on zoom.
func (h Heatmap) Dissipating() bool { return h.dissipating }

// Gradient returns the gradient, or nil for the platform default.
func (h Heatmap) Gradient() *Gradient { return h.gradient }

// MaxIntensity returns the pinned max intensity, if any.
func (h Heatmap) MaxIntensity() (float64, bool) { return h.maxIntensity, h.hasMax }

// Opacity returns the overlay opacity.
func (h Heatmap) Opacity() float64 { return h.opacity }

// Radius returns the blur radius in pixels.
func (h Heatmap) Radius() int { return h.radius }

// Equal compares every field.
func (h Heatmap) Equal(o Heatmap) bool {
	return h.id == o.id &&
		slices.Equal(h.points, o.points) &&
		h.dissipating == o.dissipating &&
		h.gradient.Equal(o.gradient) &&
		h.hasMax == o.hasMax &&
		h.maxIntensity == o.maxIntensity &&
		h.opacity == o.opacity &&
		h.radius == o.radius
}

// Update returns an update with every field of h present.
func (h Heatmap) Update() HeatmapUpdate {
	u := HeatmapUpdate{
		ID:          h.id,
		Points:      Set(h.Points()),
		Dissipating: Set(h.dissipating),
		Gradient:    Set(h.gradient),
		Opacity:     Set(h.opacity),
		Radius:      Set(h.radius),
	}
	if h.hasMax {
		v := h.maxIntensity
		u.MaxIntensity = Set(&v)
	} else {
		u.MaxIntensity = Set[*float64](nil)
	}
	return u
}

// Diff returns an update carrying only the fields where next differs from h.
// A field cleared in next is present in the update with a nil value.
func (h Heatmap) Diff(next Heatmap) HeatmapUpdate {
	u := HeatmapUpdate{ID: next.id}
	if !slices.Equal(h.points, next.points) {
		u.Points = Set(next.Points())
	}
	if h.dissipating != next.dissipating {
		u.Dissipating = Set(next.dissipating)
	}
	if !h.gradient.Equal(next.gradient) {
		u.Gradient = Set(next.gradient)
	}
	if h.hasMax != next.hasMax || h.maxIntensity != next.maxIntensity {
		if next.hasMax {
			v := next.maxIntensity
			u.MaxIntensity = Set(&v)
		} else {
			u.MaxIntensity = Set[*float64](nil)
		}
	}
	if h.opacity != next.opacity {
		u.Opacity = Set(next.opacity)
	}
	if h.radius != next.radius {
		u.Radius = Set(next.radius)
	}
	return u
}

// Apply returns a copy of h with the present fields of u applied.
// u.ID is ignored.
func (h Heatmap) Apply(u HeatmapUpdate) (Heatmap, error) {
	return h.With(u.Options()...)
}
