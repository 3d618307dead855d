package overlay

// Field is an optional value in a partial update. Set distinguishes
// "leave unchanged" (false) from an explicit value, including nil.
type Field[T any] struct {
	Value T
	Set   bool
}

// Set returns a present field.
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// HeatmapUpdate is a partial heatmap state keyed by ID.
//
// For Gradient and MaxIntensity a present nil value clears the field back to
// the platform default.
type HeatmapUpdate struct {
	ID           ID
	Points       Field[[]WeightedPoint]
	Dissipating  Field[bool]
	Gradient     Field[*Gradient]
	MaxIntensity Field[*float64]
	Opacity      Field[float64]
	Radius       Field[int]
}

// OverlayID returns the id the update targets.
func (u HeatmapUpdate) OverlayID() ID { return u.ID }

// Empty reports whether no field is present.
func (u HeatmapUpdate) Empty() bool {
	return !u.Points.Set && !u.Dissipating.Set && !u.Gradient.Set &&
		!u.MaxIntensity.Set && !u.Opacity.Set && !u.Radius.Set
}

// Options converts the present fields into construction options.
func (u HeatmapUpdate) Options() []Option {
	var opts []Option
	if u.Points.Set {
		opts = append(opts, WithPoints(u.Points.Value...))
	}
	if u.Dissipating.Set {
		opts = append(opts, WithDissipating(u.Dissipating.Value))
	}
	if u.Gradient.Set {
		opts = append(opts, WithGradient(u.Gradient.Value))
	}
	if u.MaxIntensity.Set {
		if u.MaxIntensity.Value == nil {
			opts = append(opts, WithoutMaxIntensity())
		} else {
			opts = append(opts, WithMaxIntensity(*u.MaxIntensity.Value))
		}
	}
	if u.Opacity.Set {
		opts = append(opts, WithOpacity(u.Opacity.Value))
	}
	if u.Radius.Set {
		opts = append(opts, WithRadius(u.Radius.Value))
	}
	return opts
}
