package platform

import (
	"log/slog"
	"math"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
	"github.com/joeblew999/plat-heatmap/internal/registry"
)

var _ registry.Handle[overlay.HeatmapUpdate] = (*HeatmapController)(nil)

// HeatmapController drives one native heatmap from decoded updates.
//
// Values that should never arrive from a well-behaved declarative layer are
// repaired rather than rejected: radius and opacity are clamped, invalid
// points are dropped.
type HeatmapController struct {
	id     overlay.ID
	native NativeHeatmap
	log    *slog.Logger
	built  bool
}

// NewHeatmapController wraps a native heatmap.
func NewHeatmapController(id overlay.ID, native NativeHeatmap, log *slog.Logger) *HeatmapController {
	if log == nil {
		log = slog.Default()
	}
	return &HeatmapController{id: id, native: native, log: log.With("heatmap", id)}
}

// Native returns the wrapped native heatmap.
func (c *HeatmapController) Native() NativeHeatmap { return c.native }

// Apply stages the present fields. The first apply also publishes them,
// since a new overlay has no earlier state to keep showing.
func (c *HeatmapController) Apply(u overlay.HeatmapUpdate) {
	if u.Points.Set {
		c.native.SetPoints(c.sanitizePoints(u.Points.Value))
	}
	if u.Dissipating.Set {
		c.native.SetDissipating(u.Dissipating.Value)
	}
	if u.Gradient.Set {
		c.native.SetGradient(u.Gradient.Value)
	}
	if u.MaxIntensity.Set {
		if v := u.MaxIntensity.Value; v != nil && *v >= 0 && !math.IsInf(*v, 0) && !math.IsNaN(*v) {
			c.native.SetMaxIntensity(*v, true)
		} else {
			if v != nil {
				c.log.Warn("ignoring invalid max intensity", "value", *v)
			}
			c.native.SetMaxIntensity(0, false)
		}
	}
	if u.Opacity.Set {
		c.native.SetOpacity(c.clampOpacity(u.Opacity.Value))
	}
	if u.Radius.Set {
		c.native.SetRadius(c.clampRadius(u.Radius.Value))
	}

	if !c.built {
		c.built = true
		c.native.ClearTileCache()
	}
}

// InvalidateCache publishes staged fields and drops cached tiles.
func (c *HeatmapController) InvalidateCache() {
	c.native.ClearTileCache()
}

// Release removes the overlay from the map.
func (c *HeatmapController) Release() {
	c.native.Remove()
}

func (c *HeatmapController) sanitizePoints(points []overlay.WeightedPoint) []overlay.WeightedPoint {
	out := make([]overlay.WeightedPoint, 0, len(points))
	for _, p := range points {
		if err := p.Validate(); err != nil {
			continue
		}
		out = append(out, p)
	}
	if dropped := len(points) - len(out); dropped > 0 {
		c.log.Warn("dropped invalid points", "dropped", dropped, "kept", len(out))
	}
	return out
}

func (c *HeatmapController) clampRadius(r int) int {
	clamped := min(max(r, overlay.MinRadius), overlay.MaxRadius)
	if clamped != r {
		c.log.Warn("clamped radius", "value", r, "clamped", clamped)
	}
	return clamped
}

func (c *HeatmapController) clampOpacity(v float64) float64 {
	clamped := v
	switch {
	case math.IsNaN(v):
		clamped = overlay.DefaultOpacity
	case v < 0:
		clamped = 0
	case v > 1:
		clamped = 1
	}
	if clamped != v {
		c.log.Warn("clamped opacity", "value", v, "clamped", clamped)
	}
	return clamped
}
