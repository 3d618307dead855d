package platform

import (
	"fmt"
	"math"

	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// defaultGradient mirrors the native SDK default: green fading to red.
var defaultGradient = []overlay.GradientStop{
	{Color: overlay.ARGB(255, 102, 225, 0), Start: 0.2},
	{Color: overlay.ARGB(255, 255, 0, 0), Start: 1},
}

// Style is a MapLibre heatmap layer description.
type Style struct {
	Type        string         `json:"type"`
	SourceLayer string         `json:"source-layer"`
	Paint       map[string]any `json:"paint"`
}

func styleFor(s heatmapState) Style {
	weight := any([]any{"get", "weight"})
	if s.hasMax && s.maxIntensity > 0 {
		weight = []any{"interpolate", []any{"linear"}, []any{"get", "weight"}, 0, 0, s.maxIntensity, 1}
	}

	// A non-dissipating heatmap keeps its geographic size, so the pixel
	// radius doubles with every zoom level.
	radius := any(s.radius)
	if !s.dissipating {
		radius = []any{"interpolate", []any{"exponential", 2}, []any{"zoom"},
			0, s.radius, mapview.MaxZoom, float64(s.radius) * math.Exp2(mapview.MaxZoom)}
	}

	return Style{
		Type:        "heatmap",
		SourceLayer: tileLayerName,
		Paint: map[string]any{
			"heatmap-weight":  weight,
			"heatmap-radius":  radius,
			"heatmap-opacity": s.opacity,
			"heatmap-color":   colorRamp(s.gradient),
		},
	}
}

// colorRamp builds an interpolate expression over heatmap density. Density 0
// is always transparent and input stops must strictly increase, so repeated
// or zero starts keep only their first color.
func colorRamp(g *overlay.Gradient) []any {
	stops := defaultGradient
	if g != nil {
		stops = g.Stops()
	}
	expr := []any{"interpolate", []any{"linear"}, []any{"heatmap-density"}, 0, "rgba(0,0,0,0)"}
	last := 0.0
	for _, s := range stops {
		if s.Start <= last {
			continue
		}
		expr = append(expr, s.Start, cssColor(s.Color))
		last = s.Start
	}
	return expr
}

func cssColor(c overlay.Color) string {
	r, g, b, a := c.RGBA()
	return fmt.Sprintf("rgba(%d,%d,%d,%.3g)", r, g, b, float64(a)/255)
}
