// Package platform is the platform side of the channel: it decodes heatmap
// method calls and drives one native overlay per heatmap id.
package platform

import (
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// NativeHeatmap is what a platform build provides for one heatmap overlay.
// Setters only stage values; ClearTileCache makes them visible.
type NativeHeatmap interface {
	SetPoints(points []overlay.WeightedPoint)
	SetDissipating(v bool)
	SetGradient(g *overlay.Gradient)
	SetMaxIntensity(v float64, ok bool)
	SetOpacity(v float64)
	SetRadius(v int)
	ClearTileCache()
	Remove()

	// Tile returns the encoded tile for the visible state.
	Tile(t maptile.Tile) ([]byte, error)

	// Style returns the renderer paint properties for the visible state.
	Style() Style

	// Stats returns tile cache counters.
	Stats() mapview.CacheStats
}

// TileContentType is the media type of tiles produced by this build.
func TileContentType() string {
	return tileContentType
}
