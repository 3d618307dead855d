package platform

import (
	"slices"
	"sync"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// tileLayerName names the layer inside every encoded tile.
const tileLayerName = "heatmap"

// heatmapState is one complete set of heatmap fields.
type heatmapState struct {
	points       []overlay.WeightedPoint
	dissipating  bool
	gradient     *overlay.Gradient
	maxIntensity float64
	hasMax       bool
	opacity      float64
	radius       int
}

func defaultState() heatmapState {
	return heatmapState{
		dissipating: overlay.DefaultDissipating,
		opacity:     overlay.DefaultOpacity,
		radius:      overlay.DefaultRadius,
	}
}

// tileHeatmap publishes heatmap points as tiles on a map view. Staged
// fields become visible on ClearTileCache.
type tileHeatmap struct {
	overlay *mapview.TileOverlay

	mu      sync.RWMutex
	staged  heatmapState
	visible heatmapState
	// bounds covers the visible points; hasBounds is false when there are none.
	bounds    s2.Rect
	hasBounds bool
}

func newTileHeatmap(view *mapview.MapView) (*tileHeatmap, error) {
	h := &tileHeatmap{staged: defaultState(), visible: defaultState()}
	o, err := view.AddTileOverlay(mapview.TileProviderFunc(h.generate))
	if err != nil {
		return nil, err
	}
	h.overlay = o
	return h, nil
}

func (h *tileHeatmap) stage(fn func(s *heatmapState)) {
	h.mu.Lock()
	fn(&h.staged)
	h.mu.Unlock()
}

func (h *tileHeatmap) SetPoints(points []overlay.WeightedPoint) {
	h.stage(func(s *heatmapState) { s.points = slices.Clone(points) })
}

func (h *tileHeatmap) SetDissipating(v bool) {
	h.stage(func(s *heatmapState) { s.dissipating = v })
}

func (h *tileHeatmap) SetGradient(g *overlay.Gradient) {
	h.stage(func(s *heatmapState) { s.gradient = g })
}

func (h *tileHeatmap) SetMaxIntensity(v float64, ok bool) {
	h.stage(func(s *heatmapState) { s.maxIntensity, s.hasMax = v, ok })
}

func (h *tileHeatmap) SetOpacity(v float64) {
	h.stage(func(s *heatmapState) { s.opacity = v })
}

func (h *tileHeatmap) SetRadius(v int) {
	h.stage(func(s *heatmapState) { s.radius = v })
}

func (h *tileHeatmap) ClearTileCache() {
	h.mu.Lock()
	h.visible = h.staged
	h.visible.points = slices.Clone(h.staged.points)
	h.bounds, h.hasBounds = overlay.Bounds(h.visible.points)
	h.mu.Unlock()
	h.overlay.ClearTileCache()
}

func (h *tileHeatmap) Remove() {
	h.overlay.Remove()
}

// Tile serves the overlay's cached tile.
func (h *tileHeatmap) Tile(t maptile.Tile) ([]byte, error) {
	return h.overlay.Tile(t)
}

func (h *tileHeatmap) Stats() mapview.CacheStats {
	return h.overlay.Stats()
}

func (h *tileHeatmap) Style() Style {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return styleFor(h.visible)
}

// generate encodes the visible points that fall in or near t.
func (h *tileHeatmap) generate(t maptile.Tile) ([]byte, error) {
	h.mu.RLock()
	state, bounds, hasBounds := h.visible, h.bounds, h.hasBounds
	h.mu.RUnlock()

	// Pad the tile by the blur radius so points just outside still bleed in.
	bound := t.Bound()
	pad := (bound.Max[0] - bound.Min[0]) * float64(state.radius) / 256
	bound = bound.Pad(pad)

	fc := geojson.NewFeatureCollection()
	if !hasBounds || !bounds.Intersects(tileRect(bound)) {
		return encodeTile(t, fc)
	}
	for _, p := range state.points {
		pt := p.Orb()
		if !bound.Contains(pt) {
			continue
		}
		f := geojson.NewFeature(pt)
		f.Properties["weight"] = p.Weight
		fc.Append(f)
	}
	return encodeTile(t, fc)
}

// tileRect converts a lng/lat bound to an s2 rectangle, clamped to the
// globe. A bound spanning every longitude becomes a full longitude interval.
func tileRect(b orb.Bound) s2.Rect {
	lat := r1.Interval{
		Lo: radians(max(b.Min[1], -90)),
		Hi: radians(min(b.Max[1], 90)),
	}
	lng := s1.FullInterval()
	if b.Max[0]-b.Min[0] < 360 {
		lng = s1.IntervalFromEndpoints(radians(max(b.Min[0], -180)), radians(min(b.Max[0], 180)))
	}
	return s2.Rect{Lat: lat, Lng: lng}
}

func radians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}
