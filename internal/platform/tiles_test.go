package platform

import (
	"math"
	"testing"

	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// featureCount decodes a tile in whichever format this build serves.
func featureCount(t *testing.T, n NativeHeatmap, tile maptile.Tile) int {
	t.Helper()
	b, err := n.Tile(tile)
	if err != nil {
		t.Fatal(err)
	}
	if TileContentType() == "application/geo+json" {
		fc, err := geojson.UnmarshalFeatureCollection(b)
		if err != nil {
			t.Fatal(err)
		}
		return len(fc.Features)
	}
	layers, err := mvt.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, l := range layers {
		total += len(l.Features)
	}
	return total
}

func TestTileRect(t *testing.T) {
	world := tileRect(maptile.New(0, 0, 0).Bound().Pad(10))
	if !world.Lng.IsFull() {
		t.Errorf("world lng=%v, want full", world.Lng)
	}
	if hi := world.Lat.Hi; hi > math.Pi/2+1e-12 {
		t.Errorf("world lat hi=%v exceeds the pole", hi)
	}

	tile := maptile.New(8, 5, 4)
	r := tileRect(tile.Bound())
	b := tile.Bound()
	center := overlay.WeightedPoint{Lat: (b.Min[1] + b.Max[1]) / 2, Lng: (b.Min[0] + b.Max[0]) / 2}
	if !r.ContainsLatLng(center.LatLng()) {
		t.Errorf("rect %v misses tile centre %v", r, center)
	}
	outside := overlay.WeightedPoint{Lat: b.Max[1] + 1, Lng: b.Max[0] + 1}
	if r.ContainsLatLng(outside.LatLng()) {
		t.Errorf("rect %v contains %v", r, outside)
	}
}

func TestTileHeatmap_BoundsFollowVisibleState(t *testing.T) {
	view := mapview.New()
	defer view.Close()
	h, err := newTileHeatmap(view)
	if err != nil {
		t.Fatal(err)
	}

	east := maptile.At(overlay.WeightedPoint{Lat: 10, Lng: 179.5}.Orb(), 5)
	west := maptile.At(overlay.WeightedPoint{Lat: 10, Lng: -179.5}.Orb(), 5)
	if n := featureCount(t, h, east); n != 0 {
		t.Fatalf("empty heatmap tile has %d features", n)
	}

	h.SetPoints([]overlay.WeightedPoint{
		{Lat: 10, Lng: 179.5, Weight: 1},
		{Lat: 10, Lng: -179.5, Weight: 1},
	})
	h.ClearTileCache()

	// The point set straddles the antimeridian, so both edge tiles see a point.
	if n := featureCount(t, h, east); n != 1 {
		t.Errorf("east tile features=%d, want 1", n)
	}
	if n := featureCount(t, h, west); n != 1 {
		t.Errorf("west tile features=%d, want 1", n)
	}
	middle := maptile.At(overlay.WeightedPoint{Lat: 10, Lng: 0}.Orb(), 5)
	if n := featureCount(t, h, middle); n != 0 {
		t.Errorf("middle tile features=%d, want 0", n)
	}
}
