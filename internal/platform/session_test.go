package platform

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/plat-heatmap/internal/channel"
	"github.com/joeblew999/plat-heatmap/internal/codec"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

func call(t *testing.T, s *Session, method string, args any) error {
	t.Helper()
	_, err := s.HandleMethodCall(context.Background(), channel.MethodCall{Method: method, Arguments: args})
	return err
}

func addArgs(ids ...string) []any {
	var out []any
	for _, id := range ids {
		out = append(out, map[string]any{
			codec.KeyHeatmapID: id,
			codec.KeyData: []any{
				map[string]any{codec.KeyLat: 0.5, codec.KeyLng: 0.5},
			},
		})
	}
	return out
}

func TestSession_Lifecycle(t *testing.T) {
	var events []Event
	s := NewSession("m1", nil, WithEvents(func(e Event) { events = append(events, e) }))

	if err := call(t, s, channel.MethodHeatmapsAdd, addArgs("a", "b")); err != nil {
		t.Fatal(err)
	}
	if got := s.HeatmapIDs(); !slices.Equal(got, []overlay.ID{"a", "b"}) {
		t.Fatalf("ids=%v", got)
	}
	if s.Overlays() != 2 {
		t.Errorf("overlays=%d", s.Overlays())
	}

	if err := call(t, s, channel.MethodHeatmapsUpdate, []any{
		map[string]any{codec.KeyHeatmapID: "a", codec.KeyOpacity: 0.9},
		map[string]any{codec.KeyHeatmapID: "zzz", codec.KeyOpacity: 0.9},
	}); err != nil {
		t.Fatal(err)
	}
	native, _ := s.Heatmap("a")
	if op := native.Style().Paint["heatmap-opacity"]; op != 0.9 {
		t.Errorf("opacity=%v", op)
	}

	if err := call(t, s, channel.MethodHeatmapsRemove, []any{"a", "missing", nil}); err != nil {
		t.Fatal(err)
	}
	if got := s.HeatmapIDs(); !slices.Equal(got, []overlay.ID{"b"}) {
		t.Errorf("ids=%v", got)
	}
	if s.Overlays() != 1 {
		t.Errorf("overlays=%d, want 1 after remove", s.Overlays())
	}

	want := []string{"added:a", "added:b", "changed:a", "removed:a"}
	var got []string
	for _, e := range events {
		got = append(got, e.Action+":"+string(e.ID))
	}
	if !slices.Equal(got, want) {
		t.Errorf("events=%v, want %v", got, want)
	}

	s.Teardown()
	s.Teardown()
	if s.Overlays() != 0 {
		t.Errorf("overlays=%d after teardown", s.Overlays())
	}
	if err := call(t, s, channel.MethodHeatmapsAdd, addArgs("c")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("add after teardown: err=%v", err)
	}
}

func TestSession_MalformedBatchAppliesNothing(t *testing.T) {
	s := NewSession("m1", nil)
	args := append(addArgs("a"), map[string]any{codec.KeyOpacity: 0.3})

	err := call(t, s, channel.MethodHeatmapsAdd, args)
	if !errors.Is(err, overlay.ErrMalformedMessage) {
		t.Fatalf("err=%v, want malformed", err)
	}
	if len(s.HeatmapIDs()) != 0 {
		t.Errorf("partial batch applied: %v", s.HeatmapIDs())
	}
}

func TestSession_InvalidGradientRejectsBatch(t *testing.T) {
	badGradient := map[string]any{
		codec.KeyHeatmapID:   "b",
		codec.KeyGradient:    []any{int64(0xff00ff00), int64(0xffff0000)},
		codec.KeyStartPoints: []any{0.8, 0.2},
	}

	s := NewSession("m1", nil)
	err := call(t, s, channel.MethodHeatmapsAdd, append(addArgs("a"), badGradient))
	if !errors.Is(err, overlay.ErrMalformedMessage) {
		t.Fatalf("add err=%v, want malformed", err)
	}
	if len(s.HeatmapIDs()) != 0 {
		t.Fatalf("partial batch applied: %v", s.HeatmapIDs())
	}

	if err := call(t, s, channel.MethodHeatmapsAdd, addArgs("b")); err != nil {
		t.Fatal(err)
	}
	native, _ := s.Heatmap("b")
	before := native.Style()
	err = call(t, s, channel.MethodHeatmapsUpdate, []any{
		map[string]any{codec.KeyHeatmapID: "b", codec.KeyOpacity: 0.2},
		badGradient,
	})
	if !errors.Is(err, overlay.ErrMalformedMessage) {
		t.Fatalf("update err=%v, want malformed", err)
	}
	if op := native.Style().Paint["heatmap-opacity"]; op != before.Paint["heatmap-opacity"] {
		t.Errorf("opacity=%v after rejected batch, want %v", op, before.Paint["heatmap-opacity"])
	}
}

func TestSession_UnknownMethod(t *testing.T) {
	s := NewSession("m1", nil)
	if err := call(t, s, "markers#add", nil); !errors.Is(err, channel.ErrNotImplemented) {
		t.Errorf("err=%v", err)
	}
}

func TestSession_AddOverExistingReleases(t *testing.T) {
	s := NewSession("m1", nil)
	_ = call(t, s, channel.MethodHeatmapsAdd, addArgs("a"))
	_ = call(t, s, channel.MethodHeatmapsAdd, addArgs("a"))
	if s.Overlays() != 1 {
		t.Errorf("overlays=%d, want 1 (old native overlay leaked)", s.Overlays())
	}
}

func TestTileHeatmap_StagedUntilInvalidate(t *testing.T) {
	s := NewSession("m1", nil)
	if err := call(t, s, channel.MethodHeatmapsAdd, addArgs("a")); err != nil {
		t.Fatal(err)
	}
	native, _ := s.Heatmap("a")
	tile := maptile.At(overlay.WeightedPoint{Lat: 0.5, Lng: 0.5}.Orb(), 4)

	if n := featureCount(t, native, tile); n != 1 {
		t.Fatalf("features=%d, want 1", n)
	}

	native.SetPoints([]overlay.WeightedPoint{{Lat: 0.5, Lng: 0.5, Weight: 1}, {Lat: 0.6, Lng: 0.6, Weight: 2}})
	if n := featureCount(t, native, tile); n != 1 {
		t.Errorf("staged points visible before invalidate: %d features", n)
	}

	native.ClearTileCache()
	if n := featureCount(t, native, tile); n != 2 {
		t.Errorf("features=%d after invalidate, want 2", n)
	}

	far := maptile.At(overlay.WeightedPoint{Lat: -60, Lng: 120}.Orb(), 4)
	if n := featureCount(t, native, far); n != 0 {
		t.Errorf("far tile has %d features", n)
	}
}
