package codec

import (
	"errors"
	"slices"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

func fullHeatmap(t *testing.T) overlay.Heatmap {
	t.Helper()
	g, err := overlay.NewGradient([]overlay.GradientStop{
		{Color: overlay.ARGB(0, 0, 0, 255), Start: 0.2},
		{Color: overlay.ARGB(255, 255, 0, 0), Start: 1},
	}, 128)
	if err != nil {
		t.Fatal(err)
	}
	h, err := overlay.NewHeatmap("h1",
		overlay.WithPoints(
			overlay.WeightedPoint{Lat: 37.78, Lng: -122.41, Weight: 1},
			overlay.WeightedPoint{Lat: 37.79, Lng: -122.42, Weight: 2.5},
		),
		overlay.WithDissipating(false),
		overlay.WithGradient(g),
		overlay.WithMaxIntensity(4),
		overlay.WithOpacity(0.7),
		overlay.WithRadius(30),
	)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestEncodeHeatmap_KeyOrder(t *testing.T) {
	f := EncodeHeatmap(fullHeatmap(t))
	want := []string{
		KeyHeatmapID, KeyData, KeyDissipating, KeyGradient, KeyStartPoints,
		KeyColorMapSize, KeyMaxIntensity, KeyOpacity, KeyRadius,
	}
	if got := f.Keys(); !slices.Equal(got, want) {
		t.Errorf("keys=%v, want %v", got, want)
	}
}

func TestEncodeHeatmap_Sparse(t *testing.T) {
	h, _ := overlay.NewHeatmap("h2")
	f := EncodeHeatmap(h)
	if _, ok := f.Get(KeyGradient); ok {
		t.Error("nil gradient should be omitted")
	}
	if _, ok := f.Get(KeyMaxIntensity); ok {
		t.Error("unset max intensity should be omitted")
	}
	if v, _ := f.Get(KeyOpacity); v != overlay.DefaultOpacity {
		t.Errorf("opacity=%v", v)
	}
}

func TestRoundTrip(t *testing.T) {
	h := fullHeatmap(t)
	got, err := DecodeHeatmap(EncodeHeatmap(h))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(h) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, h)
	}
}

func TestRoundTrip_Msgpack(t *testing.T) {
	h := fullHeatmap(t)
	b, err := msgpack.Marshal(EncodeHeatmap(h))
	if err != nil {
		t.Fatal(err)
	}

	var f Fields
	if err := msgpack.Unmarshal(b, &f); err != nil {
		t.Fatal(err)
	}
	if f.Keys()[0] != KeyHeatmapID {
		t.Errorf("first key=%q", f.Keys()[0])
	}
	got, err := DecodeHeatmap(f)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(h) {
		t.Error("msgpack round trip mismatch")
	}

	var generic any
	if err := msgpack.Unmarshal(b, &generic); err != nil {
		t.Fatal(err)
	}
	got, err = DecodeHeatmap(generic)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(h) {
		t.Error("generic msgpack round trip mismatch")
	}
}

func TestEncodeHeatmapChange(t *testing.T) {
	prev := fullHeatmap(t)
	next, err := prev.With(overlay.WithOpacity(0.9), overlay.WithGradient(nil))
	if err != nil {
		t.Fatal(err)
	}
	f := EncodeHeatmapChange(prev, next)
	if got := f.Keys(); !slices.Equal(got, []string{KeyHeatmapID, KeyGradient, KeyOpacity}) {
		t.Fatalf("keys=%v", got)
	}
	if v, _ := f.Get(KeyGradient); v != nil {
		t.Errorf("cleared gradient encoded as %v", v)
	}

	u, err := DecodeHeatmapUpdate(f)
	if err != nil {
		t.Fatal(err)
	}
	if u.Points.Set || u.Radius.Set {
		t.Error("untouched fields decoded as present")
	}
	if !u.Gradient.Set || u.Gradient.Value != nil {
		t.Errorf("gradient=%+v, want explicit clear", u.Gradient)
	}
	if !u.Opacity.Set || u.Opacity.Value != 0.9 {
		t.Errorf("opacity=%+v", u.Opacity)
	}

	applied, err := prev.Apply(u)
	if err != nil {
		t.Fatal(err)
	}
	if !applied.Equal(next) {
		t.Error("applying decoded change did not reproduce next")
	}
}

func TestDecodeHeatmapUpdate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"not a map", "h1"},
		{"missing id", map[string]any{KeyOpacity: 0.5}},
		{"id wrong type", map[string]any{KeyHeatmapID: 7}},
		{"opacity wrong type", map[string]any{KeyHeatmapID: "h", KeyOpacity: "high"}},
		{"opacity nil", map[string]any{KeyHeatmapID: "h", KeyOpacity: nil}},
		{"radius fractional", map[string]any{KeyHeatmapID: "h", KeyRadius: 20.5}},
		{"dissipating wrong type", map[string]any{KeyHeatmapID: "h", KeyDissipating: 1}},
		{"data not list", map[string]any{KeyHeatmapID: "h", KeyData: "x"}},
		{"point missing lng", map[string]any{KeyHeatmapID: "h", KeyData: []any{map[string]any{KeyLat: 1.0}}}},
		{"gradient without starts", map[string]any{KeyHeatmapID: "h", KeyGradient: []any{int64(1)}}},
		{"gradient length mismatch", map[string]any{KeyHeatmapID: "h", KeyGradient: []any{int64(1)}, KeyStartPoints: []any{0.1, 0.2}}},
		{"gradient empty", map[string]any{KeyHeatmapID: "h", KeyGradient: []any{}, KeyStartPoints: []any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeHeatmapUpdate(tt.in); !errors.Is(err, overlay.ErrMalformedMessage) {
				t.Errorf("err=%v, want ErrMalformedMessage", err)
			}
		})
	}
}

func TestDecodeHeatmapUpdate_Lenient(t *testing.T) {
	u, err := DecodeHeatmapUpdate(map[string]any{
		KeyHeatmapID: "h",
		KeyData: []any{
			map[string]any{KeyLat: int8(1), KeyLng: uint16(2)},
		},
		KeyGradient:     []any{int64(-1)},
		KeyStartPoints:  []any{float32(0.5)},
		KeyMaxIntensity: nil,
		KeyRadius:       float64(60),
	})
	if err != nil {
		t.Fatal(err)
	}
	if p := u.Points.Value[0]; p.Lat != 1 || p.Lng != 2 || p.Weight != overlay.DefaultWeight {
		t.Errorf("point=%+v", p)
	}
	if c := u.Gradient.Value.Colors()[0]; c != overlay.Color(0xFFFFFFFF) {
		t.Errorf("signed color decoded as %#x", uint32(c))
	}
	if !u.MaxIntensity.Set || u.MaxIntensity.Value != nil {
		t.Errorf("maxIntensity=%+v, want explicit clear", u.MaxIntensity)
	}
	// Range checks belong to the platform controller, not the decoder.
	if u.Radius.Value != 60 {
		t.Errorf("radius=%d", u.Radius.Value)
	}
}

func TestDecodeHeatmap_Invariant(t *testing.T) {
	_, err := DecodeHeatmap(map[string]any{KeyHeatmapID: "h", KeyRadius: 46})
	if !errors.Is(err, overlay.ErrInvariantViolation) {
		t.Errorf("err=%v, want ErrInvariantViolation", err)
	}
}

func TestDecodeBatches(t *testing.T) {
	ups, err := DecodeHeatmapUpdates([]any{nil, map[string]any{KeyHeatmapID: "a"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(ups) != 1 || ups[0].ID != "a" || !ups[0].Empty() {
		t.Errorf("updates=%+v", ups)
	}

	if _, err := DecodeHeatmapUpdates([]any{map[string]any{KeyHeatmapID: "a"}, 3}); !errors.Is(err, overlay.ErrMalformedMessage) {
		t.Errorf("bad entry: err=%v", err)
	}

	ids, err := DecodeIDs(EncodeIDs([]overlay.ID{"a", "b"}))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []overlay.ID{"a", "b"}) {
		t.Errorf("ids=%v", ids)
	}
	if _, err := DecodeIDs([]any{"a", 1}); !errors.Is(err, overlay.ErrMalformedMessage) {
		t.Errorf("bad id: err=%v", err)
	}
}
