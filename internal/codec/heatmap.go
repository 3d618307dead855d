package codec

import (
	"fmt"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// Wire keys for heatmap structures.
const (
	KeyHeatmapID    = "heatmapId"
	KeyData         = "data"
	KeyDissipating  = "dissipating"
	KeyGradient     = "gradient"
	KeyStartPoints  = "startPoints"
	KeyColorMapSize = "colorMapSize"
	KeyMaxIntensity = "maxIntensity"
	KeyOpacity      = "opacity"
	KeyRadius       = "radius"

	KeyLat       = "lat"
	KeyLng       = "lng"
	KeyIntensity = "intensity"
)

// EncodeHeatmap encodes every present field of h. A nil gradient and an
// unset max intensity are omitted.
func EncodeHeatmap(h overlay.Heatmap) Fields {
	u := h.Update()
	// Absent optionals are left out of a full structure rather than sent as nil.
	if u.Gradient.Value == nil {
		u.Gradient = overlay.Field[*overlay.Gradient]{}
	}
	if u.MaxIntensity.Value == nil {
		u.MaxIntensity = overlay.Field[*float64]{}
	}
	return EncodeHeatmapUpdate(u)
}

// EncodeHeatmapChange encodes the id plus only the fields that differ
// between prev and next. A cleared optional is encoded as an explicit nil.
func EncodeHeatmapChange(prev, next overlay.Heatmap) Fields {
	return EncodeHeatmapUpdate(prev.Diff(next))
}

// EncodeHeatmapUpdate encodes the id and the present fields of u.
func EncodeHeatmapUpdate(u overlay.HeatmapUpdate) Fields {
	f := Fields{{Key: KeyHeatmapID, Value: string(u.ID)}}
	if u.Points.Set {
		f = f.add(KeyData, encodePoints(u.Points.Value))
	}
	if u.Dissipating.Set {
		f = f.add(KeyDissipating, u.Dissipating.Value)
	}
	if u.Gradient.Set {
		if g := u.Gradient.Value; g == nil {
			f = f.add(KeyGradient, nil)
		} else {
			colors := make([]int64, 0, len(g.Colors()))
			for _, c := range g.Colors() {
				colors = append(colors, int64(c))
			}
			f = f.add(KeyGradient, colors)
			f = f.add(KeyStartPoints, g.StartPoints())
			f = f.add(KeyColorMapSize, g.ColorMapSize())
		}
	}
	if u.MaxIntensity.Set {
		if u.MaxIntensity.Value == nil {
			f = f.add(KeyMaxIntensity, nil)
		} else {
			f = f.add(KeyMaxIntensity, *u.MaxIntensity.Value)
		}
	}
	if u.Opacity.Set {
		f = f.add(KeyOpacity, u.Opacity.Value)
	}
	if u.Radius.Set {
		f = f.add(KeyRadius, u.Radius.Value)
	}
	return f
}

func encodePoints(points []overlay.WeightedPoint) []Fields {
	out := make([]Fields, len(points))
	for i, p := range points {
		out[i] = Fields{
			{Key: KeyLat, Value: p.Lat},
			{Key: KeyLng, Value: p.Lng},
			{Key: KeyIntensity, Value: p.Weight},
		}
	}
	return out
}

// EncodeHeatmaps encodes a batch for heatmaps#add.
func EncodeHeatmaps(hs []overlay.Heatmap) []any {
	out := make([]any, len(hs))
	for i, h := range hs {
		out[i] = EncodeHeatmap(h)
	}
	return out
}

// EncodeIDs encodes a batch for heatmaps#remove.
func EncodeIDs(ids []overlay.ID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// DecodeHeatmap decodes a full structure into a validated descriptor.
// Fields missing from v take their defaults.
func DecodeHeatmap(v any) (overlay.Heatmap, error) {
	u, err := DecodeHeatmapUpdate(v)
	if err != nil {
		return overlay.Heatmap{}, err
	}
	return overlay.NewHeatmap(u.ID, u.Options()...)
}

// DecodeHeatmapUpdate decodes a possibly sparse structure. Only keys present
// in v are marked present in the result. Values are not range checked.
func DecodeHeatmapUpdate(v any) (overlay.HeatmapUpdate, error) {
	m, ok := asMap(v)
	if !ok {
		return overlay.HeatmapUpdate{}, malformed("heatmap is %T, want a map", v)
	}

	var u overlay.HeatmapUpdate
	id, ok := m[KeyHeatmapID].(string)
	if !ok || id == "" {
		return u, malformed("missing %s", KeyHeatmapID)
	}
	u.ID = overlay.ID(id)

	if raw, ok := m[KeyData]; ok {
		points, err := decodePoints(raw)
		if err != nil {
			return u, err
		}
		u.Points = overlay.Set(points)
	}

	if raw, ok := m[KeyDissipating]; ok {
		b, ok := raw.(bool)
		if !ok {
			return u, malformed("%s is %T, want bool", KeyDissipating, raw)
		}
		u.Dissipating = overlay.Set(b)
	}

	if raw, ok := m[KeyGradient]; ok {
		g, err := decodeGradient(raw, m[KeyStartPoints], m[KeyColorMapSize])
		if err != nil {
			return u, err
		}
		u.Gradient = overlay.Set(g)
	}

	if raw, ok := m[KeyMaxIntensity]; ok {
		if raw == nil {
			u.MaxIntensity = overlay.Set[*float64](nil)
		} else {
			f, ok := toFloat(raw)
			if !ok {
				return u, malformed("%s is %T, want number", KeyMaxIntensity, raw)
			}
			u.MaxIntensity = overlay.Set(&f)
		}
	}

	if raw, ok := m[KeyOpacity]; ok {
		f, ok := toFloat(raw)
		if !ok {
			return u, malformed("%s is %T, want number", KeyOpacity, raw)
		}
		u.Opacity = overlay.Set(f)
	}

	if raw, ok := m[KeyRadius]; ok {
		n, ok := toInt64(raw)
		if !ok {
			return u, malformed("%s is %T, want integer", KeyRadius, raw)
		}
		u.Radius = overlay.Set(int(n))
	}

	return u, nil
}

func decodePoints(raw any) ([]overlay.WeightedPoint, error) {
	list, ok := asList(raw)
	if !ok {
		return nil, malformed("%s is %T, want list", KeyData, raw)
	}
	points := make([]overlay.WeightedPoint, 0, len(list))
	for i, item := range list {
		pm, ok := asMap(item)
		if !ok {
			return nil, malformed("%s[%d] is %T, want map", KeyData, i, item)
		}
		lat, okLat := toFloat(pm[KeyLat])
		lng, okLng := toFloat(pm[KeyLng])
		if !okLat || !okLng {
			return nil, malformed("%s[%d] needs numeric %s and %s", KeyData, i, KeyLat, KeyLng)
		}
		weight := overlay.DefaultWeight
		if w, present := pm[KeyIntensity]; present && w != nil {
			if weight, ok = toFloat(w); !ok {
				return nil, malformed("%s[%d].%s is %T, want number", KeyData, i, KeyIntensity, w)
			}
		}
		points = append(points, overlay.WeightedPoint{Lat: lat, Lng: lng, Weight: weight})
	}
	return points, nil
}

// decodeGradient returns nil for an explicit nil gradient.
func decodeGradient(rawColors, rawStarts, rawSize any) (*overlay.Gradient, error) {
	if rawColors == nil {
		return nil, nil
	}
	colors, ok := asList(rawColors)
	if !ok {
		return nil, malformed("%s is %T, want list", KeyGradient, rawColors)
	}
	starts, ok := asList(rawStarts)
	if !ok {
		return nil, malformed("%s is %T, want list", KeyStartPoints, rawStarts)
	}
	if len(colors) != len(starts) {
		return nil, malformed("%s has %d entries, %s has %d", KeyGradient, len(colors), KeyStartPoints, len(starts))
	}

	stops := make([]overlay.GradientStop, len(colors))
	for i := range colors {
		c, ok := toColor(colors[i])
		if !ok {
			return nil, malformed("%s[%d] is not an ARGB color", KeyGradient, i)
		}
		s, ok := toFloat(starts[i])
		if !ok {
			return nil, malformed("%s[%d] is %T, want number", KeyStartPoints, i, starts[i])
		}
		stops[i] = overlay.GradientStop{Color: c, Start: s}
	}

	size := 0
	if rawSize != nil {
		n, ok := toInt64(rawSize)
		if !ok {
			return nil, malformed("%s is %T, want integer", KeyColorMapSize, rawSize)
		}
		size = int(n)
	}

	g, err := overlay.NewGradient(stops, size)
	if err != nil {
		return nil, malformed("gradient: %v", err)
	}
	return g, nil
}

// DecodeHeatmapUpdates decodes a heatmaps#add or heatmaps#update batch.
// nil entries are skipped. Either the whole batch decodes or nothing does.
func DecodeHeatmapUpdates(v any) ([]overlay.HeatmapUpdate, error) {
	list, ok := asList(v)
	if !ok {
		return nil, malformed("heatmap batch is %T, want list", v)
	}
	out := make([]overlay.HeatmapUpdate, 0, len(list))
	for i, item := range list {
		if item == nil {
			continue
		}
		u, err := DecodeHeatmapUpdate(item)
		if err != nil {
			return nil, malformedAt(i, err)
		}
		out = append(out, u)
	}
	return out, nil
}

// DecodeIDs decodes a heatmaps#remove batch. nil entries are skipped.
func DecodeIDs(v any) ([]overlay.ID, error) {
	list, ok := asList(v)
	if !ok {
		return nil, malformed("id batch is %T, want list", v)
	}
	out := make([]overlay.ID, 0, len(list))
	for i, item := range list {
		if item == nil {
			continue
		}
		s, ok := item.(string)
		if !ok {
			return nil, malformed("id[%d] is %T, want string", i, item)
		}
		out = append(out, overlay.ID(s))
	}
	return out, nil
}

func malformedAt(i int, err error) error {
	return fmt.Errorf("entry %d: %w", i, err)
}
