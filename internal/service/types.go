// Package service contains the business logic behind the heatmap API: map
// sessions, the heatmap library and point queries.
package service

import (
	"fmt"
	"time"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// HeatmapBody is the JSON form of a heatmap descriptor.
// Huma reads the tags for OpenAPI and request validation; the overlay
// package validates again when the descriptor is built.
type HeatmapBody struct {
	ID           string        `json:"id,omitempty" maxLength:"100" doc:"Heatmap identifier, unique within a map. Library entries derive it from the name when omitted" example:"incidents"`
	Name         string        `json:"name,omitempty" maxLength:"100" doc:"Display name (library only)" example:"Incidents"`
	Data         []PointBody   `json:"data,omitempty" doc:"Weighted points"`
	Dissipating  *bool         `json:"dissipating,omitempty" doc:"Whether the radius stays fixed in pixels while zooming (default true)"`
	Gradient     *GradientBody `json:"gradient,omitempty" doc:"Color gradient, platform default when omitted"`
	MaxIntensity *float64      `json:"maxIntensity,omitempty" minimum:"0" doc:"Intensity mapped to the top of the gradient, computed by the renderer when omitted"`
	Opacity      *float64      `json:"opacity,omitempty" minimum:"0" maximum:"1" doc:"Layer opacity (default 0.6)" example:"0.6"`
	Radius       *int          `json:"radius,omitempty" minimum:"10" maximum:"45" doc:"Blur radius in pixels (default 20)" example:"20"`
}

// PointBody is one weighted point.
type PointBody struct {
	Lat       float64  `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude in degrees" example:"-33.86"`
	Lng       float64  `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude in degrees" example:"151.21"`
	Intensity *float64 `json:"intensity,omitempty" minimum:"0" doc:"Point weight (default 1)" example:"1"`
}

// GradientBody is a color gradient. Colors and StartPoints pair up by index.
type GradientBody struct {
	Colors       []uint32  `json:"colors" minItems:"1" doc:"ARGB colors" example:"[4284874752,4294901760]"`
	StartPoints  []float64 `json:"startPoints" minItems:"1" doc:"Start fraction of each color, non-decreasing in [0,1]" example:"[0.2,1]"`
	ColorMapSize int       `json:"colorMapSize,omitempty" minimum:"0" doc:"Size of the color lookup table (default 256)" example:"256"`
}

// MapInfo describes one map session.
type MapInfo struct {
	ID       string    `json:"id" doc:"Map session identifier"`
	Name     string    `json:"name,omitempty" doc:"Display name"`
	Created  time.Time `json:"created" doc:"Creation time"`
	Heatmaps []string  `json:"heatmaps" doc:"Live heatmap ids on the platform side"`
	Overlays int       `json:"overlays" doc:"Tile overlays attached to the map view"`
	TileType string    `json:"tileType" doc:"Media type of heatmap tiles" example:"application/vnd.mapbox-vector-tile"`
}

// ChangesBody summarises one reconciliation.
type ChangesBody struct {
	Added   []string `json:"added" doc:"Heatmap ids added"`
	Changed []string `json:"changed" doc:"Heatmap ids whose descriptor changed"`
	Removed []string `json:"removed" doc:"Heatmap ids removed"`
}

// PointQuery selects weighted points from a DuckDB table.
type PointQuery struct {
	Table        string `json:"table" required:"true" pattern:"^[A-Za-z_][A-Za-z0-9_]*$" doc:"Table name" example:"incidents"`
	LatColumn    string `json:"latColumn,omitempty" pattern:"^[A-Za-z_][A-Za-z0-9_]*$" doc:"Latitude column (default lat)"`
	LngColumn    string `json:"lngColumn,omitempty" pattern:"^[A-Za-z_][A-Za-z0-9_]*$" doc:"Longitude column (default lng)"`
	WeightColumn string `json:"weightColumn,omitempty" pattern:"^[A-Za-z_][A-Za-z0-9_]*$" doc:"Weight column, every point weighs 1 when omitted"`
	Limit        int    `json:"limit,omitempty" minimum:"0" maximum:"1000000" doc:"Maximum rows (default 100000)"`
}

// Heatmap builds and validates the descriptor.
func (b HeatmapBody) Heatmap() (overlay.Heatmap, error) {
	var opts []overlay.Option

	points := make([]overlay.WeightedPoint, 0, len(b.Data))
	for i, p := range b.Data {
		w := overlay.DefaultWeight
		if p.Intensity != nil {
			w = *p.Intensity
		}
		wp, err := overlay.NewWeightedPoint(p.Lat, p.Lng, w)
		if err != nil {
			return overlay.Heatmap{}, fmt.Errorf("heatmap %q point %d: %w", b.ID, i, err)
		}
		points = append(points, wp)
	}
	opts = append(opts, overlay.WithPoints(points...))

	if b.Dissipating != nil {
		opts = append(opts, overlay.WithDissipating(*b.Dissipating))
	}
	if b.Gradient != nil {
		g, err := b.Gradient.Gradient()
		if err != nil {
			return overlay.Heatmap{}, fmt.Errorf("heatmap %q: %w", b.ID, err)
		}
		opts = append(opts, overlay.WithGradient(g))
	}
	if b.MaxIntensity != nil {
		opts = append(opts, overlay.WithMaxIntensity(*b.MaxIntensity))
	}
	if b.Opacity != nil {
		opts = append(opts, overlay.WithOpacity(*b.Opacity))
	}
	if b.Radius != nil {
		opts = append(opts, overlay.WithRadius(*b.Radius))
	}
	return overlay.NewHeatmap(overlay.ID(b.ID), opts...)
}

// Gradient builds and validates the gradient.
func (b GradientBody) Gradient() (*overlay.Gradient, error) {
	if len(b.Colors) != len(b.StartPoints) {
		return nil, fmt.Errorf("%w: %d gradient colors but %d start points",
			overlay.ErrInvariantViolation, len(b.Colors), len(b.StartPoints))
	}
	stops := make([]overlay.GradientStop, len(b.Colors))
	for i := range b.Colors {
		stops[i] = overlay.GradientStop{Color: overlay.Color(b.Colors[i]), Start: b.StartPoints[i]}
	}
	return overlay.NewGradient(stops, b.ColorMapSize)
}

// NewHeatmapBody renders a descriptor as JSON. Every field is filled in so
// clients see the effective defaults.
func NewHeatmapBody(h overlay.Heatmap) HeatmapBody {
	b := HeatmapBody{
		ID:   string(h.OverlayID()),
		Data: make([]PointBody, 0),
	}
	for _, p := range h.Points() {
		w := p.Weight
		b.Data = append(b.Data, PointBody{Lat: p.Lat, Lng: p.Lng, Intensity: &w})
	}
	dissipating, opacity, radius := h.Dissipating(), h.Opacity(), h.Radius()
	b.Dissipating, b.Opacity, b.Radius = &dissipating, &opacity, &radius
	if g := h.Gradient(); g != nil {
		gb := &GradientBody{ColorMapSize: g.ColorMapSize(), StartPoints: g.StartPoints()}
		for _, c := range g.Colors() {
			gb.Colors = append(gb.Colors, uint32(c))
		}
		b.Gradient = gb
	}
	if v, ok := h.MaxIntensity(); ok {
		b.MaxIntensity = &v
	}
	return b
}

func heatmapIDs(ids []overlay.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
