//go:build geojson

package platform

import (
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

const tileContentType = "application/geo+json"

// encodeTile returns the features as a GeoJSON FeatureCollection in
// WGS84, for renderers without vector tile support.
func encodeTile(_ maptile.Tile, fc *geojson.FeatureCollection) ([]byte, error) {
	return fc.MarshalJSON()
}
