//go:build !geojson

package platform

import (
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
)

const tileContentType = "application/vnd.mapbox-vector-tile"

// encodeTile projects the features into tile space and encodes them as a
// Mapbox Vector Tile.
func encodeTile(t maptile.Tile, fc *geojson.FeatureCollection) ([]byte, error) {
	layer := mvt.NewLayer(tileLayerName, fc)
	layer.ProjectToTile(t)
	return mvt.Marshal(mvt.Layers{layer})
}
