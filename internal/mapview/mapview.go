// Package mapview is the native side of a map: a view holding tile overlays,
// each backed by a tile provider and a cache of generated tiles.
package mapview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest zoom level tiles are served for.
const MaxZoom = 22

var (
	// ErrClosed indicates the map view was torn down.
	ErrClosed = errors.New("map view closed")

	// ErrOverlayRemoved indicates a tile request for a removed overlay.
	ErrOverlayRemoved = errors.New("tile overlay removed")

	// ErrInvalidTile indicates tile coordinates outside the zoom level.
	ErrInvalidTile = errors.New("invalid tile")
)

// TileProvider generates the payload of one tile.
type TileProvider interface {
	Tile(t maptile.Tile) ([]byte, error)
}

// TileProviderFunc adapts a function to TileProvider.
type TileProviderFunc func(t maptile.Tile) ([]byte, error)

// Tile calls f.
func (f TileProviderFunc) Tile(t maptile.Tile) ([]byte, error) {
	return f(t)
}

// MapView owns the tile overlays of one map.
type MapView struct {
	mu       sync.Mutex
	overlays map[*TileOverlay]struct{}
	nextZ    int
	closed   bool
}

// New creates an empty map view.
func New() *MapView {
	return &MapView{overlays: make(map[*TileOverlay]struct{})}
}

// AddTileOverlay attaches a provider to the view. Overlays added later draw
// on top of earlier ones.
func (m *MapView) AddTileOverlay(p TileProvider) (*TileOverlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	m.nextZ++
	o := &TileOverlay{
		view:     m,
		provider: p,
		zIndex:   m.nextZ,
		cache:    make(map[maptile.Tile][]byte),
	}
	m.overlays[o] = struct{}{}
	return o, nil
}

// Len returns the number of attached overlays.
func (m *MapView) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.overlays)
}

// Close removes every overlay. Further adds fail with ErrClosed.
func (m *MapView) Close() {
	m.mu.Lock()
	overlays := make([]*TileOverlay, 0, len(m.overlays))
	for o := range m.overlays {
		overlays = append(overlays, o)
	}
	m.closed = true
	m.mu.Unlock()

	for _, o := range overlays {
		o.Remove()
	}
}

func (m *MapView) detach(o *TileOverlay) {
	m.mu.Lock()
	delete(m.overlays, o)
	m.mu.Unlock()
}

// ParseTile validates z/x/y coordinates.
func ParseTile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > MaxZoom {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d outside [0,%d]", ErrInvalidTile, z, MaxZoom)
	}
	n := 1 << z
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, z, x, y)
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}
