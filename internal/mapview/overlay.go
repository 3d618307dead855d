package mapview

import (
	"sync"

	"github.com/paulmach/orb/maptile"
)

// MaxCachedTiles bounds the tile cache of one overlay. When full the cache
// is dropped and refilled on demand.
const MaxCachedTiles = 4096

// TileOverlay is one provider drawn on a map view.
type TileOverlay struct {
	view     *MapView
	provider TileProvider
	zIndex   int

	mu      sync.Mutex
	cache   map[maptile.Tile][]byte
	gen     uint64
	removed bool
	stats   CacheStats
}

// CacheStats counts tile cache activity.
type CacheStats struct {
	Hits        int `json:"hits"`
	Misses      int `json:"misses"`
	Clears      int `json:"clears"`
	CachedTiles int `json:"cachedTiles"`
}

// ZIndex returns the draw order of the overlay.
func (o *TileOverlay) ZIndex() int { return o.zIndex }

// Tile returns the cached tile or asks the provider for it.
func (o *TileOverlay) Tile(t maptile.Tile) ([]byte, error) {
	o.mu.Lock()
	if o.removed {
		o.mu.Unlock()
		return nil, ErrOverlayRemoved
	}
	if b, ok := o.cache[t]; ok {
		o.stats.Hits++
		o.mu.Unlock()
		return b, nil
	}
	o.stats.Misses++
	gen := o.gen
	o.mu.Unlock()

	b, err := o.provider.Tile(t)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	// A tile generated before a clear may be stale, so it is returned but not kept.
	if !o.removed && gen == o.gen {
		if len(o.cache) >= MaxCachedTiles {
			o.cache = make(map[maptile.Tile][]byte)
		}
		o.cache[t] = b
	}
	return b, nil
}

// ClearTileCache drops every cached tile so the next request regenerates it.
func (o *TileOverlay) ClearTileCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache = make(map[maptile.Tile][]byte)
	o.gen++
	o.stats.Clears++
}

// Remove detaches the overlay from its view and frees its cache.
// Removing twice is a no-op.
func (o *TileOverlay) Remove() {
	o.mu.Lock()
	if o.removed {
		o.mu.Unlock()
		return
	}
	o.removed = true
	o.cache = nil
	o.mu.Unlock()

	o.view.detach(o)
}

// Removed reports whether Remove was called.
func (o *TileOverlay) Removed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.removed
}

// Stats returns a snapshot of cache counters.
func (o *TileOverlay) Stats() CacheStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats
	s.CachedTiles = len(o.cache)
	return s
}
