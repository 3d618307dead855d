package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-heatmap/internal/channel"
	"github.com/joeblew999/plat-heatmap/internal/mapsync"
	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
	"github.com/joeblew999/plat-heatmap/internal/platform"
	"github.com/joeblew999/plat-heatmap/internal/reconcile"
)

// mapEntry pairs a platform session with the declarative state driving it.
type mapEntry struct {
	id      string
	name    string
	created time.Time
	session *platform.Session
	decl    *mapsync.Heatmaps
}

func (e *mapEntry) info() MapInfo {
	return MapInfo{
		ID:       e.id,
		Name:     e.name,
		Created:  e.created,
		Heatmaps: heatmapIDs(e.session.HeatmapIDs()),
		Overlays: e.session.Overlays(),
		TileType: platform.TileContentType(),
	}
}

// MapService owns the live map sessions.
type MapService struct {
	log *slog.Logger
	bus *EventBus
	now func() time.Time

	mu   sync.RWMutex
	maps map[string]*mapEntry
}

// NewMapService creates an empty set of map sessions.
func NewMapService(bus *EventBus, log *slog.Logger) *MapService {
	if log == nil {
		log = slog.Default()
	}
	return &MapService{
		log:  log,
		bus:  bus,
		now:  time.Now,
		maps: make(map[string]*mapEntry),
	}
}

// Create starts a new map session.
func (s *MapService) Create(name string) MapInfo {
	id := uuid.NewString()
	e := &mapEntry{id: id, name: name, created: s.now().UTC()}
	e.session = platform.NewSession(id, s.log, platform.WithEvents(func(ev platform.Event) {
		s.bus.Publish(Event{Resource: ev.Kind, Action: ev.Action, ID: string(ev.ID), Map: ev.Session})
	}))
	e.decl = mapsync.NewHeatmaps(channel.NewLoopback(e.session), s.log.With("map", id))

	s.mu.Lock()
	s.maps[id] = e
	s.mu.Unlock()

	s.log.Info("map session created", "map", id, "name", name)
	s.bus.Publish(Event{Resource: ResourceMaps, Action: "created", ID: id})
	return e.info()
}

// List returns every map session, oldest first.
func (s *MapService) List() []MapInfo {
	s.mu.RLock()
	entries := make([]*mapEntry, 0, len(s.maps))
	for _, e := range s.maps {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *mapEntry) int {
		if c := a.created.Compare(b.created); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	out := make([]MapInfo, len(entries))
	for i, e := range entries {
		out[i] = e.info()
	}
	return out
}

// Get describes one map session.
func (s *MapService) Get(id string) (MapInfo, error) {
	e, err := s.entry(id)
	if err != nil {
		return MapInfo{}, err
	}
	return e.info(), nil
}

// Delete tears a map session down.
func (s *MapService) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.maps[id]
	delete(s.maps, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("map %q: %w", id, ErrNotFound)
	}

	e.session.Teardown()
	s.bus.Publish(Event{Resource: ResourceMaps, Action: "deleted", ID: id})
	return nil
}

// Close tears every map session down.
func (s *MapService) Close() {
	s.mu.Lock()
	entries := s.maps
	s.maps = make(map[string]*mapEntry)
	s.mu.Unlock()

	for _, e := range entries {
		e.session.Teardown()
	}
}

// Heatmaps returns the declared heatmaps of a map, sorted by id.
func (s *MapService) Heatmaps(id string) ([]overlay.Heatmap, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.decl.Current(), nil
}

// Heatmap returns one declared heatmap.
func (s *MapService) Heatmap(id, heatmapID string) (overlay.Heatmap, error) {
	e, err := s.entry(id)
	if err != nil {
		return overlay.Heatmap{}, err
	}
	h, ok := e.decl.Get(overlay.ID(heatmapID))
	if !ok {
		return overlay.Heatmap{}, fmt.Errorf("heatmap %q on map %q: %w", heatmapID, id, ErrNotFound)
	}
	return h, nil
}

// SetHeatmaps replaces the declared heatmaps of a map and reconciles the
// platform side with them.
func (s *MapService) SetHeatmaps(ctx context.Context, id string, next []overlay.Heatmap) (reconcile.Changes[overlay.Heatmap], error) {
	if dups := reconcile.Duplicates(next); len(dups) > 0 {
		return reconcile.Changes[overlay.Heatmap]{}, fmt.Errorf("%w: %v", ErrDuplicateID, dups)
	}
	e, err := s.entry(id)
	if err != nil {
		return reconcile.Changes[overlay.Heatmap]{}, err
	}

	changes, err := e.decl.Update(ctx, next)
	if err != nil {
		if e.session.Closed() {
			return changes, fmt.Errorf("map %q: %w", id, ErrNotFound)
		}
		return changes, err
	}
	return changes, nil
}

// MergeHeatmaps adds hs to the declared heatmaps of a map, replacing any
// with the same id.
func (s *MapService) MergeHeatmaps(ctx context.Context, id string, hs []overlay.Heatmap) (reconcile.Changes[overlay.Heatmap], error) {
	if dups := reconcile.Duplicates(hs); len(dups) > 0 {
		return reconcile.Changes[overlay.Heatmap]{}, fmt.Errorf("%w: %v", ErrDuplicateID, dups)
	}
	e, err := s.entry(id)
	if err != nil {
		return reconcile.Changes[overlay.Heatmap]{}, err
	}

	changes, err := e.decl.Merge(ctx, hs)
	if err != nil && e.session.Closed() {
		return changes, fmt.Errorf("map %q: %w", id, ErrNotFound)
	}
	return changes, err
}

// Tile returns one encoded tile of a heatmap overlay.
func (s *MapService) Tile(id, heatmapID string, z, x, y int) ([]byte, error) {
	native, err := s.native(id, heatmapID)
	if err != nil {
		return nil, err
	}
	t, err := mapview.ParseTile(z, x, y)
	if err != nil {
		return nil, err
	}
	return native.Tile(t)
}

// Style returns the renderer style of a heatmap overlay.
func (s *MapService) Style(id, heatmapID string) (platform.Style, mapview.CacheStats, error) {
	native, err := s.native(id, heatmapID)
	if err != nil {
		return platform.Style{}, mapview.CacheStats{}, err
	}
	return native.Style(), native.Stats(), nil
}

// Channel handles one framed method call from a remote declarative client.
// Calls sent this way bypass the declared state kept by SetHeatmaps.
func (s *MapService) Channel(ctx context.Context, id string, req []byte) ([]byte, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return channel.Serve(ctx, e.session, req), nil
}

func (s *MapService) native(id, heatmapID string) (platform.NativeHeatmap, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	native, ok := e.session.Heatmap(overlay.ID(heatmapID))
	if !ok {
		return nil, fmt.Errorf("heatmap %q on map %q: %w", heatmapID, id, ErrNotFound)
	}
	return native, nil
}

func (s *MapService) entry(id string) (*mapEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.maps[id]
	if !ok {
		return nil, fmt.Errorf("map %q: %w", id, ErrNotFound)
	}
	return e, nil
}
