// Package mapsync is the declarative side of a map: it remembers the last
// overlay state sent over the channel and turns each new declaration into
// add, update and remove calls.
package mapsync

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/joeblew999/plat-heatmap/internal/channel"
	"github.com/joeblew999/plat-heatmap/internal/codec"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
	"github.com/joeblew999/plat-heatmap/internal/reconcile"
)

// Heatmaps keeps one map's heatmap declaration in step with the platform.
type Heatmaps struct {
	ch  channel.Invoker
	log *slog.Logger

	mu      sync.Mutex
	current map[overlay.ID]overlay.Heatmap
}

// NewHeatmaps starts from an empty declaration.
func NewHeatmaps(ch channel.Invoker, log *slog.Logger) *Heatmaps {
	if log == nil {
		log = slog.Default()
	}
	return &Heatmaps{ch: ch, log: log, current: make(map[overlay.ID]overlay.Heatmap)}
}

// Update sends whatever it takes to move the platform from the previous
// declaration to next, and returns what was sent.
//
// Ids in next must be unique. Calls go out as add, then update, then remove,
// each only when non-empty. The remembered state advances per successful
// call, so after a failure it reflects exactly what the platform accepted.
func (s *Heatmaps) Update(ctx context.Context, next []overlay.Heatmap) (reconcile.Changes[overlay.Heatmap], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync(ctx, next)
}

// Merge adds hs to the declaration, replacing heatmaps with the same id, and
// syncs the result. The merge reads and writes the declaration under one
// lock, so concurrent merges never drop each other's heatmaps.
func (s *Heatmaps) Merge(ctx context.Context, hs []overlay.Heatmap) (reconcile.Changes[overlay.Heatmap], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := maps.Clone(s.current)
	for _, h := range hs {
		merged[h.OverlayID()] = h
	}
	return s.sync(ctx, slices.Collect(maps.Values(merged)))
}

// sync must be called with s.mu held.
func (s *Heatmaps) sync(ctx context.Context, next []overlay.Heatmap) (reconcile.Changes[overlay.Heatmap], error) {
	prev := s.snapshot()
	changes := reconcile.Diff(prev, next)

	if len(changes.Add) > 0 {
		if _, err := s.ch.InvokeMethod(ctx, channel.MethodHeatmapsAdd, codec.EncodeHeatmaps(changes.Add)); err != nil {
			return changes, fmt.Errorf("adding heatmaps: %w", err)
		}
		for _, h := range changes.Add {
			s.current[h.OverlayID()] = h
		}
	}

	if len(changes.Change) > 0 {
		args := make([]any, len(changes.Change))
		for i, h := range changes.Change {
			args[i] = codec.EncodeHeatmapChange(s.current[h.OverlayID()], h)
		}
		if _, err := s.ch.InvokeMethod(ctx, channel.MethodHeatmapsUpdate, args); err != nil {
			return changes, fmt.Errorf("updating heatmaps: %w", err)
		}
		for _, h := range changes.Change {
			s.current[h.OverlayID()] = h
		}
	}

	if len(changes.Remove) > 0 {
		if _, err := s.ch.InvokeMethod(ctx, channel.MethodHeatmapsRemove, codec.EncodeIDs(changes.Remove)); err != nil {
			return changes, fmt.Errorf("removing heatmaps: %w", err)
		}
		for _, id := range changes.Remove {
			delete(s.current, id)
		}
	}

	if !changes.Empty() {
		s.log.Debug("heatmaps synced",
			"added", len(changes.Add), "changed", len(changes.Change), "removed", len(changes.Remove))
	}
	return changes, nil
}

// Current returns the last declaration the platform accepted, sorted by id.
func (s *Heatmaps) Current() []overlay.Heatmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns one heatmap of the accepted declaration.
func (s *Heatmaps) Get(id overlay.ID) (overlay.Heatmap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.current[id]
	return h, ok
}

func (s *Heatmaps) snapshot() []overlay.Heatmap {
	out := make([]overlay.Heatmap, 0, len(s.current))
	for _, h := range s.current {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b overlay.Heatmap) int {
		switch {
		case a.OverlayID() < b.OverlayID():
			return -1
		case a.OverlayID() > b.OverlayID():
			return 1
		}
		return 0
	})
	return out
}
