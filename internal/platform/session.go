package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joeblew999/plat-heatmap/internal/channel"
	"github.com/joeblew999/plat-heatmap/internal/codec"
	"github.com/joeblew999/plat-heatmap/internal/mapview"
	"github.com/joeblew999/plat-heatmap/internal/overlay"
	"github.com/joeblew999/plat-heatmap/internal/registry"
)

// ErrSessionClosed indicates a call on a torn down session.
var ErrSessionClosed = errors.New("map session closed")

// Event actions.
const (
	ActionAdded   = "added"
	ActionChanged = "changed"
	ActionRemoved = "removed"
)

// Event reports one overlay mutation applied by a session.
type Event struct {
	Session string
	Kind    string // e.g. "heatmaps"
	Action  string
	ID      overlay.ID
}

// Session is one map view and the overlay registries drawing on it. All
// registry access goes through the session lock, which stands in for the
// platform UI thread.
type Session struct {
	id      string
	log     *slog.Logger
	view    *mapview.MapView
	onEvent func(Event)

	mu       sync.Mutex
	heatmaps *registry.Registry[overlay.HeatmapUpdate]
	closed   bool
}

// SessionOption configures a session.
type SessionOption func(*Session)

// WithEvents registers a callback for applied mutations. It runs with the
// session lock held and must not call back into the session.
func WithEvents(fn func(Event)) SessionOption {
	return func(s *Session) { s.onEvent = fn }
}

// NewSession creates a session with its own map view.
func NewSession(id string, log *slog.Logger, opts ...SessionOption) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		id:   id,
		log:  log.With("session", id),
		view: mapview.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.heatmaps = registry.New[overlay.HeatmapUpdate]("heatmap", s.newHeatmap, s.log)
	return s
}

func (s *Session) newHeatmap(id overlay.ID) (registry.Handle[overlay.HeatmapUpdate], error) {
	native, err := newTileHeatmap(s.view)
	if err != nil {
		return nil, err
	}
	return NewHeatmapController(id, native, s.log), nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// HandleMethodCall decodes a heatmap call and applies it. A batch that fails
// to decode is rejected whole.
func (s *Session) HandleMethodCall(_ context.Context, call channel.MethodCall) (any, error) {
	switch call.Method {
	case channel.MethodHeatmapsAdd:
		updates, err := codec.DecodeHeatmapUpdates(call.Arguments)
		if err != nil {
			return nil, err
		}
		return nil, s.withLock(func() error {
			if err := s.heatmaps.Add(updates); err != nil {
				return err
			}
			for _, u := range updates {
				s.emit(ActionAdded, u.ID)
			}
			return nil
		})

	case channel.MethodHeatmapsUpdate:
		updates, err := codec.DecodeHeatmapUpdates(call.Arguments)
		if err != nil {
			return nil, err
		}
		return nil, s.withLock(func() error {
			s.heatmaps.Change(updates)
			for _, u := range updates {
				if s.heatmaps.Has(u.ID) {
					s.emit(ActionChanged, u.ID)
				}
			}
			return nil
		})

	case channel.MethodHeatmapsRemove:
		ids, err := codec.DecodeIDs(call.Arguments)
		if err != nil {
			return nil, err
		}
		return nil, s.withLock(func() error {
			var gone []overlay.ID
			for _, id := range ids {
				if s.heatmaps.Has(id) {
					gone = append(gone, id)
				}
			}
			s.heatmaps.Remove(ids)
			for _, id := range gone {
				s.emit(ActionRemoved, id)
			}
			return nil
		})
	}
	return nil, fmt.Errorf("%w: %s", channel.ErrNotImplemented, call.Method)
}

func (s *Session) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return fn()
}

func (s *Session) emit(action string, id overlay.ID) {
	if s.onEvent != nil {
		s.onEvent(Event{Session: s.id, Kind: "heatmaps", Action: action, ID: id})
	}
}

// HeatmapIDs returns the live heatmap ids, sorted.
func (s *Session) HeatmapIDs() []overlay.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heatmaps.IDs()
}

// Heatmap returns the native heatmap registered under id.
func (s *Session) Heatmap(id overlay.ID) (NativeHeatmap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.heatmaps.Get(id)
	if !ok {
		return nil, false
	}
	return h.(*HeatmapController).Native(), true
}

// Overlays returns the number of overlays attached to the map view.
func (s *Session) Overlays() int {
	return s.view.Len()
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Teardown releases every overlay and closes the map view. It is safe to
// call more than once.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.heatmaps.Teardown()
	s.view.Close()
	s.closed = true
	s.log.Info("map session torn down")
}
