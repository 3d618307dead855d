// Package registry keeps the live overlay handles of one map session, keyed
// by overlay id, and applies add/change/remove batches to them.
//
// A Registry does no locking. Its owner must serialise every call, the way a
// platform UI thread would.
package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// Update is a (possibly partial) overlay state addressed by id.
type Update interface {
	OverlayID() overlay.ID
}

// Handle wraps one live native overlay.
type Handle[U Update] interface {
	// Apply stages the fields present in u.
	Apply(u U)

	// InvalidateCache forces staged fields to take visual effect.
	InvalidateCache()

	// Release detaches the overlay and frees its native resources.
	Release()
}

// Factory creates a native overlay for a new id.
type Factory[U Update] func(id overlay.ID) (Handle[U], error)

// Registry maps overlay ids to live handles.
type Registry[U Update] struct {
	kind    string
	factory Factory[U]
	handles map[overlay.ID]Handle[U]
	log     *slog.Logger
}

// New creates an empty registry. kind names the overlay kind in logs.
func New[U Update](kind string, factory Factory[U], log *slog.Logger) *Registry[U] {
	if log == nil {
		log = slog.Default()
	}
	return &Registry[U]{
		kind:    kind,
		factory: factory,
		handles: make(map[overlay.ID]Handle[U]),
		log:     log.With("overlay", kind),
	}
}

// Add creates a handle for every update and applies all of its fields.
// An id that is already registered has its handle released and replaced.
func (r *Registry[U]) Add(updates []U) error {
	for _, u := range updates {
		id := u.OverlayID()
		if old, ok := r.handles[id]; ok {
			r.log.Warn("replacing existing overlay", "id", id)
			old.Release()
			delete(r.handles, id)
		}

		h, err := r.factory(id)
		if err != nil {
			return fmt.Errorf("creating %s %q: %w", r.kind, id, err)
		}
		h.Apply(u)
		r.handles[id] = h
		r.log.Debug("overlay added", "id", id)
	}
	return nil
}

// Change applies the present fields of each update to its handle and then
// invalidates that handle's cache. Unknown ids are ignored.
func (r *Registry[U]) Change(updates []U) {
	for _, u := range updates {
		h, ok := r.handles[u.OverlayID()]
		if !ok {
			r.log.Debug("ignoring change for unknown overlay", "id", u.OverlayID())
			continue
		}
		h.Apply(u)
		h.InvalidateCache()
	}
}

// Remove releases and forgets the given ids. Unknown ids are ignored.
func (r *Registry[U]) Remove(ids []overlay.ID) {
	for _, id := range ids {
		h, ok := r.handles[id]
		if !ok {
			continue
		}
		h.Release()
		delete(r.handles, id)
		r.log.Debug("overlay removed", "id", id)
	}
}

// Teardown releases every handle and empties the registry.
func (r *Registry[U]) Teardown() {
	r.Remove(r.IDs())
}

// Get returns the handle for id.
func (r *Registry[U]) Get(id overlay.ID) (Handle[U], bool) {
	h, ok := r.handles[id]
	return h, ok
}

// Has reports whether id is registered.
func (r *Registry[U]) Has(id overlay.ID) bool {
	_, ok := r.handles[id]
	return ok
}

// Len returns the number of live handles.
func (r *Registry[U]) Len() int {
	return len(r.handles)
}

// IDs returns the registered ids, sorted.
func (r *Registry[U]) IDs() []overlay.ID {
	ids := make([]overlay.ID, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
