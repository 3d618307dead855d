// Package reconcile computes the add/change/remove sets between two
// declarative overlay states.
package reconcile

import (
	"cmp"
	"slices"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// Descriptor is an overlay value with identity and full-value equality.
type Descriptor[D any] interface {
	OverlayID() overlay.ID
	Equal(D) bool
}

// Changes partitions the ids of two states. An id appears in at most one of
// the three lists. Every list is sorted by id.
type Changes[D Descriptor[D]] struct {
	// Add holds descriptors whose id is new.
	Add []D

	// Change holds descriptors whose id existed with a different value.
	Change []D

	// Remove holds ids that are gone.
	Remove []overlay.ID
}

// Empty reports whether there is nothing to do.
func (c Changes[D]) Empty() bool {
	return len(c.Add) == 0 && len(c.Change) == 0 && len(c.Remove) == 0
}

// Diff compares previous with next by id.
//
// Ids must be unique within each slice; that is the caller's responsibility.
// If next repeats an id, the last occurrence wins.
func Diff[D Descriptor[D]](previous, next []D) Changes[D] {
	prev := Index(previous)
	nxt := Index(next)

	c := Changes[D]{}
	for id, d := range nxt {
		old, ok := prev[id]
		switch {
		case !ok:
			c.Add = append(c.Add, d)
		case !old.Equal(d):
			c.Change = append(c.Change, d)
		}
	}
	for id := range prev {
		if _, ok := nxt[id]; !ok {
			c.Remove = append(c.Remove, id)
		}
	}

	byID := func(a, b D) int { return cmp.Compare(a.OverlayID(), b.OverlayID()) }
	slices.SortFunc(c.Add, byID)
	slices.SortFunc(c.Change, byID)
	slices.Sort(c.Remove)
	return c
}

// Index maps descriptors by id. Later duplicates replace earlier ones.
func Index[D Descriptor[D]](ds []D) map[overlay.ID]D {
	m := make(map[overlay.ID]D, len(ds))
	for _, d := range ds {
		m[d.OverlayID()] = d
	}
	return m
}

// Duplicates returns the ids that occur more than once, sorted.
func Duplicates[D Descriptor[D]](ds []D) []overlay.ID {
	seen := make(map[overlay.ID]int, len(ds))
	var dups []overlay.ID
	for _, d := range ds {
		id := d.OverlayID()
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	slices.Sort(dups)
	return dups
}
