// Package sim holds the host-side simulation store the prefetch predicates
// query: live objects keyed by 16-bit object ID, the actor reference, and
// the enumeration strategies over them.
package sim

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/xrprefetch/internal/model"
)

// World is the live-object store for one game session.
// Explicit instances only; construct with NewWorld.
type World struct {
	objects sync.Map     // map[uint16]*model.SimObject — objectID → object
	count   atomic.Int32 // cached count of objects (O(1) access)
	actorID atomic.Uint32
}

// NewWorld creates an empty world with no actor set.
func NewWorld() *World {
	w := &World{}
	w.actorID.Store(uint32(model.InvalidObjectID))
	return w
}

// Add registers an object. Rejects nil objects, IDs outside the valid range
// and IDs already present.
func (w *World) Add(obj *model.SimObject) error {
	if obj == nil {
		return fmt.Errorf("adding nil object")
	}
	if obj.ID() > model.MaxObjectID {
		return fmt.Errorf("object id %d above maximum %d", obj.ID(), model.MaxObjectID)
	}
	if _, loaded := w.objects.LoadOrStore(obj.ID(), obj); loaded {
		return fmt.Errorf("object id %d already in world", obj.ID())
	}
	w.count.Add(1)
	return nil
}

// Remove drops an object from the world. Removing an absent ID is a no-op.
func (w *World) Remove(id uint16) {
	if _, ok := w.objects.LoadAndDelete(id); ok {
		w.count.Add(-1)
	}
}

// ObjectByID returns the object with the given ID.
func (w *World) ObjectByID(id uint16) (*model.SimObject, bool) {
	value, ok := w.objects.Load(id)
	if !ok {
		return nil, false
	}
	return value.(*model.SimObject), true
}

// RangeObjects calls fn for every live object until fn returns false.
// Iteration order is unspecified.
func (w *World) RangeObjects(fn func(obj *model.SimObject) bool) {
	w.objects.Range(func(key, value any) bool {
		return fn(value.(*model.SimObject))
	})
}

// SetActorID marks which object is the player's actor.
func (w *World) SetActorID(id uint16) {
	w.actorID.Store(uint32(id))
}

// Actor returns the actor object, if an actor ID has been set and the
// object is present in the world.
func (w *World) Actor() (*model.SimObject, bool) {
	id := w.actorID.Load()
	if id == uint32(model.InvalidObjectID) {
		return nil, false
	}
	return w.ObjectByID(uint16(id))
}

// ObjectCount returns the number of live objects (O(1) cached count).
func (w *World) ObjectCount() int {
	return int(w.count.Load())
}

// Seed adds a batch of objects, logging and skipping rejects.
// Returns the number of objects actually added.
func (w *World) Seed(objects []*model.SimObject) int {
	added := 0
	for _, obj := range objects {
		if err := w.Add(obj); err != nil {
			slog.Warn("skipping snapshot object", "error", err)
			continue
		}
		added++
	}
	slog.Info("world seeded", "objects", added, "rejected", len(objects)-added)
	return added
}
