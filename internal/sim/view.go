package sim

import (
	"fmt"

	"github.com/udisondev/xrprefetch/internal/model"
)

// ActorSource exposes the player's actor object.
type ActorSource interface {
	Actor() (*model.SimObject, bool)
}

// View is the read-only simulation surface handed to the prefetch
// coordinator: one enumeration strategy (picked once at construction) plus
// the actor accessor.
type View struct {
	actors ActorSource
	enum   Enumerator
}

// NewView wraps a simulation source. The enumeration strategy is selected
// here, by capability probe, and never re-checked afterwards.
func NewView(src any) (*View, error) {
	enum, err := NewEnumerator(src)
	if err != nil {
		return nil, err
	}
	actors, ok := src.(ActorSource)
	if !ok {
		return nil, fmt.Errorf("simulation source %T does not expose the actor", src)
	}
	return &View{actors: actors, enum: enum}, nil
}

// FindFirst returns the first live object the matcher accepts.
func (v *View) FindFirst(match Matcher) (*model.SimObject, bool) {
	return v.enum.FindFirst(match)
}

// Actor returns the player's actor object.
func (v *View) Actor() (*model.SimObject, bool) {
	return v.actors.Actor()
}
