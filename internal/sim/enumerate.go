package sim

import (
	"fmt"

	"github.com/udisondev/xrprefetch/internal/model"
)

// Matcher is a pure predicate over a live object.
type Matcher func(obj *model.SimObject) bool

// Enumerator finds live objects. Implementations must short-circuit: the
// scan stops at the first object the matcher accepts.
type Enumerator interface {
	FindFirst(match Matcher) (*model.SimObject, bool)
}

// Ranger is the preferred host capability: bulk iteration with early stop.
type Ranger interface {
	RangeObjects(fn func(obj *model.SimObject) bool)
}

// Prober is the fallback host capability: lookup by object ID. Enumeration
// probes the whole ID space [0, MaxObjectID], skipping absent slots.
type Prober interface {
	ObjectByID(id uint16) (*model.SimObject, bool)
}

// NewEnumerator probes the source's capabilities once and returns the
// matching strategy. Ranged iteration wins over ID probing; a source with
// neither capability is an error.
func NewEnumerator(src any) (Enumerator, error) {
	if r, ok := src.(Ranger); ok {
		return &rangeEnumerator{src: r}, nil
	}
	if p, ok := src.(Prober); ok {
		return &probeEnumerator{src: p}, nil
	}
	return nil, fmt.Errorf("simulation source %T supports neither ranged iteration nor id probing", src)
}

type rangeEnumerator struct {
	src Ranger
}

func (e *rangeEnumerator) FindFirst(match Matcher) (*model.SimObject, bool) {
	var found *model.SimObject
	e.src.RangeObjects(func(obj *model.SimObject) bool {
		if match(obj) {
			found = obj
			return false
		}
		return true
	})
	return found, found != nil
}

type probeEnumerator struct {
	src Prober
}

func (e *probeEnumerator) FindFirst(match Matcher) (*model.SimObject, bool) {
	for id := 0; id <= int(model.MaxObjectID); id++ {
		obj, ok := e.src.ObjectByID(uint16(id))
		if !ok {
			continue
		}
		if match(obj) {
			return obj, true
		}
	}
	return nil, false
}
