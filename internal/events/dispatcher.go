// Package events implements the session event dispatcher.
//
// Game sessions raise a small fixed set of lifecycle events. Consumers
// subscribe handlers under a stable name; re-registering the same name
// replaces the previous handler instead of stacking a duplicate, so a
// reloaded script does not run twice. Each event fires at most once per
// dispatcher lifetime.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event именует событие жизненного цикла сессии.
type Event string

const (
	// GameStart fires when the session is created, before the world is populated.
	GameStart Event = "game_start"

	// ActorSpawn fires once the player object exists in the simulation.
	ActorSpawn Event = "actor_spawn"

	// ActorFirstUpdate fires on the first engine update of the player object.
	// The world is fully populated by this point.
	ActorFirstUpdate Event = "actor_first_update"
)

// Handler runs when its event fires. Errors are logged by the dispatcher
// and never stop delivery to later handlers.
type Handler func(ctx context.Context) error

type subscription struct {
	name    string
	handler Handler
}

// Dispatcher delivers session lifecycle events to named subscribers.
// Safe for concurrent use.
type Dispatcher struct {
	mu    sync.Mutex
	subs  map[Event][]subscription
	fired map[Event]bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subs:  make(map[Event][]subscription),
		fired: make(map[Event]bool),
	}
}

// Subscribe registers handler under name for event. Subscribing the same
// (event, name) pair again replaces the earlier handler in place, keeping
// its position in the delivery order.
func (d *Dispatcher) Subscribe(event Event, name string, handler Handler) {
	if handler == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, sub := range d.subs[event] {
		if sub.name == name {
			d.subs[event][i].handler = handler
			slog.Debug("event handler replaced", "event", string(event), "name", name)
			return
		}
	}
	d.subs[event] = append(d.subs[event], subscription{name: name, handler: handler})
}

// Fire delivers event to every subscriber in registration order. Handler
// errors are logged and do not stop delivery. Firing an event a second
// time is a no-op with a warning.
func (d *Dispatcher) Fire(ctx context.Context, event Event) {
	d.mu.Lock()
	if d.fired[event] {
		d.mu.Unlock()
		slog.Warn("event already fired", "event", string(event))
		return
	}
	d.fired[event] = true
	subs := make([]subscription, len(d.subs[event]))
	copy(subs, d.subs[event])
	d.mu.Unlock()

	for _, sub := range subs {
		if err := sub.handler(ctx); err != nil {
			slog.Error("event handler failed",
				"event", string(event),
				"name", sub.name,
				"error", err)
		}
	}
}

// Fired reports whether event has already been delivered.
func (d *Dispatcher) Fired(event Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired[event]
}
