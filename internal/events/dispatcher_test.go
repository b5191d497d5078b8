package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_FireDeliversInRegistrationOrder(t *testing.T) {
	d := NewDispatcher()

	var order []string
	record := func(name string) Handler {
		return func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	d.Subscribe(ActorFirstUpdate, "first", record("first"))
	d.Subscribe(ActorFirstUpdate, "second", record("second"))
	d.Subscribe(ActorFirstUpdate, "third", record("third"))

	d.Fire(context.Background(), ActorFirstUpdate)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestDispatcher_SubscribeSameNameReplaces(t *testing.T) {
	d := NewDispatcher()

	calls := map[string]int{}
	d.Subscribe(GameStart, "loader", func(ctx context.Context) error {
		calls["old"]++
		return nil
	})
	d.Subscribe(GameStart, "loader", func(ctx context.Context) error {
		calls["new"]++
		return nil
	})

	d.Fire(context.Background(), GameStart)

	assert.Equal(t, 0, calls["old"], "replaced handler must not run")
	assert.Equal(t, 1, calls["new"])
}

func TestDispatcher_ReplaceKeepsPosition(t *testing.T) {
	d := NewDispatcher()

	var order []string
	d.Subscribe(ActorSpawn, "a", func(ctx context.Context) error {
		order = append(order, "a")
		return nil
	})
	d.Subscribe(ActorSpawn, "b", func(ctx context.Context) error {
		order = append(order, "b-old")
		return nil
	})
	d.Subscribe(ActorSpawn, "c", func(ctx context.Context) error {
		order = append(order, "c")
		return nil
	})
	// Re-registering "b" must not move it behind "c".
	d.Subscribe(ActorSpawn, "b", func(ctx context.Context) error {
		order = append(order, "b-new")
		return nil
	})

	d.Fire(context.Background(), ActorSpawn)

	assert.Equal(t, []string{"a", "b-new", "c"}, order)
}

func TestDispatcher_FiresAtMostOnce(t *testing.T) {
	d := NewDispatcher()

	count := 0
	d.Subscribe(ActorFirstUpdate, "counter", func(ctx context.Context) error {
		count++
		return nil
	})

	d.Fire(context.Background(), ActorFirstUpdate)
	d.Fire(context.Background(), ActorFirstUpdate)

	assert.Equal(t, 1, count)
	assert.True(t, d.Fired(ActorFirstUpdate))
	assert.False(t, d.Fired(GameStart))
}

func TestDispatcher_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewDispatcher()

	var reached bool
	d.Subscribe(GameStart, "broken", func(ctx context.Context) error {
		return errors.New("boom")
	})
	d.Subscribe(GameStart, "after", func(ctx context.Context) error {
		reached = true
		return nil
	})

	d.Fire(context.Background(), GameStart)

	assert.True(t, reached, "handler after a failing one must still run")
}

func TestDispatcher_SubscribeDuringFire(t *testing.T) {
	d := NewDispatcher()

	// A handler registering another handler must not deadlock; the late
	// registration lands after the snapshot and simply never fires for
	// an at-most-once event.
	late := 0
	d.Subscribe(GameStart, "registrar", func(ctx context.Context) error {
		d.Subscribe(GameStart, "late", func(ctx context.Context) error {
			late++
			return nil
		})
		return nil
	})

	d.Fire(context.Background(), GameStart)

	require.Equal(t, 0, late)
}

func TestDispatcher_NilHandlerIgnored(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(GameStart, "nil", nil)

	// Must not panic.
	d.Fire(context.Background(), GameStart)
}
