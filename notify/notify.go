// Package notify implements the change-notification channel: a minimal
// observer list that delivers each published event synchronously to every
// subscriber, in subscription order, with per-listener fault isolation.
// It is the sole contract between the store and external collaborators
// such as UI bindings and persistence.
package notify

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/loomworks/loom"
)

// Listener receives one change notification. Listeners must not mutate the
// event's state map.
type Listener func(loom.Event)

type subscription struct {
	id uuid.UUID
	fn Listener
}

// Hub is an ordered publish/subscribe surface. Like the store that owns it,
// a Hub belongs to a single logical thread of control: Publish, Subscribe,
// and the cancel funcs are not safe for concurrent use from multiple
// goroutines. Listeners may unsubscribe themselves (or others) while a
// publish is in flight.
type Hub struct {
	logger *zap.Logger
	subs   []subscription
}

// New creates a Hub. A nil logger is replaced with a nop logger.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger}
}

// Subscribe appends fn to the observer list and returns a cancel func that
// removes it. Cancelling twice is a no-op. A cancel issued while a publish
// is in flight takes effect from the next publish.
func (h *Hub) Subscribe(fn Listener) func() {
	id := uuid.New()
	h.subs = append(h.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range h.subs {
			if sub.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	return len(h.subs)
}

// Publish delivers the event to every current subscriber in subscription
// order. One listener panicking must not prevent delivery to the rest and
// must not abort the dispatch that produced the event, so panics are
// recovered and logged here.
func (h *Hub) Publish(event loom.Event) {
	subs := h.subs
	for _, sub := range subs {
		h.deliver(sub, event)
	}
}

func (h *Hub) deliver(sub subscription, event loom.Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("listener panicked during change notification",
				zap.String("subscription", sub.id.String()),
				zap.String("actionType", event.Action.Type),
				zap.Any("panic", r),
			)
		}
	}()
	sub.fn(event)
}
