package events

import (
	"github.com/rs/zerolog/log"
)

// Callback consumes one delivered event.
type Callback func(Event)

type scopedSub struct {
	key        string
	subscriber string
	fn         Callback
}

// Handler fans a single inbound event out to every interested subscriber,
// exactly once per matching subscription, synchronously, in registration
// order. Type-level handlers run first, then scoped handlers; both classes
// always observe a matching event regardless of the other class's presence.
//
// The handler is meant to be driven from a single goroutine (the transport
// read loop); registration and Notify are not safe for concurrent use.
// Re-entrant registration from inside a callback is fine: Notify iterates
// over a snapshot taken at entry.
type Handler struct {
	routing map[string]KeyFunc
	byTag   map[string][]Callback
	scoped  map[string][]scopedSub
}

func NewHandler(routing map[string]KeyFunc) *Handler {
	if routing == nil {
		routing = DefaultRouting()
	}
	return &Handler{
		routing: routing,
		byTag:   make(map[string][]Callback),
		scoped:  make(map[string][]scopedSub),
	}
}

// OnEvent registers a type-level handler for tag. Unknown tags are legal;
// the handler simply never fires until an event of that tag arrives.
func (h *Handler) OnEvent(tag string, fn Callback) {
	h.byTag[tag] = append(h.byTag[tag], fn)
}

// OnConcreteEvent registers an instance-scoped handler: fn fires only for
// events of tag whose declared routing key equals key. The subscriber id
// groups subscriptions of one logical owner so they can be dropped together.
// Re-registering with the same parameters adds an independent subscription.
func (h *Handler) OnConcreteEvent(tag, key, subscriber string, fn Callback) {
	if _, ok := h.routing[tag]; !ok {
		log.Warn().Str("module", "events").Str("tag", tag).Msg("scoped subscription on a tag with no declared routing key")
	}
	h.scoped[tag] = append(h.scoped[tag], scopedSub{key: key, subscriber: subscriber, fn: fn})
}

// Unregister drops every scoped subscription owned by subscriber. Entities
// call it when they are destroyed.
func (h *Handler) Unregister(subscriber string) {
	for tag, subs := range h.scoped {
		kept := subs[:0]
		for _, s := range subs {
			if s.subscriber != subscriber {
				kept = append(kept, s)
			}
		}
		h.scoped[tag] = kept
	}
}

// Notify dispatches e to all matching subscribers. When nothing matched it
// invokes onUnhandled if supplied; otherwise it synthesizes an error event
// and re-notifies it once, so error-tag subscribers observe delivery
// failures uniformly. The synthesized pass has no fallback of its own.
// Callback panics are not recovered; they propagate to the caller.
func (h *Handler) Notify(e Event, onUnhandled Callback) {
	if h.dispatch(e) > 0 {
		return
	}
	if onUnhandled != nil {
		onUnhandled(e)
		return
	}
	if e.Tag() == TagError {
		// Nobody listens for errors either; dropping is all that is left.
		log.Debug().Str("module", "events").Str("tag", e.Tag()).Msg("unhandled error event dropped")
		return
	}
	log.Debug().Str("module", "events").Str("tag", e.Tag()).Msg("no subscriber matched, surfacing as error event")
	h.dispatch(NewError("unhandled event", e))
}

func (h *Handler) dispatch(e Event) int {
	tag := e.Tag()

	// Stable snapshots: a handler may register further handlers mid-flight.
	typeLevel := append([]Callback(nil), h.byTag[tag]...)
	scoped := append([]scopedSub(nil), h.scoped[tag]...)

	matched := 0
	for _, fn := range typeLevel {
		fn(e)
		matched++
	}

	if len(scoped) == 0 {
		return matched
	}
	extract, ok := h.routing[tag]
	if !ok {
		return matched
	}
	key, ok := extract(e)
	if !ok {
		return matched
	}
	for _, s := range scoped {
		if s.key == key {
			s.fn(e)
			matched++
		}
	}
	return matched
}
