package event

import (
	"slices"
	"sync"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// subscription is one Subscribe call. An empty types set matches every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// subscriptions keeps handlers in the order they subscribed
type subscriptions struct {
	mu   sync.RWMutex
	subs []subscription
}

func (r *subscriptions) add(handler shared.EventHandler, eventTypes []string) {
	types := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, subscription{handler: handler, types: types})
}

func (r *subscriptions) remove(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = slices.DeleteFunc(r.subs, func(s subscription) bool { return s.handler == handler })
}

// forType returns a snapshot, so handlers may subscribe or unsubscribe while
// an event is being delivered
func (r *subscriptions) forType(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []shared.EventHandler
	for _, s := range r.subs {
		if s.matches(eventType) {
			out = append(out, s.handler)
		}
	}
	return out
}

func (r *subscriptions) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
