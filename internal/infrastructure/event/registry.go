package event

import (
	"slices"
	"sync"

	"github.com/stockwave/harmony/internal/domain/shared"
)

// subscription binds a handler to a set of event types. A nil set matches
// every type.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// subscriptions is the bus's handler table, kept in subscribe order
type subscriptions struct {
	mu   sync.RWMutex
	list []subscription
}

func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	sub := subscription{handler: handler}
	if len(eventTypes) > 0 {
		sub.types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			sub.types[t] = struct{}{}
		}
	}

	s.mu.Lock()
	s.list = append(s.list, sub)
	s.mu.Unlock()
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	s.list = slices.DeleteFunc(s.list, func(sub subscription) bool { return sub.handler == handler })
	s.mu.Unlock()
}

// matching returns the handlers for eventType in subscribe order
func (s *subscriptions) matching(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []shared.EventHandler
	for _, sub := range s.list {
		if sub.matches(eventType) {
			out = append(out, sub.handler)
		}
	}
	return out
}

func (s *subscriptions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}
