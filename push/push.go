// Package push delivers server-pushed events to subscribers.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EventNewMessage is emitted when a chat message is delivered to the user.
const EventNewMessage = "newMessage"

var ErrClosed = errors.New("push channel closed")

type Handler func(data json.RawMessage)

// Channel is a source of named server events.
type Channel interface {
	Subscribe(ctx context.Context, event string, h Handler) (Subscription, error)
}

// Subscription stops delivery to its handler. Close is idempotent.
type Subscription interface {
	Close() error
}

// Frame is the wire shape of one event.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub fans events out to in-process subscribers. Handlers run on the
// publisher's goroutine, in subscription order.
type Hub struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler
	order    map[string][]string
	closed   bool
}

func NewHub() *Hub {
	return &Hub{
		handlers: make(map[string]map[string]Handler),
		order:    make(map[string][]string),
	}
}

func (h *Hub) Subscribe(_ context.Context, event string, fn Handler) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	id := uuid.NewString()
	if h.handlers[event] == nil {
		h.handlers[event] = make(map[string]Handler)
	}
	h.handlers[event][id] = fn
	h.order[event] = append(h.order[event], id)
	return &hubSubscription{hub: h, event: event, id: id}, nil
}

// Publish encodes payload and delivers it to every handler of event.
func (h *Hub) Publish(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	h.Dispatch(Frame{Event: event, Data: data})
	return nil
}

// Dispatch delivers an already encoded frame.
func (h *Hub) Dispatch(f Frame) {
	h.mu.RLock()
	fns := make([]Handler, 0, len(h.order[f.Event]))
	for _, id := range h.order[f.Event] {
		fns = append(fns, h.handlers[f.Event][id])
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(f.Data)
	}
}

// Subscribers reports how many handlers are registered for event.
func (h *Hub) Subscribers(event string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers[event])
}

// Close drops every subscription and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.handlers = make(map[string]map[string]Handler)
	h.order = make(map[string][]string)
	return nil
}

func (h *Hub) unsubscribe(event, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handlers[event][id]; !ok {
		return
	}
	delete(h.handlers[event], id)
	ids := h.order[event]
	for i, cur := range ids {
		if cur == id {
			h.order[event] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(h.handlers[event]) == 0 {
		delete(h.handlers, event)
		delete(h.order, event)
	}
}

type hubSubscription struct {
	hub   *Hub
	event string
	id    string
	once  sync.Once
}

func (s *hubSubscription) Close() error {
	s.once.Do(func() { s.hub.unsubscribe(s.event, s.id) })
	return nil
}
