package notify

import (
	"context"
	"sync"
)

// MemHub dispatches change signals between subscribers in the same process.
// It backs demo mode and tests.
type MemHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func()
}

// NewMemHub creates an empty in-process hub.
func NewMemHub() *MemHub {
	return &MemHub{subs: make(map[string]map[int]func())}
}

func (h *MemHub) Subscribe(code string, onChange func()) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[code] == nil {
		h.subs[code] = make(map[int]func())
	}
	id := h.nextID
	h.nextID++
	h.subs[code][id] = onChange

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[code], id)
		if len(h.subs[code]) == 0 {
			delete(h.subs, code)
		}
	}, nil
}

// Publish fires every subscriber for code on its own goroutine so a
// publisher is never blocked by a subscriber's refresh.
func (h *MemHub) Publish(_ context.Context, code string) error {
	h.mu.Lock()
	callbacks := make([]func(), 0, len(h.subs[code]))
	for _, cb := range h.subs[code] {
		callbacks = append(callbacks, cb)
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		go cb()
	}
	return nil
}
