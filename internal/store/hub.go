package store

import "sync"

// hub fans collection-change events out to registered listeners.
// Listeners receive the name of the changed collection and re-query a
// fresh snapshot themselves, so slow consumers never hold stale data.
type hub struct {
	mu        sync.Mutex
	nextID    int64
	listeners map[int64]func(collection string)
}

func newHub() *hub {
	return &hub{listeners: make(map[int64]func(string))}
}

func (h *hub) add(fn func(collection string)) Unsubscribe {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

func (h *hub) broadcast(collection string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(collection)
	}
}
