package service

import (
	"sync"

	"insightboard/internal/services/api/dashboard/domain"

	"github.com/google/uuid"
)

// hub fans session events out to watchers
// a watcher whose buffer is full misses events rather than stalling the session
type hub struct {
	mu     sync.Mutex
	subs   map[string]chan domain.Event
	buf    int
	closed bool
}

func newHub(buf int) *hub {
	if buf <= 0 {
		buf = 64
	}
	return &hub{subs: map[string]chan domain.Event{}, buf: buf}
}

// add registers a watcher and queues the events of seed for it before any live event
func (h *hub) add(seed func() []domain.Event) (string, chan domain.Event) {
	id := uuid.NewString()
	ch := make(chan domain.Event, h.buf)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	for _, ev := range seed() {
		select {
		case ch <- ev:
		default:
		}
	}
	h.subs[id] = ch
	watchersGauge.Inc()
	return id, ch
}

// remove unregisters and closes a watcher; safe to call twice
func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
		watchersGauge.Dec()
	}
}

func (h *hub) publish(ev domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			droppedEvents.Inc()
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// close drops every watcher; later adds get a closed channel
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
		watchersGauge.Dec()
	}
}
