package server

import (
	"encoding/json"
	"sync"

	"github.com/ayusman/cornerman/internal/event"
	"github.com/ayusman/cornerman/internal/round"
)

// subscriberBuffer is how many undelivered messages a slow client may queue
// before further messages to it are dropped.
const subscriberBuffer = 32

// Hub holds the latest annotated frame and fans events out to subscribers.
// The analysis loop publishes; HTTP handlers read.
type Hub struct {
	mu    sync.RWMutex
	frame []byte
	seq   uint64
	stats round.Statistics
	subs  map[chan []byte]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[chan []byte]struct{}),
	}
}

// PublishFrame replaces the latest JPEG frame.
func (h *Hub) PublishFrame(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.frame = jpeg
	h.seq++
}

// Frame returns the latest JPEG frame and its sequence number. The sequence
// is 0 until the first frame is published.
func (h *Hub) Frame() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.frame, h.seq
}

// PublishEvent records ev in the running statistics and sends it to every
// subscriber.
func (h *Hub) PublishEvent(ev event.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.stats.Record(ev)
	h.mu.Unlock()

	h.broadcast(msg)
}

// PublishStats replaces the running statistics, for example at the end of
// a round.
func (h *Hub) PublishStats(stats round.Statistics) {
	h.mu.Lock()
	h.stats = stats
	h.mu.Unlock()

	msg, err := json.Marshal(map[string]any{"stats": stats})
	if err != nil {
		return
	}
	h.broadcast(msg)
}

// Stats returns a copy of the running statistics.
func (h *Hub) Stats() round.Statistics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.stats
}

// Subscribe registers a new subscriber. Call the returned function to
// unsubscribe.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}
