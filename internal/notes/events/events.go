package events

import (
	"sync"
	"sync/atomic"

	"github.com/blueplan/notes-go/internal/notes/notes"
)

// EventType 事件类型
type EventType string

const (
	Snapshot EventType = "snapshot"
	Created  EventType = "created"
	Deleted  EventType = "deleted"
)

// StreamEvent 推送给订阅者的事件
type StreamEvent struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// FromChange converts a committed store change into a stream event
func FromChange(c notes.Change) StreamEvent {
	t := Created
	if c.Kind == notes.Deleted {
		t = Deleted
	}
	return StreamEvent{Type: t, Data: c.Note}
}

// NewSnapshot wraps a full listing as the first event of a stream
func NewSnapshot(list []notes.Note) StreamEvent {
	return StreamEvent{Type: Snapshot, Data: list}
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// Subscription 订阅句柄
type Subscription struct {
	C    <-chan StreamEvent
	ch   chan StreamEvent
	hub  *Hub
	once sync.Once
}

// NewHub creates a hub whose subscribers buffer up to buffer events
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan StreamEvent, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		sub.once.Do(func() {})
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Close unregisters the subscription and closes its channel
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	// once 只在持有 hub.mu 时调用
	s.once.Do(func() {
		delete(s.hub.subs, s)
		close(s.ch)
	})
}

// Close closes every subscription; later subscribers get an already closed channel
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.once.Do(func() { close(sub.ch) })
		delete(h.subs, sub)
	}
}

// Publish delivers ev to every subscriber that has room
func (h *Hub) Publish(ev StreamEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Observe adapts the hub to a store observer
func (h *Hub) Observe(c notes.Change) {
	h.Publish(FromChange(c))
}

// Subscribers 当前订阅者数量
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped 因缓冲区满而丢弃的事件数
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
