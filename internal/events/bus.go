// Package events provides an in-process publish/subscribe bus for
// evaluation lifecycle events, plus an optional durable journal.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carelink-health/assesscore/internal/model"
)

const defaultBufferSize = 64

// Bus fans events out to subscribers over buffered channels. Publish never
// blocks the caller: when a subscriber's buffer is full the event is dropped
// for that subscriber and counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan model.Event
	nextID  int
	buffer  int
	closed  bool
	dropped atomic.Int64
}

// NewBus returns a bus with the given per-subscriber buffer size.
// Sizes <= 0 use the default.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	return &Bus{
		subs:   make(map[int]chan model.Event),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unsubscribes and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan model.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan model.Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish stamps the event with an ID and timestamp when missing, then
// delivers it to every subscriber whose buffer has room.
func (b *Bus) Publish(evt model.Event) {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
			zap.L().Debug("event dropped, subscriber buffer full",
				zap.String("type", evt.Type),
				zap.String("event_id", evt.ID.String()))
		}
	}
}

// Dropped reports how many events were discarded due to full buffers.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close unsubscribes everyone and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
