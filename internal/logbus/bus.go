// Package logbus is a small in-process event bus. The batch processor
// publishes order lifecycle events on it so the surrounding system
// (reporting, messaging) can observe processing without being wired into
// the browser path.
package logbus

import (
	"sync"
	"time"
)

const (
	EventLog   = "log"
	EventOrder = "order"
	EventBatch = "batch"
)

type Event struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
	Data any    `json:"data"`
}

type LogData struct {
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

// OrderUpdate is published whenever an order changes status.
type OrderUpdate struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Note    string `json:"note,omitempty"`
}

// BatchFinished is published once per completed sweep of the backlog.
type BatchFinished struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Bus keeps a bounded replay buffer and fans events out to subscribers.
// Slow subscribers drop events rather than block the publisher.
type Bus struct {
	mu     sync.RWMutex
	buf    []Event
	cap    int
	subs   map[chan Event]struct{}
	closed bool
}

func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 200
	}
	return &Bus{
		cap:  capacity,
		buf:  make([]Event, 0, capacity),
		subs: make(map[chan Event]struct{}),
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.buf = nil
}

func (b *Bus) Snapshot() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.buf))
	copy(out, b.buf)
	return out
}

func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if b.subs != nil {
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) Publish(typ string, data any) {
	evt := Event{
		Type: typ,
		Time: time.Now().UnixMilli(),
		Data: data,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if len(b.buf) < b.cap {
		b.buf = append(b.buf, evt)
	} else if b.cap > 0 {
		copy(b.buf, b.buf[1:])
		b.buf[b.cap-1] = evt
	}
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *Bus) Log(level, message string, fields map[string]any) {
	b.Publish(EventLog, LogData{Level: level, Msg: message, Fields: fields})
}

func (b *Bus) OrderUpdated(u OrderUpdate) {
	b.Publish(EventOrder, u)
}

func (b *Bus) BatchDone(r BatchFinished) {
	b.Publish(EventBatch, r)
}
