package messaging

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultBuffer is the per-subscriber queue length used by NewBus(0).
const DefaultBuffer = 16

// Bus fans published messages out to subscribers. Publishing never blocks:
// a subscriber whose queue is full misses the message.
type Bus struct {
	mu     sync.RWMutex
	buffer int
	next   int
	subs   map[int]*subscriber
	closed bool
}

type subscriber struct {
	ch    chan Message
	types map[Type]bool
}

// NewBus returns a bus whose subscribers each queue up to buffer messages.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{buffer: buffer, subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel receiving messages of the given types, or of
// every type when none are given, and a function that unsubscribes and
// closes the channel.
func (b *Bus) Subscribe(types ...Type) (<-chan Message, func()) {
	sub := &subscriber{ch: make(chan Message, b.buffer)}
	if len(types) > 0 {
		sub.types = make(map[Type]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers msg to every interested subscriber and returns how many
// received it.
func (b *Bus) Publish(msg Message) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[msg.Type] {
			continue
		}
		select {
		case sub.ch <- msg:
			delivered++
		default:
			log.Warn().Str("type", string(msg.Type)).Msg("subscriber queue full, dropping message")
		}
	}
	return delivered
}

// Close closes every subscriber channel. Later subscriptions get a closed
// channel and later publishes reach nobody.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
