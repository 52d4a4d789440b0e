// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package event

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/warcade/warcade/internal/observability"
)

// DefaultBufferSize is the per-subscription channel capacity.
const DefaultBufferSize = 128

// Bus is a many-to-many broadcast bus. Delivery is fire-and-forget: every
// current subscriber of a topic receives every event published to it from
// the moment of subscription onward, with no persistence and no replay.
//
// Slow consumers degrade gracefully rather than applying backpressure: a
// full subscriber buffer drops that subscriber's oldest undelivered
// events and the bus continues. Within a single publisher, events on one
// topic reach a given subscriber in publish order; there is no ordering
// across topics or publishers.
type Bus struct {
	mu       sync.RWMutex
	topics   map[string][]*Subscription
	patterns []*Subscription
	buffer   int
}

// BusOption configures the Bus.
type BusOption func(*Bus)

// WithBufferSize sets the per-subscription buffer capacity.
func WithBufferSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// NewBus creates a bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		topics: make(map[string][]*Subscription),
		buffer: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is one consumer endpoint. Closing it is the only
// cancellation mechanism: further events are ignored and the channel is
// closed.
type Subscription struct {
	topic   string
	pattern glob.Glob
	ch      chan Event
	bus     *Bus

	mu     sync.Mutex
	closed bool
}

// Events returns the receive endpoint.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Topic returns the subscribed topic or pattern string.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close releases the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.bus.remove(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// deliver enqueues ev, evicting the oldest buffered events when full.
// Returns the number of events dropped.
func (s *Subscription) deliver(ev Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	dropped := 0
	for {
		select {
		case s.ch <- ev:
			return dropped
		default:
		}
		// Buffer full: evict the oldest undelivered event and retry.
		select {
		case <-s.ch:
			dropped++
		default:
		}
	}
}

// Subscribe registers a consumer for exactly one topic.
func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan Event, b.buffer),
		bus:   b,
	}
	b.mu.Lock()
	b.topics[topic] = append(b.topics[topic], sub)
	b.mu.Unlock()
	return sub
}

// SubscribePattern registers a consumer for every topic matching a
// '.'-separated glob pattern: '*' matches a single segment, '**' crosses
// segment boundaries.
func (b *Bus) SubscribePattern(pattern string) (*Subscription, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, oops.Code("PATTERN_INVALID").
			With("pattern", pattern).
			Wrap(err)
	}
	sub := &Subscription{
		topic:   pattern,
		pattern: g,
		ch:      make(chan Event, b.buffer),
		bus:     b,
	}
	b.mu.Lock()
	b.patterns = append(b.patterns, sub)
	b.mu.Unlock()
	return sub, nil
}

// Emit publishes a payload to every current subscriber of topic. It
// never fails: subscriber-side problems are the subscriber's alone, and
// publishing with zero subscribers is a silent no-op.
func (b *Bus) Emit(topic string, payload json.RawMessage) {
	b.EmitFrom("", topic, payload)
}

// EmitFrom is Emit with an explicit source plugin id.
func (b *Bus) EmitFrom(source, topic string, payload json.RawMessage) {
	ev := Event{
		ID:        NewID(),
		Topic:     topic,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.topics[topic])+len(b.patterns))
	subs = append(subs, b.topics[topic]...)
	for _, sub := range b.patterns {
		if sub.pattern.Match(topic) {
			subs = append(subs, sub)
		}
	}
	b.mu.RUnlock()

	observability.RecordEventPublished(topic)

	for _, sub := range subs {
		if dropped := sub.deliver(ev); dropped > 0 {
			for range dropped {
				observability.RecordEventDropped(topic)
			}
			slog.Warn("events dropped: subscriber buffer full",
				"topic", topic,
				"subscription", sub.topic,
				"dropped", dropped,
				"event_id", ev.ID.String())
		}
	}
}

// Subscribers returns the current subscriber count for a topic,
// including matching pattern subscriptions.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.topics[topic])
	for _, sub := range b.patterns {
		if sub.pattern.Match(topic) {
			n++
		}
	}
	return n
}

// remove detaches a subscription from the bus.
func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.pattern != nil {
		for i, sub := range b.patterns {
			if sub == s {
				b.patterns = append(b.patterns[:i], b.patterns[i+1:]...)
				return
			}
		}
		return
	}

	subs := b.topics[s.topic]
	for i, sub := range subs {
		if sub == s {
			b.topics[s.topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
