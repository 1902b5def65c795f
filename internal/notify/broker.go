package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Broker is an in-process Publisher/Subscriber for single-node deployments
// and tests. Handlers run synchronously in publish order.
type Broker struct {
	mu      sync.RWMutex
	nextID  int
	subs    map[uuid.UUID]map[int]func(Event)
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]map[int]func(Event))}
}

// PublishJobEvent delivers the event to every subscriber of the transcript.
func (b *Broker) PublishJobEvent(_ context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.subs[event.TranscriptID]))
	for _, h := range b.subs[event.TranscriptID] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

// SubscribeJob registers a handler for one transcript's events.
func (b *Broker) SubscribeJob(transcriptID uuid.UUID, handler func(Event)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[transcriptID] == nil {
		b.subs[transcriptID] = make(map[int]func(Event))
	}
	b.subs[transcriptID][id] = handler

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[transcriptID], id)
		if len(b.subs[transcriptID]) == 0 {
			delete(b.subs, transcriptID)
		}
	}
	return cancel, nil
}
