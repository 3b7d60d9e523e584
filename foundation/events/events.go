// Package events fans simulation event text out to registered subscribers
// such as websocket clients.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the size of each subscriber channel when none is provided.
// A message is dropped if the subscriber is not ready, the buffer gives a
// slow websocket writer time to catch up.
const DefaultBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m       map[string]chan string
	mu      sync.RWMutex
	buffer  int
	dropped atomic.Uint64
}

// New constructs an events for registering and receiving events. A buffer
// less than 1 uses DefaultBuffer.
func New(buffer int) *Events {
	if buffer < 1 {
		buffer = DefaultBuffer
	}

	return &Events{
		m:      make(map[string]chan string),
		buffer: buffer,
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	ch = make(chan string, evt.buffer)
	evt.m[id] = ch

	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
			evt.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of registered channels.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Dropped returns the number of messages not delivered because a
// subscriber's channel was full.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}
