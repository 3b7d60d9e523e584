package network

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Conn is a node's handle into the fabric. Publish and Receive never block.
// A Conn is owned by a single node and Close must not be called concurrently
// with Publish.
type Conn struct {
	id       uuid.UUID
	inbound  <-chan Message
	outbound chan<- Message
	closed   atomic.Bool
	once     sync.Once
}

// ID returns the unique identifier the fabric registered this connection under.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// Publish queues the payload for delivery to every other connection on the
// next tick. ErrFull is returned when the outbound queue has no room.
func (c *Conn) Publish(payload Payload) error {
	if c.closed.Load() {
		return ErrClosed
	}

	msg := Message{
		Sender:  c.id,
		Payload: payload,
	}

	select {
	case c.outbound <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Receive returns the next delivered message. ErrEmpty is returned when
// nothing is waiting and ErrClosed once the fabric has dropped this connection.
func (c *Conn) Receive() (Message, error) {
	select {
	case msg, ok := <-c.inbound:
		if !ok {
			return Message{}, ErrClosed
		}
		return msg, nil
	default:
		return Message{}, ErrEmpty
	}
}

// Close tells the fabric this connection is gone. The fabric deregisters it
// on its next tick.
func (c *Conn) Close() error {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.outbound)
	})
	return nil
}
