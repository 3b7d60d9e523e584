package network

import (
	"errors"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/google/uuid"
)

// Set of errors returned by a connection.
var (
	ErrEmpty  = errors.New("no messages to receive")
	ErrClosed = errors.New("connection closed")
	ErrFull   = errors.New("connection queue full")
)

// Payload represents the closed set of data a message can carry. New payloads
// are added by declaring a type in this package that implements the interface.
type Payload interface {
	payload()
}

// PublishBlock announces a block to the network.
type PublishBlock struct {
	Block database.Block
}

func (PublishBlock) payload() {}

// Message is what travels through the fabric between connections.
type Message struct {
	Sender  uuid.UUID
	Payload Payload
}
