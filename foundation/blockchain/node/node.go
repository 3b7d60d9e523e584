// Package node implements the loop that drives a single simulated node:
// attempt to mine a block, then drain whatever the network delivered.
package node

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/network"
	"github.com/ardanlabs/blocksim/foundation/blockchain/peer"
	"github.com/ardanlabs/blocksim/foundation/blockchain/state"
	"github.com/ardanlabs/blocksim/foundation/metrics"
	"github.com/ardanlabs/blocksim/foundation/validate"
	"github.com/google/uuid"
)

// Transport represents the publish/subscribe behavior a node needs from the
// network. Publish and Receive must never block.
type Transport interface {
	ID() uuid.UUID
	Publish(payload network.Payload) error
	Receive() (network.Message, error)
	Close() error
}

// EventHandler defines a function that is called when events occur in the
// processing of the node loop.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a node.
type Config struct {
	Transport   Transport `validate:"required"`
	Genesis     database.Block
	Difficulty  uint `validate:"lte=256"`
	Beneficiary *database.PubKey
	Rand        *rand.Rand
	TxValidator database.TxValidator
	EvHandler   EventHandler
}

// Node owns a chain view and a miner and moves blocks between them and the
// network. Only Status is safe to call from other goroutines.
type Node struct {
	id        uuid.UUID
	transport Transport
	state     *state.State
	miner     *state.Miner
	peers     *peer.PeerSet
	evHandler EventHandler
	metrics   *metrics.Node

	mined    uint64
	accepted uint64
	rejected uint64
	detached bool

	status atomic.Pointer[Status]
}

// New constructs a node holding only the genesis block.
func New(cfg Config) (*Node, error) {
	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	st, err := state.New(state.Config{
		Genesis:     cfg.Genesis,
		Difficulty:  cfg.Difficulty,
		TxValidator: cfg.TxValidator,
		EvHandler:   state.EventHandler(ev),
	})
	if err != nil {
		return nil, fmt.Errorf("constructing chain view: %w", err)
	}

	id := cfg.Transport.ID()

	n := Node{
		id:        id,
		transport: cfg.Transport,
		state:     st,
		miner:     state.NewMiner(cfg.Rand, cfg.Beneficiary),
		peers:     peer.NewPeerSet(),
		evHandler: ev,
		metrics:   metrics.NewNode(id.String()),
	}

	n.metrics.ObserveHead(st.Head().Height())
	n.publishStatus()

	return &n, nil
}

// ID returns the identifier of the node's connection to the network.
func (n *Node) ID() uuid.UUID {
	return n.id
}

// Run performs iterations of the node loop until the context is cancelled.
// The transport is closed when Run returns.
func (n *Node) Run(ctx context.Context) error {
	n.evHandler("node: Run: node[%s]: G started: genesis[%s] difficulty[%d]", n.id, n.state.Genesis(), n.state.Difficulty())
	defer n.evHandler("node: Run: node[%s]: G completed", n.id)

	defer func() {
		if err := n.transport.Close(); err != nil {
			n.evHandler("node: Run: node[%s]: ERROR: closing transport: %s", n.id, err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			n.evHandler("node: Run: node[%s]: received shut signal", n.id)
			return nil
		default:
		}

		n.Step()
	}
}

// Step performs one iteration of the node loop: a single mining attempt
// followed by draining every message waiting on the transport.
func (n *Node) Step() {
	mined := n.mine()
	drained := n.drain()

	if mined || drained {
		n.publishStatus()
	}
}
