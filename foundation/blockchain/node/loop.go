package node

import (
	"errors"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/network"
	"github.com/ardanlabs/blocksim/foundation/blockchain/peer"
)

// Sources of a block for metrics.
const (
	sourceLocal = "local"
	sourcePeer  = "peer"
)

// mine makes a single attempt at solving a block on top of the current head.
// A solved block is added to the chain view and then published, unless the
// network has already dropped this node.
func (n *Node) mine() bool {
	block, solved := n.miner.AttemptBlock(n.state, n.state.Difficulty())
	if !solved {
		return false
	}

	n.mined++
	n.metrics.ObserveMined()

	n.evHandler("node: mine: node[%s]: MINING: found blk[%s]", n.id, block)

	n.addBlock(sourceLocal, block)

	if n.detached {
		return true
	}

	if err := n.transport.Publish(network.PublishBlock{Block: block}); err != nil {
		n.evHandler("node: mine: node[%s]: WARNING: publishing blk[%s]: %s", n.id, block, err)
	}

	return true
}

// drain processes every message waiting on the transport and returns as soon
// as the transport reports there is nothing left.
func (n *Node) drain() bool {
	var changed bool

	for {
		msg, err := n.transport.Receive()
		switch {
		case errors.Is(err, network.ErrEmpty):
			return changed

		case errors.Is(err, network.ErrClosed):
			if !n.detached {
				n.evHandler("node: drain: node[%s]: WARNING: dropped by the network", n.id)
				n.detached = true
			}
			return changed

		case err != nil:
			n.evHandler("node: drain: node[%s]: ERROR: receiving: %s", n.id, err)
			return changed
		}

		if n.peers.Add(peer.New(msg.Sender)) {
			n.evHandler("node: drain: node[%s]: new peer[%s]: peers[%d]", n.id, msg.Sender, n.peers.Len())
		}

		switch p := msg.Payload.(type) {
		case network.PublishBlock:
			n.evHandler("node: drain: node[%s]: received blk[%s] from peer[%s]", n.id, p.Block, msg.Sender)
			n.addBlock(sourcePeer, p.Block)

		default:
			n.evHandler("node: drain: node[%s]: WARNING: unsupported payload %T from peer[%s]", n.id, msg.Payload, msg.Sender)
		}

		changed = true
	}
}

// addBlock runs the block through the chain view and records the outcome.
func (n *Node) addBlock(source string, block database.Block) {
	if err := n.state.AddBlock(block); err != nil {
		n.rejected++
		n.metrics.ObserveAdd(source, database.Reason(err))
		return
	}

	n.accepted++
	n.metrics.ObserveAdd(source, "")
	n.metrics.ObserveHead(n.state.Head().Height())
}
