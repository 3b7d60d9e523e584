package node

import (
	"maps"
	"slices"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/google/uuid"
)

// Status is a point in time summary of a node.
type Status struct {
	ID         uuid.UUID
	Genesis    database.BlockHash
	Difficulty uint
	Height     uint64
	Head       database.BlockHash
	Blocks     int
	Mined      uint64
	Accepted   uint64
	Rejected   uint64
	Peers      int
	PeerIDs    []uuid.UUID
	Detached   bool
	Rewards    map[database.PubKey]uint64
}

// Status returns the summary published after the most recent step that
// changed the node. It is safe to call from any goroutine.
func (n *Node) Status() Status {
	st := *n.status.Load()
	st.PeerIDs = slices.Clone(st.PeerIDs)
	st.Rewards = maps.Clone(st.Rewards)
	return st
}

// publishStatus takes a snapshot of the chain view for readers on other
// goroutines. Only the loop goroutine calls this.
func (n *Node) publishStatus() {
	head := n.state.Head()

	var peerIDs []uuid.UUID
	for _, p := range n.peers.Copy(n.id) {
		peerIDs = append(peerIDs, p.ID)
	}

	st := Status{
		ID:         n.id,
		Genesis:    n.state.Genesis().Hash(),
		Difficulty: n.state.Difficulty(),
		Height:     head.Height(),
		Head:       head.Hash(),
		Blocks:     n.state.Count(),
		Mined:      n.mined,
		Accepted:   n.accepted,
		Rejected:   n.rejected,
		Peers:      len(peerIDs),
		PeerIDs:    peerIDs,
		Detached:   n.detached,
		Rewards:    n.state.RewardTally(),
	}

	n.status.Store(&st)
}
