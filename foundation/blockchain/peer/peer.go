// Package peer maintains the set of connections a node has heard from on
// the network fabric.
package peer

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Peer represents another node's connection as seen through the fabric.
type Peer struct {
	ID uuid.UUID
}

// New constructs a peer value for the specified connection id.
func New(id uuid.UUID) Peer {
	return Peer{
		ID: id,
	}
}

// Match validates if the specified id matches this peer.
func (p Peer) Match(id uuid.UUID) bool {
	return p.ID == id
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new set to manage peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new peer to the set and reports if it was not already known.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Len returns the number of known peers.
func (ps *PeerSet) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns the known peers other than the specified id, ordered by id.
func (ps *PeerSet) Copy(exclude uuid.UUID) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(exclude) {
			peers = append(peers, peer)
		}
	}

	slices.SortFunc(peers, func(a, b Peer) int {
		return slices.Compare(a.ID[:], b.ID[:])
	})

	return peers
}
