package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// ErrStopWalk can be returned by a walk function to end the walk early
// without reporting an error.
var ErrStopWalk = errors.New("stop walk")

// =============================================================================

// Difficulty returns the proof of work difficulty blocks are checked against.
func (s *State) Difficulty() uint {
	return s.difficulty
}

// Genesis returns the block this chain view started from.
func (s *State) Genesis() database.Block {
	return s.genesis
}

// Head returns the block at the tip of the best known chain.
func (s *State) Head() database.Block {
	return s.blocks[s.head]
}

// Block returns the block for the specified hash if it is known.
func (s *State) Block(hash database.BlockHash) (database.Block, bool) {
	block, exists := s.blocks[hash]
	return block, exists
}

// Count returns the number of blocks known, including blocks on forks.
func (s *State) Count() int {
	return len(s.blocks)
}

// Walk calls fn for every block from the head back to the genesis block.
func (s *State) Walk(fn func(block database.Block) error) error {
	hash := s.head
	for {
		block, exists := s.blocks[hash]
		if !exists {
			return fmt.Errorf("walk: blk[%s]: %w", hash.Short(), database.ErrUnknownParent)
		}

		if err := fn(block); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}

		if block.Height() == 0 {
			return nil
		}

		hash = block.PrevHash()
	}
}

// RewardTally counts the block rewards credited to each receiver along the
// best chain.
func (s *State) RewardTally() map[database.PubKey]uint64 {
	tally := make(map[database.PubKey]uint64)

	s.Walk(func(block database.Block) error {
		if receiver, ok := block.Beneficiary(); ok {
			tally[receiver]++
		}
		return nil
	})

	return tally
}
