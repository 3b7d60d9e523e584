// Package state is the core API for a node's view of the blockchain and
// implements the block acceptance and fork choice rules.
package state

import (
	"fmt"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to construct a chain view.
type Config struct {
	Genesis     database.Block
	Difficulty  uint
	TxValidator database.TxValidator
	EvHandler   EventHandler
}

// State manages the set of blocks known to a node and the head of the best
// chain. A State is owned by a single node and is not safe for concurrent use.
type State struct {
	difficulty  uint
	txValidator database.TxValidator
	evHandler   EventHandler

	genesis database.Block
	blocks  map[database.BlockHash]database.Block
	head    database.BlockHash
}

// New constructs a chain view holding only the genesis block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// A zero value block was never constructed, use the standard genesis.
	genesis := cfg.Genesis
	if genesis.Hash().IsZero() {
		genesis = database.Genesis()
	}

	if genesis.Height() != 0 || !genesis.PrevHash().IsZero() {
		return nil, fmt.Errorf("invalid genesis block[%s]: height must be 0 with a zero parent hash", genesis)
	}

	txv := cfg.TxValidator
	if txv == nil {
		txv = database.RewardOnlyValidator{}
	}

	s := State{
		difficulty:  cfg.Difficulty,
		txValidator: txv,
		evHandler:   ev,
		genesis:     genesis,
		blocks:      map[database.BlockHash]database.Block{genesis.Hash(): genesis},
		head:        genesis.Hash(),
	}

	return &s, nil
}

// Validate checks if the block can be attached to this chain view. A nil
// error means the block is valid.
func (s *State) Validate(block database.Block) error {
	s.evHandler("state: Validate: validate: blk[%s]: check: parent block is known", block)

	// There is no pool for orphans, a block with an unknown parent is rejected.
	parent, exists := s.blocks[block.PrevHash()]
	if !exists {
		return fmt.Errorf("parent[%s]: %w", block.PrevHash().Short(), database.ErrUnknownParent)
	}

	return block.ValidateBlock(parent, s.difficulty, s.txValidator, s.evHandler)
}

// AddBlock validates the block and stores it. The head only moves when the
// block is strictly higher than the current head, so the first block seen at
// any height wins ties.
func (s *State) AddBlock(block database.Block) error {
	if err := s.Validate(block); err != nil {
		s.evHandler("state: AddBlock: WARNING: rejecting blk[%s]: %s", block, err)
		return err
	}

	hash := block.Hash()
	if _, exists := s.blocks[hash]; exists {
		s.evHandler("state: AddBlock: blk[%s]: already known", block)
		return nil
	}

	s.blocks[hash] = block

	head := s.blocks[s.head]
	if block.Height() > head.Height() {
		s.evHandler("state: AddBlock: highest blk[%s]: prev head[%s]", block, head)
		s.head = hash
	}

	return nil
}
