// Package database handles the lower level block and transaction models
// shared by every node, including how blocks are hashed and checked.
package database

import (
	"errors"
	"fmt"
)

// Set of errors returned when a block fails validation. These are the steady
// state outcome for losing or malformed blocks.
var (
	ErrUnknownParent      = errors.New("parent block is unknown")
	ErrHeightMismatch     = errors.New("block height does not follow parent")
	ErrInsufficientWork   = errors.New("block hash does not solve the difficulty")
	ErrExcessReward       = errors.New("block carries more than one reward")
	ErrInvalidTransaction = errors.New("block carries an invalid transaction")
	ErrUnsupportedAction  = errors.New("transaction action is not supported")
)

// Reason maps a validation error to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnknownParent):
		return "unknown_parent"
	case errors.Is(err, ErrHeightMismatch):
		return "height_mismatch"
	case errors.Is(err, ErrInsufficientWork):
		return "insufficient_work"
	case errors.Is(err, ErrExcessReward):
		return "excess_reward"
	case errors.Is(err, ErrInvalidTransaction):
		return "invalid_transaction"
	}
	return "other"
}

// =============================================================================

// Block represents a group of transactions chained to a parent block. A block
// is immutable once constructed and its hash is always derived from its fields.
type Block struct {
	height   uint64
	prevHash BlockHash
	nonce    Nonce
	trans    []Transaction
	hash     BlockHash
}

// NewBlock constructs a block and computes its hash.
func NewBlock(height uint64, prevHash BlockHash, nonce Nonce, trans []Transaction) Block {
	var tc []Transaction
	if len(trans) > 0 {
		tc = make([]Transaction, len(trans))
		for i, tx := range trans {
			tc[i] = tx.clone()
		}
	}

	return Block{
		height:   height,
		prevHash: prevHash,
		nonce:    nonce,
		trans:    tc,
		hash:     ComputeHash(height, prevHash, nonce, tc),
	}
}

// Genesis constructs the block every chain starts from.
func Genesis() Block {
	return NewBlock(0, ZeroHash, Nonce{}, nil)
}

// Height returns the block number in the chain.
func (b Block) Height() uint64 {
	return b.height
}

// PrevHash returns the hash of the parent block.
func (b Block) PrevHash() BlockHash {
	return b.prevHash
}

// Nonce returns the value that solved the proof of work.
func (b Block) Nonce() Nonce {
	return b.nonce
}

// Hash returns the unique hash for the block.
func (b Block) Hash() BlockHash {
	return b.hash
}

// Transactions returns a copy of the block's transactions.
func (b Block) Transactions() []Transaction {
	if len(b.trans) == 0 {
		return nil
	}

	trans := make([]Transaction, len(b.trans))
	for i, tx := range b.trans {
		trans[i] = tx.clone()
	}
	return trans
}

// Rewards returns the number of block reward actions across all of the
// block's transactions.
func (b Block) Rewards() int {
	var n int
	for _, tx := range b.trans {
		n += tx.Rewards()
	}
	return n
}

// Beneficiary returns the receiver of the block reward if the block has one.
func (b Block) Beneficiary() (PubKey, bool) {
	for _, tx := range b.trans {
		for _, action := range tx.Actions {
			if br, ok := action.(BlockReward); ok {
				return br.Receiver, true
			}
		}
	}
	return PubKey{}, false
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%s", b.height, b.hash.Short())
}

// ValidateBlock checks the block against its parent. The parent must already
// have been located by the caller.
func (b Block) ValidateBlock(parent Block, difficulty uint, txv TxValidator, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%s]: check: block height is the next height", b)

	if b.height != parent.height+1 {
		return fmt.Errorf("got %d, exp %d: %w", b.height, parent.height+1, ErrHeightMismatch)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: block hash has been solved", b)

	if !b.hash.IsSolved(difficulty) {
		return fmt.Errorf("zeros[%d] difficulty[%d]: %w", b.hash.TrailingZeros(), difficulty, ErrInsufficientWork)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: at most one block reward", b)

	if n := b.Rewards(); n > 1 {
		return fmt.Errorf("rewards[%d]: %w", n, ErrExcessReward)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: transactions are valid", b)

	for i, tx := range b.trans {
		if err := txv.ValidateTx(tx); err != nil {
			return fmt.Errorf("tx[%d]: %w: %w", i, err, ErrInvalidTransaction)
		}
	}

	return nil
}
