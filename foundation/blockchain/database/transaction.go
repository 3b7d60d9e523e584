package database

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// ActionKind identifies the variant of a transaction action.
type ActionKind uint8

// Set of action kinds. The value is the tag written into the block hash.
const (
	ActionNone        ActionKind = 0x00
	ActionBlockReward ActionKind = 0x01
)

// String implements the fmt.Stringer interface.
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionBlockReward:
		return "block_reward"
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

// TransactionAction represents one of the closed set of operations a
// transaction can perform. New variants are added by declaring a type in this
// package that implements the interface.
type TransactionAction interface {
	Kind() ActionKind
	body() []byte
}

// BlockReward credits the receiver as the recipient of the mining reward for
// the block carrying it.
type BlockReward struct {
	Receiver PubKey
}

// Kind implements the TransactionAction interface.
func (BlockReward) Kind() ActionKind {
	return ActionBlockReward
}

func (br BlockReward) body() []byte {
	return br.Receiver[:]
}

// =============================================================================

// Transaction is an ordered set of actions recorded in a block.
type Transaction struct {
	Actions []TransactionAction
}

// NewBlockReward constructs the coinbase transaction crediting the receiver.
func NewBlockReward(receiver PubKey) Transaction {
	return Transaction{
		Actions: []TransactionAction{BlockReward{Receiver: receiver}},
	}
}

// Rewards returns the number of block reward actions in the transaction.
func (tx Transaction) Rewards() int {
	var n int
	for _, action := range tx.Actions {
		if _, ok := action.(BlockReward); ok {
			n++
		}
	}
	return n
}

// Bytes returns the fixed layout used when hashing the transaction: the big
// endian action count followed by the tag and body of every action. A nil
// action is written as the ActionNone tag with no body.
func (tx Transaction) Bytes() []byte {
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(tx.Actions)))

	data := count[:]
	for _, action := range tx.Actions {
		if action == nil {
			data = append(data, byte(ActionNone))
			continue
		}
		data = append(data, byte(action.Kind()))
		data = append(data, action.body()...)
	}

	return data
}

// clone returns a transaction that shares no memory with tx. Every action
// variant is a value type so copying the slice is enough.
func (tx Transaction) clone() Transaction {
	return Transaction{Actions: slices.Clone(tx.Actions)}
}

// =============================================================================

// TxValidator represents the behavior required to decide if a single
// transaction may be included in a block.
type TxValidator interface {
	ValidateTx(tx Transaction) error
}

// RewardOnlyValidator accepts any transaction made of supported actions. It
// performs no signature or balance checks.
type RewardOnlyValidator struct{}

// ValidateTx implements the TxValidator interface.
func (RewardOnlyValidator) ValidateTx(tx Transaction) error {
	for i, action := range tx.Actions {
		switch action.(type) {
		case BlockReward:
		case nil:
			return fmt.Errorf("action[%d] kind[%s]: %w", i, ActionNone, ErrUnsupportedAction)
		default:
			return fmt.Errorf("action[%d] kind[%s]: %w", i, action.Kind(), ErrUnsupportedAction)
		}
	}

	return nil
}
