package state

import (
	"math/rand/v2"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// Miner produces candidate blocks for a chain view. A Miner is owned by a
// single node and is not safe for concurrent use.
type Miner struct {
	rnd         *rand.Rand
	beneficiary *database.PubKey
}

// NewMiner constructs a miner. When rnd is nil a randomly seeded source is
// used. When beneficiary is nil candidates carry no transactions.
func NewMiner(rnd *rand.Rand, beneficiary *database.PubKey) *Miner {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Miner{
		rnd:         rnd,
		beneficiary: beneficiary,
	}
}

// AttemptBlock draws a single random nonce and builds a candidate on top of
// the current head. The block is returned only if its hash solves the
// difficulty. Sustained mining comes from calling this repeatedly.
func (m *Miner) AttemptBlock(s *State, difficulty uint) (database.Block, bool) {
	head := s.Head()

	var trans []database.Transaction
	if m.beneficiary != nil {
		trans = []database.Transaction{database.NewBlockReward(*m.beneficiary)}
	}

	nonce := database.Nonce{
		Hi: m.rnd.Uint64(),
		Lo: m.rnd.Uint64(),
	}

	block := database.NewBlock(head.Height()+1, head.Hash(), nonce, trans)
	if !block.Hash().IsSolved(difficulty) {
		return database.Block{}, false
	}

	s.evHandler("state: AttemptBlock: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%s]", head, block, nonce)

	return block, true
}
