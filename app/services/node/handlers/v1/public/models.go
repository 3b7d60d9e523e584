package public

import (
	"cmp"
	"slices"

	"github.com/ardanlabs/blocksim/foundation/baseenc"
	"github.com/ardanlabs/blocksim/foundation/blockchain/node"
	"github.com/ardanlabs/blocksim/foundation/nameservice"
)

type reward struct {
	Receiver string `json:"receiver"`
	Name     string `json:"name,omitempty"`
	Blocks   uint64 `json:"blocks"`
}

type nodeStatus struct {
	ID         string   `json:"id"`
	Genesis    string   `json:"genesis"`
	Difficulty uint     `json:"difficulty"`
	Height     uint64   `json:"height"`
	Head       string   `json:"head"`
	HeadText   string   `json:"head_text"`
	Blocks     int      `json:"blocks"`
	Mined      uint64   `json:"mined"`
	Accepted   uint64   `json:"accepted"`
	Rejected   uint64   `json:"rejected"`
	Peers      []string `json:"peers"`
	Detached   bool     `json:"detached"`
	Rewards    []reward `json:"rewards"`
}

func toNodeStatus(st node.Status, ns *nameservice.NameService) nodeStatus {
	rewards := make([]reward, 0, len(st.Rewards))
	for pk, blocks := range st.Rewards {
		r := reward{
			Receiver: pk.String(),
			Blocks:   blocks,
		}
		if ns != nil {
			if name := ns.Lookup(pk); name != r.Receiver {
				r.Name = name
			}
		}
		rewards = append(rewards, r)
	}

	slices.SortFunc(rewards, func(a, b reward) int {
		if c := cmp.Compare(b.Blocks, a.Blocks); c != 0 {
			return c
		}
		return cmp.Compare(a.Receiver, b.Receiver)
	})

	peers := make([]string, len(st.PeerIDs))
	for i, id := range st.PeerIDs {
		peers[i] = id.String()
	}

	return nodeStatus{
		ID:         st.ID.String(),
		Genesis:    st.Genesis.String(),
		Difficulty: st.Difficulty,
		Height:     st.Height,
		Head:       st.Head.String(),
		HeadText:   baseenc.Encode(st.Head[:]),
		Blocks:     st.Blocks,
		Mined:      st.Mined,
		Accepted:   st.Accepted,
		Rejected:   st.Rejected,
		Peers:      peers,
		Detached:   st.Detached,
		Rewards:    rewards,
	}
}
