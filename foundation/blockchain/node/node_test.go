package node_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/network"
	"github.com/ardanlabs/blocksim/foundation/blockchain/node"
	"github.com/google/uuid"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// transport is an in-memory Transport that records what a node publishes.
type transport struct {
	id        uuid.UUID
	inbox     []network.Message
	published []network.Payload
	attempts  int
	closed    bool
}

func newTransport() *transport {
	return &transport{id: uuid.New()}
}

func (tr *transport) ID() uuid.UUID {
	return tr.id
}

func (tr *transport) Publish(payload network.Payload) error {
	tr.attempts++
	if tr.closed {
		return network.ErrClosed
	}
	tr.published = append(tr.published, payload)
	return nil
}

func (tr *transport) Receive() (network.Message, error) {
	if len(tr.inbox) == 0 {
		if tr.closed {
			return network.Message{}, network.ErrClosed
		}
		return network.Message{}, network.ErrEmpty
	}
	msg := tr.inbox[0]
	tr.inbox = tr.inbox[1:]
	return msg, nil
}

func (tr *transport) Close() error {
	tr.closed = true
	return nil
}

func newNode(t *testing.T, tr node.Transport, difficulty uint, seed uint64) *node.Node {
	t.Helper()

	n, err := node.New(node.Config{
		Transport:  tr,
		Difficulty: difficulty,
		Rand:       rand.New(rand.NewPCG(seed, seed+1)),
		EvHandler:  func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a node: %s", failed, err)
	}

	return n
}

func Test_StepMinesAndPublishes(t *testing.T) {
	t.Log("Given the need to mine and publish a block in one step.")
	{
		tr := newTransport()
		n := newNode(t, tr, 0, 1)

		n.Step()

		st := n.Status()
		if st.Height != 1 || st.Mined != 1 || st.Accepted != 1 || st.Blocks != 2 {
			t.Fatalf("\t%s\tShould have mined and accepted one block: %+v", failed, st)
		}
		t.Logf("\t%s\tShould have mined and accepted one block.", success)

		if st.Genesis != database.Genesis().Hash() || st.Difficulty != 0 {
			t.Fatalf("\t%s\tShould report the genesis and difficulty: %+v", failed, st)
		}
		t.Logf("\t%s\tShould report the genesis and difficulty.", success)

		if len(tr.published) != 1 {
			t.Fatalf("\t%s\tShould have published one payload, got %d", failed, len(tr.published))
		}
		pb, ok := tr.published[0].(network.PublishBlock)
		if !ok || pb.Block.Hash() != st.Head {
			t.Fatalf("\t%s\tShould have published the new head, got %#v", failed, tr.published[0])
		}
		t.Logf("\t%s\tShould have published the new head.", success)
	}
}

func Test_StepWithoutSolution(t *testing.T) {
	t.Log("Given the need to keep looping when no block is solved.")
	{
		tr := newTransport()
		n := newNode(t, tr, 256, 1)

		for range 10 {
			n.Step()
		}

		st := n.Status()
		if st.Height != 0 || st.Mined != 0 || len(tr.published) != 0 {
			t.Fatalf("\t%s\tShould not mine at an impossible difficulty: %+v", failed, st)
		}
		t.Logf("\t%s\tShould not mine at an impossible difficulty.", success)
	}
}

func Test_StepDrainsInbound(t *testing.T) {
	t.Log("Given the need to process every delivered block in one step.")
	{
		tr := newTransport()
		n := newNode(t, tr, 256, 1)

		sender := uuid.New()
		genesis := database.Genesis()
		child := database.NewBlock(1, genesis.Hash(), database.Nonce{}, nil)
		orphan := database.NewBlock(5, database.BlockHash{0xaa}, database.Nonce{}, nil)

		tr.inbox = []network.Message{
			{Sender: sender, Payload: network.PublishBlock{Block: child}},
			{Sender: sender, Payload: network.PublishBlock{Block: orphan}},
		}

		n.Step()

		if len(tr.inbox) != 0 {
			t.Fatalf("\t%s\tShould drain every message, %d left", failed, len(tr.inbox))
		}
		t.Logf("\t%s\tShould drain every message.", success)

		st := n.Status()
		if st.Height != 0 || st.Accepted != 0 || st.Rejected != 2 {
			t.Fatalf("\t%s\tShould reject blocks failing the work check at difficulty 256: %+v", failed, st)
		}
		t.Logf("\t%s\tShould reject blocks failing validation.", success)

		if st.Peers != 1 || len(st.PeerIDs) != 1 || st.PeerIDs[0] != sender {
			t.Fatalf("\t%s\tShould record the sender as a peer, got %v", failed, st.PeerIDs)
		}
		t.Logf("\t%s\tShould record the sender as a peer.", success)
	}
}

func Test_TwoNodesOverFabric(t *testing.T) {
	t.Log("Given the need for two nodes to share blocks through the fabric.")
	{
		f, err := network.New(network.Config{})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a fabric: %s", failed, err)
		}

		a := newNode(t, f.Connect(), 0, 1)
		b := newNode(t, f.Connect(), 0, 2)

		a.Step()
		f.Tick()
		b.Step()

		sta := a.Status()
		stb := b.Status()

		if stb.Blocks != 3 || stb.Accepted != 2 {
			t.Fatalf("\t%s\tShould have accepted its own and the peer's block: %+v", failed, stb)
		}
		t.Logf("\t%s\tShould have accepted its own and the peer's block.", success)

		if stb.Height != 1 || stb.Head == sta.Head {
			t.Fatalf("\t%s\tShould keep its own first seen block as head: a[%s] b[%s]", failed, sta.Head, stb.Head)
		}
		t.Logf("\t%s\tShould keep its own first seen block as head.", success)

		if stb.Peers != 1 || sta.Peers != 0 {
			t.Fatalf("\t%s\tShould only know peers it heard from: a[%d] b[%d]", failed, sta.Peers, stb.Peers)
		}
		t.Logf("\t%s\tShould only know peers it heard from.", success)

		// b's block now reaches a and a builds height 2 on its own block.
		f.Tick()
		a.Step()

		sta = a.Status()
		if sta.Height != 2 || sta.Blocks != 4 {
			t.Fatalf("\t%s\tShould extend its chain and store the fork: %+v", failed, sta)
		}
		t.Logf("\t%s\tShould extend its chain and store the fork.", success)
	}
}

func Test_RewardStatus(t *testing.T) {
	t.Log("Given the need to credit the beneficiary for mined blocks.")
	{
		var key database.PubKey
		key[0] = 0x04
		key[64] = 0x01

		n, err := node.New(node.Config{
			Transport:   newTransport(),
			Beneficiary: &key,
			Rand:        rand.New(rand.NewPCG(3, 4)),
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node: %s", failed, err)
		}

		for range 3 {
			n.Step()
		}

		st := n.Status()
		if st.Rewards[key] != 3 {
			t.Fatalf("\t%s\tShould credit 3 rewards, got %d", failed, st.Rewards[key])
		}
		t.Logf("\t%s\tShould credit 3 rewards.", success)

		st.Rewards[key] = 100
		if n.Status().Rewards[key] != 3 {
			t.Fatalf("\t%s\tShould not share the rewards map with callers.", failed)
		}
		t.Logf("\t%s\tShould not share the rewards map with callers.", success)
	}
}

func Test_DetachedStopsPublishing(t *testing.T) {
	t.Log("Given the need to stop publishing once the network dropped the node.")
	{
		tr := newTransport()
		tr.closed = true
		n := newNode(t, tr, 0, 1)

		for range 3 {
			n.Step()
		}

		st := n.Status()
		if st.Mined != 3 || st.Height != 3 {
			t.Fatalf("\t%s\tShould keep mining on its own chain: %+v", failed, st)
		}
		t.Logf("\t%s\tShould keep mining on its own chain.", success)

		if !st.Detached {
			t.Fatalf("\t%s\tShould report the node as detached.", failed)
		}
		t.Logf("\t%s\tShould report the node as detached.", success)

		if tr.attempts != 1 {
			t.Fatalf("\t%s\tShould only publish before it knows it was dropped, got %d attempts", failed, tr.attempts)
		}
		t.Logf("\t%s\tShould only publish before it knows it was dropped.", success)
	}
}

func Test_InvalidConfig(t *testing.T) {
	t.Log("Given the need to reject bad configuration.")
	{
		if _, err := node.New(node.Config{}); err == nil {
			t.Fatalf("\t%s\tShould reject a missing transport.", failed)
		}
		t.Logf("\t%s\tShould reject a missing transport.", success)

		if _, err := node.New(node.Config{Transport: newTransport(), Difficulty: 257}); err == nil {
			t.Fatalf("\t%s\tShould reject an impossible difficulty.", failed)
		}
		t.Logf("\t%s\tShould reject an impossible difficulty.", success)
	}
}

func Test_RunStops(t *testing.T) {
	t.Log("Given the need to stop a node with a context.")
	{
		f, err := network.New(network.Config{})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a fabric: %s", failed, err)
		}

		conn := f.Connect()
		n := newNode(t, conn, 256, 1)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		if err := n.Run(ctx); err != nil {
			t.Fatalf("\t%s\tShould stop cleanly: %s", failed, err)
		}
		t.Logf("\t%s\tShould stop cleanly.", success)

		if err := conn.Publish(network.PublishBlock{}); !errors.Is(err, network.ErrClosed) {
			t.Fatalf("\t%s\tShould close the transport: %v", failed, err)
		}
		t.Logf("\t%s\tShould close the transport.", success)

		f.Tick()
		if len(f.Connections()) != 0 {
			t.Fatalf("\t%s\tShould be deregistered from the fabric.", failed)
		}
		t.Logf("\t%s\tShould be deregistered from the fabric.", success)
	}
}
