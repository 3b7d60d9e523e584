package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/blocksim/app/services/node/handlers"
	"github.com/ardanlabs/blocksim/foundation/blockchain/network"
	"github.com/ardanlabs/blocksim/foundation/blockchain/node"
	"github.com/ardanlabs/blocksim/foundation/blockchain/wallet"
	"github.com/ardanlabs/blocksim/foundation/events"
	"github.com/ardanlabs/blocksim/foundation/nameservice"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func setup(t *testing.T) (*network.Fabric, []*node.Node, *nameservice.NameService) {
	t.Helper()

	f, err := network.New(network.Config{})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a fabric: %s", failed, err)
	}

	w, err := wallet.NewContext(nil).Generate()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a reward key: %s", failed, err)
	}
	pk := w.PubKey()

	ns := nameservice.New()
	ns.Add(pk, "miner1")

	nodes := make([]*node.Node, 2)
	for i := range nodes {
		n, err := node.New(node.Config{Transport: f.Connect(), Beneficiary: &pk})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node: %s", failed, err)
		}
		nodes[i] = n
	}

	// Mine one block on the first node so the statuses differ.
	nodes[0].Step()

	return f, nodes, ns
}

func Test_PublicRoutes(t *testing.T) {
	_, nodes, ns := setup(t)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		Nodes:    nodes,
		NS:       ns,
		Evts:     events.New(0),
	})

	type table struct {
		name   string
		path   string
		status int
	}

	tt := []table{
		{name: "list", path: "/v1/nodes", status: http.StatusOK},
		{name: "one", path: "/v1/nodes/" + nodes[0].ID().String(), status: http.StatusOK},
		{name: "unknown", path: "/v1/nodes/" + uuid.NewString(), status: http.StatusNotFound},
		{name: "invalid", path: "/v1/nodes/not-a-uuid", status: http.StatusBadRequest},
	}

	t.Log("Given the need to report node status over http.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tst.path, nil))

				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould receive status %d for %s, got %d", failed, testID, tst.status, tst.path, w.Code)
				}
				t.Logf("\t%s\tTest %d:\tShould receive status %d for %s.", success, testID, tst.status, tst.path)
			}

			t.Run(tst.name, f)
		}
	}

	t.Log("Given the need to decode the node status.")
	{
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/nodes/"+nodes[0].ID().String(), nil))

		var resp struct {
			ID       string `json:"id"`
			Height   uint64 `json:"height"`
			HeadText string `json:"head_text"`
			Genesis  string `json:"genesis"`
			Mined    uint64 `json:"mined"`
			Rewards  []struct {
				Name   string `json:"name"`
				Blocks uint64 `json:"blocks"`
			} `json:"rewards"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the status: %s", failed, err)
		}

		if resp.ID != nodes[0].ID().String() || resp.Height != 1 || resp.Mined != 1 || resp.HeadText == "" || resp.Genesis == "" {
			t.Fatalf("\t%s\tShould get back the mined block in the status: %+v", failed, resp)
		}
		t.Logf("\t%s\tShould get back the mined block in the status.", success)

		if len(resp.Rewards) != 1 || resp.Rewards[0].Name != "miner1" || resp.Rewards[0].Blocks != 1 {
			t.Fatalf("\t%s\tShould get back the named reward: %+v", failed, resp.Rewards)
		}
		t.Logf("\t%s\tShould get back the named reward.", success)
	}
}

func Test_DebugRoutes(t *testing.T) {
	f, _, _ := setup(t)

	evts := events.New(1)
	ch := evts.Acquire("client")
	evts.Send("first")
	evts.Send("dropped")
	<-ch

	mux := handlers.DebugMux("test", zap.NewNop().Sugar(), f, evts)

	for _, path := range []string{"/metrics", "/debug/liveness", "/debug/readiness"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 for %s, got %d", failed, path, w.Code)
		}
	}
	t.Logf("\t%s\tShould serve the debug routes.", success)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/readiness", nil))

	var ready struct {
		Connections   int    `json:"connections"`
		Subscribers   int    `json:"subscribers"`
		DroppedEvents uint64 `json:"dropped_events"`
	}
	if err := json.NewDecoder(w.Body).Decode(&ready); err != nil {
		t.Fatalf("\t%s\tShould be able to decode readiness: %s", failed, err)
	}
	if ready.Connections != 2 || ready.Subscribers != 1 || ready.DroppedEvents != 1 {
		t.Fatalf("\t%s\tShould report connections and event delivery: %+v", failed, ready)
	}
	t.Logf("\t%s\tShould report connections and event delivery.", success)

	f.Shutdown()

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/readiness", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("\t%s\tShould not be ready without connections, got %d", failed, w.Code)
	}
	t.Logf("\t%s\tShould not be ready without connections.", success)
}
