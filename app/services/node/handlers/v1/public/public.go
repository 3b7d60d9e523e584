// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/blocksim/business/web/errs"
	"github.com/ardanlabs/blocksim/foundation/blockchain/node"
	"github.com/ardanlabs/blocksim/foundation/events"
	"github.com/ardanlabs/blocksim/foundation/nameservice"
	"github.com/ardanlabs/blocksim/foundation/web"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node status endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Nodes []*node.Node
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// ListNodes returns the status of every node in the simulation.
func (h Handlers) ListNodes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := make([]nodeStatus, len(h.Nodes))
	for i, n := range h.Nodes {
		resp[i] = toNodeStatus(n.Status(), h.NS)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Node returns the status of the node with the specified id.
func (h Handlers) Node(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := uuid.Parse(web.Param(r, "id"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid node id: %w", err), http.StatusBadRequest)
	}

	for _, n := range h.Nodes {
		if n.ID() == id {
			return web.Respond(ctx, w, toNodeStatus(n.Status(), h.NS), http.StatusOK)
		}
	}

	return errs.NotFound(errors.New("node not found"))
}
