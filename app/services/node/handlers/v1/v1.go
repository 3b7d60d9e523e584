// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/blocksim/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/blocksim/foundation/blockchain/node"
	"github.com/ardanlabs/blocksim/foundation/events"
	"github.com/ardanlabs/blocksim/foundation/nameservice"
	"github.com/ardanlabs/blocksim/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	Nodes []*node.Node
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		Nodes: cfg.Nodes,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/nodes", pbl.ListNodes)
	app.Handle(http.MethodGet, version, "/nodes/:id", pbl.Node)
}
