// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/aurumchain/aurum/app/services/node/handlers/v1/private"
	"github.com/aurumchain/aurum/app/services/node/handlers/v1/public"
	"github.com/aurumchain/aurum/foundation/blockchain/node"
	"github.com/aurumchain/aurum/foundation/nameservice"
	"github.com/aurumchain/aurum/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log  *zap.SugaredLogger
	Node *node.Node
	NS   *nameservice.NameService
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:  cfg.Log,
		Node: cfg.Node,
		NS:   cfg.NS,
		WS:   websocket.Upgrader{},
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/latest", pbl.LatestBlock)
	app.Handle(http.MethodGet, version, "/balances/:address", pbl.Balance)
	app.Handle(http.MethodGet, version, "/tx/history/:address", pbl.History)
	app.Handle(http.MethodGet, version, "/tx/pending", pbl.Pending)
	app.Handle(http.MethodGet, version, "/tx/proof/:id", pbl.Proof)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/stake", pbl.SubmitStake)
	app.Handle(http.MethodPost, version, "/mining/signal", pbl.SignalMining)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:  cfg.Log,
		Node: cfg.Node,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/peers/connect", prv.ConnectPeer)
	app.Handle(http.MethodPost, version, "/node/peers/disconnect", prv.DisconnectPeer)
	app.Handle(http.MethodGet, version, "/node/chain", prv.Chain)
	app.Handle(http.MethodPost, version, "/node/chain/replace", prv.ReplaceChain)
	app.Handle(http.MethodPost, version, "/node/block/receive", prv.ReceiveBlock)
	app.Handle(http.MethodPost, version, "/node/tx/receive", prv.ReceiveTransaction)
	app.Handle(http.MethodPost, version, "/node/staking/enable", prv.EnableStaking)
}
