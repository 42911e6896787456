// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/bchain/bchain/app/services/node/handlers/v1/public"
	"github.com/bchain/bchain/foundation/events"
	"github.com/bchain/bchain/foundation/ledger/state"
	"github.com/dimfeld/httptreemux/v5"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(cfg Config) http.Handler {
	mux := httptreemux.NewContextMux()

	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	mux.Handle(http.MethodGet, "/v1/events", pbl.Events)
	mux.Handle(http.MethodGet, "/v1/accounts", pbl.Accounts)
	mux.Handle(http.MethodPost, "/v1/accounts", pbl.SubmitAccount)
	mux.Handle(http.MethodGet, "/v1/accounts/:name", pbl.Balance)
	mux.Handle(http.MethodPost, "/v1/transfers", pbl.SubmitTransfer)
	mux.Handle(http.MethodGet, "/v1/blocks", pbl.Blocks)
	mux.Handle(http.MethodGet, "/v1/blocks/:from/:to", pbl.Blocks)

	return mux
}
