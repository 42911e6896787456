// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bchain/bchain/business/sys/validate"
	"github.com/bchain/bchain/business/web/errs"
	"github.com/bchain/bchain/foundation/events"
	"github.com/bchain/bchain/foundation/ledger/database"
	"github.com/bchain/bchain/foundation/ledger/state"
	"github.com/dimfeld/httptreemux/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide node events to a client.
func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Errorw("events", "ERROR", err)
		return
	}
	defer c.Close()

	traceID := uuid.NewString()

	ch := h.Evts.Acquire(traceID)
	defer h.Evts.Release(traceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// SubmitAccount creates a new account in the ledger. Account creation takes
// effect as soon as the miner loop drains the request, it does not wait for
// a block boundary.
func (h Handlers) SubmitAccount(w http.ResponseWriter, r *http.Request) {
	var na newAccount
	if err := json.NewDecoder(r.Body).Decode(&na); err != nil {
		respondError(w, errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest))
		return
	}

	if err := validate.Check(na); err != nil {
		respondError(w, err)
		return
	}

	h.Log.Infow("create account", "name", na.Name, "balance", na.Balance)

	reply, err := h.State.SendRequest(r.Context(), state.CreateAccount{
		Name:    database.AccountID(na.Name),
		Balance: na.Balance,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	if reply.Err != nil {
		respondError(w, errs.NewTrusted(reply.Err, http.StatusConflict))
		return
	}

	respond(w, http.StatusCreated, result{
		Result:  reply.Text,
		Account: &reply.Account,
	})
}

// Balance returns the current balance of one account.
func (h Handlers) Balance(w http.ResponseWriter, r *http.Request) {
	name := httptreemux.ContextParams(r.Context())["name"]

	reply, err := h.State.SendRequest(r.Context(), state.BalanceQuery{
		Name: database.AccountID(name),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	if reply.Err != nil {
		respondError(w, errs.NewTrusted(reply.Err, http.StatusNotFound))
		return
	}

	respond(w, http.StatusOK, result{
		Result:  reply.Text,
		Account: &reply.Account,
	})
}

// Accounts returns every account currently in the ledger.
func (h Handlers) Accounts(w http.ResponseWriter, r *http.Request) {
	reply, err := h.State.SendRequest(r.Context(), state.AccountsQuery{})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, result{
		Result:   reply.Text,
		Accounts: reply.Accounts,
	})
}

// SubmitTransfer admits a transfer for the next block. A 202 means the
// transfer passed admission and is queued, not that funds have moved.
func (h Handlers) SubmitTransfer(w http.ResponseWriter, r *http.Request) {
	var nt newTransfer
	if err := json.NewDecoder(r.Body).Decode(&nt); err != nil {
		respondError(w, errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest))
		return
	}

	if err := validate.Check(nt); err != nil {
		respondError(w, err)
		return
	}

	h.Log.Infow("submit transfer", "sender", nt.Sender, "receiver", nt.Receiver, "amount", nt.Amount)

	reply, err := h.State.SendRequest(r.Context(), state.Transfer{
		Sender:   database.AccountID(nt.Sender),
		Receiver: database.AccountID(nt.Receiver),
		Amount:   nt.Amount,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	if reply.Err != nil {
		respondError(w, errs.NewTrusted(reply.Err, http.StatusBadRequest))
		return
	}

	respond(w, http.StatusAccepted, result{
		Result: reply.Text,
	})
}

// Blocks returns a copy of a range of the block log. Without parameters the
// whole log is returned; the bounds also accept the literal "latest".
func (h Handlers) Blocks(w http.ResponseWriter, r *http.Request) {
	params := httptreemux.ContextParams(r.Context())

	from, err := parseBlockNum(params["from"], 0)
	if err != nil {
		respondError(w, errs.NewTrusted(err, http.StatusBadRequest))
		return
	}

	to, err := parseBlockNum(params["to"], state.QueryLatest)
	if err != nil {
		respondError(w, errs.NewTrusted(err, http.StatusBadRequest))
		return
	}

	reply, err := h.State.SendRequest(r.Context(), state.BlocksQuery{From: from, To: to})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, result{
		Result: reply.Text,
		Blocks: reply.Blocks,
	})
}

// =============================================================================

// parseBlockNum converts a path parameter into a block number, using the
// fallback when the parameter is absent.
func parseBlockNum(param string, fallback uint64) (uint64, error) {
	if param == "" {
		return fallback, nil
	}
	if param == "latest" {
		return state.QueryLatest, nil
	}

	num, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q", param)
	}

	return num, nil
}

// respond converts a Go value to JSON and sends it to the client.
func respond(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response in the API error format, mapping
// trusted and field-validation errors to their status and everything else
// to a 500.
func respondError(w http.ResponseWriter, err error) {
	var resp errs.Response
	statusCode := http.StatusInternalServerError

	switch {
	case validate.IsFieldErrors(err):
		fieldErrors := validate.GetFieldErrors(err)
		resp = errs.Response{
			Error:  "data validation error",
			Fields: fieldErrors.Fields(),
		}
		statusCode = http.StatusBadRequest

	case errs.IsTrusted(err):
		trsErr := errs.GetTrusted(err)
		resp = errs.Response{
			Error: trsErr.Error(),
		}
		statusCode = trsErr.Status

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		resp = errs.Response{
			Error: "request cancelled",
		}
		statusCode = http.StatusGatewayTimeout

	default:
		resp = errs.Response{
			Error: http.StatusText(http.StatusInternalServerError),
		}
	}

	respond(w, statusCode, resp)
}
