// Package handlers manages the different versions of the API.
package handlers

import (
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	v1 "github.com/bchain/bchain/app/services/node/handlers/v1"
	"github.com/bchain/bchain/foundation/events"
	"github.com/bchain/bchain/foundation/ledger/state"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
	Evts     *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {
	mux := v1.PublicRoutes(v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	})

	return cors(mux, "*")
}

// DebugStandardLibraryMux registers all the debug routes from the standard
// library into a new mux bypassing the use of the DefaultServerMux. Using
// the DefaultServerMux would be a security risk since a dependency could
// inject a handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service.
func DebugMux(build string, log *zap.SugaredLogger, st *state.State) http.Handler {
	mux := DebugStandardLibraryMux()

	mux.HandleFunc("/debug/readiness", func(w http.ResponseWriter, r *http.Request) {
		status := struct {
			Status      string `json:"status"`
			QueueLength int    `json:"queue_length"`
		}{
			Status:      "ok",
			QueueLength: st.QueueLength(),
		}
		json.NewEncoder(w).Encode(status)
	})

	mux.HandleFunc("/debug/liveness", func(w http.ResponseWriter, r *http.Request) {
		host, err := os.Hostname()
		if err != nil {
			host = "unavailable"
		}
		status := struct {
			Status string `json:"status"`
			Build  string `json:"build"`
			Host   string `json:"host"`
		}{
			Status: "up",
			Build:  build,
			Host:   host,
		}
		json.NewEncoder(w).Encode(status)
	})

	return mux
}

// =============================================================================

// cors sets the response headers needed for Cross-Origin Resource Sharing.
func cors(next http.Handler, origin string) http.Handler {
	h := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(h)
}
