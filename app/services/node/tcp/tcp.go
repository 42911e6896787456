// Package tcp implements the line-delimited command listener for the node.
// Each connection carries one JSON command line and receives one status
// line back. Malformed input is answered here and never reaches the miner
// loop.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bchain/bchain/business/protocol"
	"github.com/bchain/bchain/foundation/ledger/state"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// connTimeout bounds how long a single connection may take to deliver its
// command line and collect the reply.
const connTimeout = 10 * time.Second

// Config represents the mandatory settings to run the listener.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Addr  string
}

// Server accepts command connections and correlates each one with exactly
// one reply from the miner loop.
type Server struct {
	log      *zap.SugaredLogger
	state    *state.State
	listener net.Listener
	wg       sync.WaitGroup
	shut     chan struct{}
}

// New binds the listen address and constructs a server ready to run.
func New(cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("binding command listener to %s: %w", cfg.Addr, err)
	}

	srv := Server{
		log:      cfg.Log,
		state:    cfg.State,
		listener: listener,
		shut:     make(chan struct{}),
	}

	return &srv, nil
}

// Addr returns the bound listen address. Useful when the configuration
// asked for port 0.
func (srv *Server) Addr() string {
	return srv.listener.Addr().String()
}

// Run accepts connections until Shutdown closes the listener. It blocks and
// always returns a non-nil error; after a shutdown that error is
// net.ErrClosed.
func (srv *Server) Run() error {
	srv.log.Infow("startup", "status", "command listener started", "addr", srv.Addr())

	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			select {
			case <-srv.shut:
				return net.ErrClosed
			default:
				if errors.Is(err, net.ErrClosed) {
					return err
				}
				srv.log.Errorw("accept", "ERROR", err)
				continue
			}
		}

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handleConn(conn)
		}()
	}
}

// Shutdown stops accepting connections and waits for in-flight ones to
// finish or the context to expire.
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.log.Infow("shutdown", "status", "command listener stopping", "addr", srv.Addr())

	close(srv.shut)
	srv.listener.Close()

	done := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================

// handleConn decodes one command, enqueues it for the miner loop, blocks
// for the reply, and writes the status line back.
func (srv *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	traceID := uuid.NewString()
	conn.SetDeadline(time.Now().Add(connTimeout))

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		srv.log.Infow("conn", "traceid", traceID, "status", "no command line received")
		return
	}

	cmd, err := protocol.Decode(scanner.Bytes())
	if err != nil {
		srv.writeLine(conn, traceID, fmt.Sprintf("Error: %s", err))
		return
	}

	op, err := cmd.Operation()
	if err != nil {
		srv.writeLine(conn, traceID, fmt.Sprintf("Error: %s", err))
		return
	}

	srv.log.Infow("conn", "traceid", traceID, "kind", cmd.Kind, "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	reply, err := srv.state.SendRequest(ctx, op)
	if err != nil {
		srv.writeLine(conn, traceID, fmt.Sprintf("Error: %s", err))
		return
	}

	srv.writeLine(conn, traceID, reply.Text)
}

// writeLine sends a single newline-terminated status line to the client.
func (srv *Server) writeLine(conn net.Conn, traceID string, text string) {
	if _, err := fmt.Fprintf(conn, "%s\n", text); err != nil {
		srv.log.Errorw("conn", "traceid", traceID, "ERROR", err)
	}
}
