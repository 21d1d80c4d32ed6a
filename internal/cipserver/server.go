// Package cipserver implements the ENIP/CIP server: the TCP listener, the
// per-connection session state machine, and the CIP service processor:
// an accept loop spawning per-connection session tasks, each driving an
// ENIP command dispatch against a symbolic tag model.
package cipserver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cipdip/enipsim/internal/config"
	"github.com/cipdip/enipsim/internal/control"
	"github.com/cipdip/enipsim/internal/logging"
)

// Server accepts TCP connections on the configured address and spawns one
// session task per peer, sharing the tag registry and control plane across
// all of them.
type Server struct {
	identity config.Identity
	logger   *logging.Logger
	plane    *control.Plane

	listener         net.Listener
	nextConnID       atomic.Uint32
	nextSessionHandle atomic.Uint32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Server. The caller owns the Plane (so the control-plane
// HTTP endpoint and CLI can share it).
func New(identity config.Identity, logger *logging.Logger, plane *control.Plane) *Server {
	return &Server{identity: identity, logger: logger, plane: plane}
}

// Start binds the listener and begins the accept loop in the background.
func (s *Server) Start(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())

	go s.plane.Delay.Run()

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener, sets eof on every tracked connection for a
// graceful shutdown, and waits for all session goroutines to exit.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.plane.Delay.Stop()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.plane.Shutdown()
	s.wg.Wait()
	return nil
}

// Addr returns the bound listener address, useful when the caller asked
// for port 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.logger.Error("accept: %v", err)
				return
			}
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}
