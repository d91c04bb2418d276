package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// Server accepts TCP connections and hands each one to the hub.
type Server struct {
	hub         *core.Hub
	log         *zerolog.Logger
	idleTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	closing  bool
}

// New creates a TCP server that uses the provided Hub.
func New(hub *core.Hub, logger *zerolog.Logger, idleTimeout time.Duration) *Server {
	return &Server{
		hub:         hub,
		log:         logger,
		idleTimeout: idleTimeout,
	}
}

// ListenAndServe binds addr and serves until ctx is cancelled or Close is called.
// A bind failure is returned before any connection is accepted.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln, one goroutine per connection.
// It returns nil once the listener is closed by ctx or Close.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.listener = ln
	s.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp server started")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				s.log.Info().Msg("tcp server stopped")
				return nil
			}
			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to accept tcp connection")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		go s.handle(ctx, conn)
	}
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Close stops accepting new connections. Live connections belong to the hub
// and are closed when its Run context ends.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	s.log.Debug().Str("remote_addr", conn.RemoteAddr().String()).Msg("accepted connection")
	// Serve logs its own outcome.
	_ = s.hub.Serve(ctx, NewConn(conn, s.idleTimeout))
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
