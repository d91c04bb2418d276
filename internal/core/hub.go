package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

const (
	nicknamePrompt = "Please enter your nickname!\n"
	welcomePrefix  = "Welcome to the chat "
)

// handler is the bookkeeping entry for one connection being served.
type handler struct {
	conn      Conn
	startedAt time.Time
}

// Hub runs connection handlers against a shared Directory and reaps them when they finish.
type Hub struct {
	dir        *Directory
	dispatcher *Dispatcher
	log        *zerolog.Logger

	mu       sync.Mutex
	handlers map[string]*handler
	closed   bool

	done     chan string
	stopping chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a hub with a fresh directory.
func NewHub(logger *zerolog.Logger) *Hub {
	dir := NewDirectory()
	return &Hub{
		dir:        dir,
		dispatcher: NewDispatcher(dir, logger),
		log:        logger,
		handlers:   make(map[string]*handler),
		done:       make(chan string, 64),
		stopping:   make(chan struct{}),
	}
}

// Directory exposes the hub's room directory.
func (h *Hub) Directory() *Directory {
	return h.dir
}

// Active returns the number of handlers that have not been reaped yet.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

// Run reaps finished handlers until ctx is cancelled, then closes every live
// connection and waits for their handlers to return.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case id := <-h.done:
			h.reap(id)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// Serve drives one connection until the client quits, disconnects or fails.
// The connection is always closed and its session removed before Serve returns.
// A nil error means the client ended the session normally.
func (h *Hub) Serve(ctx context.Context, conn Conn) error {
	id := utils.NewID()
	if !h.track(id, conn) {
		_ = conn.Close()
		return ErrClosed
	}
	defer h.finish(id)
	defer conn.Close()

	logger := h.log.With().Str("session_id", id).Str("remote_addr", conn.RemoteAddr()).Logger()

	err := h.serve(ctx, id, conn, &logger)
	switch {
	case err == nil:
		logger.Debug().Msg("connection closed")
	case errors.Is(err, ErrNotRegistered), errors.Is(err, ErrRoomNotFound):
		logger.Error().Err(err).Msg("directory state violated, aborting handler")
	case isDisconnect(err):
		logger.Debug().Err(err).Msg("client disconnected")
		err = nil
	default:
		logger.Warn().Err(err).Msg("connection closed with error")
	}
	return err
}

func (h *Hub) serve(ctx context.Context, id string, conn Conn, logger *zerolog.Logger) error {
	s, err := h.handshake(ctx, id, conn)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	h.dir.Register(s)
	defer h.dir.Unregister(id)
	logger.Info().Str("nickname", s.Nickname).Msg("client registered")

	for {
		line, readErr := conn.ReadLine(ctx)
		if line != "" {
			outcome, err := h.dispatcher.Dispatch(ctx, s, line)
			if err != nil {
				return err
			}
			if outcome == Quit {
				return nil
			}
		}
		if readErr != nil {
			return fmt.Errorf("read: %w", readErr)
		}
	}
}

func (h *Hub) handshake(ctx context.Context, id string, conn Conn) (*Session, error) {
	if err := conn.WriteLine(ctx, nicknamePrompt); err != nil {
		return nil, err
	}
	line, err := conn.ReadLine(ctx)
	if err != nil {
		return nil, err
	}
	nickname := strings.TrimSpace(line)
	if err := conn.WriteLine(ctx, welcomePrefix+nickname+"\n"); err != nil {
		return nil, err
	}
	return NewSession(id, nickname, conn), nil
}

func (h *Hub) track(id string, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.handlers[id] = &handler{conn: conn, startedAt: time.Now()}
	h.wg.Add(1)
	return true
}

// finish signals the reaper that the handler for id has returned. When the
// reaper is not keeping up the handler reaps itself.
func (h *Hub) finish(id string) {
	defer h.wg.Done()
	select {
	case h.done <- id:
	case <-h.stopping:
		h.reap(id)
	default:
		h.reap(id)
	}
}

func (h *Hub) reap(id string) {
	h.mu.Lock()
	hd, ok := h.handlers[id]
	delete(h.handlers, id)
	remaining := len(h.handlers)
	h.mu.Unlock()

	if ok {
		h.log.Debug().
			Str("session_id", id).
			Dur("lifetime", time.Since(hd.startedAt)).
			Int("active", remaining).
			Msg("handler reaped")
	}
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.stopping) })

	h.mu.Lock()
	h.closed = true
	conns := make([]Conn, 0, len(h.handlers))
	for _, hd := range h.handlers {
		conns = append(conns, hd.conn)
	}
	h.mu.Unlock()

	h.log.Info().Int("connections", len(conns)).Msg("closing live connections")
	for _, c := range conns {
		_ = c.Close()
	}
	h.wg.Wait()

	for {
		select {
		case id := <-h.done:
			h.reap(id)
		default:
			return
		}
	}
}

// isDisconnect reports errors that mean the peer went away or the socket was
// closed locally, which end a session without indicating a fault.
func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
