package http

import (
	"context"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// WSHandler upgrades HTTP connections and serves them through the hub.
// Outbound frames carry one protocol line without its trailing newline.
// Inbound frames may carry several lines separated by "\n".
type WSHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// Serve closes the connection and logs the outcome.
	_ = h.hub.Serve(r.Context(), &wsConn{conn: conn, remoteAddr: r.RemoteAddr})
}

// wsConn adapts a WebSocket connection to core.Conn.
type wsConn struct {
	conn       *websocket.Conn
	remoteAddr string

	// lines left over from a frame that carried more than one
	pending []string
}

func (c *wsConn) ReadLine(ctx context.Context) (string, error) {
	if len(c.pending) == 0 {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return "", io.EOF
			}
			return "", err
		}
		c.pending = splitFrame(string(data))
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

// splitFrame cuts a frame into newline-terminated lines. An empty frame is one
// empty line.
func splitFrame(frame string) []string {
	lines := strings.SplitAfter(frame, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		if !strings.HasSuffix(line, "\n") {
			lines[i] = line + "\n"
		}
	}
	return lines
}

func (c *wsConn) WriteLine(ctx context.Context, line string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(strings.TrimSuffix(line, "\n")))
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "closing")
}

func (c *wsConn) RemoteAddr() string {
	return c.remoteAddr
}
