package core

import (
	"context"
	"sync"
)

// Session is a registered client as seen by the core layer.
// ID and Nickname never change after construction.
type Session struct {
	ID       string
	Nickname string

	conn Conn
	mu   sync.Mutex
}

// NewSession binds an identity to the connection used for outbound lines.
func NewSession(id, nickname string, conn Conn) *Session {
	return &Session{
		ID:       id,
		Nickname: nickname,
		conn:     conn,
	}
}

// Send writes one line to the client. Concurrent senders are serialized so
// lines from different broadcasters never interleave.
func (s *Session) Send(ctx context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteLine(ctx, line)
}
