// Package core implements the room directory, command dispatcher and
// connection lifecycle shared by every transport.
package core

import "context"

// Conn abstracts a line-oriented bidirectional connection for TCP and WebSocket.
// This interface isolates transport details from chat logic.
type Conn interface {
	// ReadLine returns the next line including its trailing "\n" when present.
	// A final unterminated line is returned together with io.EOF.
	ReadLine(ctx context.Context) (string, error)

	// WriteLine sends line as-is. Callers supply the trailing newline.
	WriteLine(ctx context.Context, line string) error

	// Close closes the connection in both directions.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
