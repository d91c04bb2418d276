// Package tcp serves the line protocol over plain TCP sockets.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Conn adapts net.Conn to core.Conn.
type Conn struct {
	conn        net.Conn
	reader      *bufio.Reader
	remoteAddr  string
	idleTimeout time.Duration

	wmu sync.Mutex
}

// NewConn wraps a net.Conn. A positive idleTimeout bounds how long ReadLine
// waits for the next line.
func NewConn(conn net.Conn, idleTimeout time.Duration) *Conn {
	return &Conn{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		remoteAddr:  conn.RemoteAddr().String(),
		idleTimeout: idleTimeout,
	}
}

// ReadLine implements core.Conn.
func (c *Conn) ReadLine(_ context.Context) (string, error) {
	if c.idleTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout)); err != nil {
			return "", err
		}
	}
	line, err := c.reader.ReadString('\n')
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return line, fmt.Errorf("idle for %s: %w", c.idleTimeout, err)
	}
	return line, err
}

// WriteLine implements core.Conn.
func (c *Conn) WriteLine(_ context.Context, line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.conn, line)
	return err
}

// Close implements core.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements core.Conn. The address is captured at accept time and
// stays available after the socket is closed.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}
