// Package client relays a terminal to a chat server: stdin lines go to the
// socket, server lines go to stdout. It keeps no chat state of its own.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

// ClosedByServer is printed when the server ends the session.
const ClosedByServer = "Connection closed by server."

// Client represents a line relay to one server.
type Client struct {
	address string
	in      io.Reader
	out     io.Writer
	log     *zerolog.Logger
}

// New creates a client that reads user input from in and prints server output to out.
func New(address string, in io.Reader, out io.Writer, logger *zerolog.Logger) *Client {
	return &Client{
		address: address,
		in:      in,
		out:     out,
		log:     logger,
	}
}

// Run connects and relays until the server closes the connection or ctx ends.
// When input runs out the write half is closed and Run keeps printing until
// the server hangs up.
func (c *Client) Run(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()

	received := make(chan error, 1)
	go func() { received <- c.receive(conn) }()
	go c.forward(conn)

	select {
	case err := <-received:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (c *Client) receive(conn net.Conn) error {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprintln(c.out, strings.TrimSpace(line))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out, ClosedByServer)
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read from server: %w", err)
		}
	}
}

func (c *Client) forward(conn net.Conn) {
	reader := bufio.NewReader(c.in)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if _, werr := io.WriteString(conn, line); werr != nil {
				c.log.Error().Err(werr).Msg("error writing to stream")
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Error().Err(err).Msg("error reading input")
			}
			break
		}
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			c.log.Debug().Err(err).Msg("failed to shut down write side")
		}
	}
}
