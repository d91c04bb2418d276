package core

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeConn is an in-memory Conn. Lines pushed into in are read by the server,
// lines the server writes land in out.
type fakeConn struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once

	failWrites bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan string, 16),
		out:    make(chan string, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.closed:
		return "", net.ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *fakeConn) WriteLine(_ context.Context, line string) error {
	if c.failWrites {
		return errBrokenPipe
	}
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	select {
	case c.out <- line:
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestSession(id, nickname string) (*Session, *fakeConn) {
	conn := newFakeConn()
	return NewSession(id, nickname, conn), conn
}

func mustLine(t *testing.T, c *fakeConn, want string) {
	t.Helper()

	select {
	case got := <-c.out:
		if got != want {
			t.Fatalf("expected line %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected line %q not received", want)
	}
}

func mustNoLine(t *testing.T, c *fakeConn) {
	t.Helper()

	select {
	case got := <-c.out:
		t.Fatalf("unexpected line %q", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func drainLines(c *fakeConn) []string {
	var lines []string
	for {
		select {
		case l := <-c.out:
			lines = append(lines, l)
		default:
			return lines
		}
	}
}

// assertConsistent checks that the index and the room table agree.
func assertConsistent(t *testing.T, d *Directory) {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[DefaultRoom]; !ok {
		t.Fatalf("default room missing")
	}
	seen := make(map[string]string)
	for name, r := range d.rooms {
		for id := range r.members {
			if other, dup := seen[id]; dup {
				t.Fatalf("session %s is in both %q and %q", id, other, name)
			}
			seen[id] = name
		}
	}
	if len(seen) != len(d.index) {
		t.Fatalf("index has %d entries, rooms hold %d sessions", len(d.index), len(seen))
	}
	for id, name := range d.index {
		if seen[id] != name {
			t.Fatalf("index puts %s in %q, room table in %q", id, name, seen[id])
		}
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
