package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Outcome tells the read loop whether to keep going.
type Outcome int

const (
	// Continue keeps the connection open.
	Continue Outcome = iota
	// Quit ends the connection.
	Quit
)

// Dispatcher executes client commands against a Directory.
type Dispatcher struct {
	dir *Directory
	log *zerolog.Logger
}

// NewDispatcher creates a dispatcher bound to dir.
func NewDispatcher(dir *Directory, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{dir: dir, log: logger}
}

// Dispatch runs one line from s. The returned error is terminal for the
// connection: either a write to s failed or the directory lost track of s.
// Usage mistakes are answered to the client and do not produce an error.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, line string) (Outcome, error) {
	cmd := ParseCommand(line)

	switch cmd.Kind {
	case CommandRooms:
		for _, name := range d.dir.RoomNames() {
			if err := s.Send(ctx, name+"\n"); err != nil {
				return Continue, fmt.Errorf("send room list: %w", err)
			}
		}
		return Continue, nil

	case CommandJoin:
		if len(cmd.Args) != 1 {
			return Continue, d.reject(ctx, s, cmd, errJoinUsage)
		}
		from, err := d.dir.Move(s.ID, cmd.Args[0])
		if err != nil {
			return Continue, fmt.Errorf("join %q: %w", cmd.Args[0], err)
		}
		d.log.Debug().Str("session_id", s.ID).Str("from", from).Str("room", cmd.Args[0]).Msg("joined room")
		return Continue, nil

	case CommandLeave:
		current, ok := d.dir.CurrentRoom(s.ID)
		if !ok {
			return Continue, fmt.Errorf("leave: %w", ErrNotRegistered)
		}
		if current == DefaultRoom {
			return Continue, d.reject(ctx, s, cmd, errLeaveDefault)
		}
		if _, err := d.dir.Move(s.ID, DefaultRoom); err != nil {
			return Continue, fmt.Errorf("leave %q: %w", current, err)
		}
		d.log.Debug().Str("session_id", s.ID).Str("from", current).Msg("left room")
		return Continue, nil

	case CommandWhich:
		current, ok := d.dir.CurrentRoom(s.ID)
		if !ok {
			return Continue, fmt.Errorf("which: %w", ErrNotRegistered)
		}
		if err := s.Send(ctx, current+"\n"); err != nil {
			return Continue, fmt.Errorf("send room name: %w", err)
		}
		return Continue, nil

	case CommandQuit:
		room, _ := d.dir.Unregister(s.ID)
		d.log.Debug().Str("session_id", s.ID).Str("room", room).Msg("quit")
		return Quit, nil

	default:
		return Continue, d.broadcast(ctx, s, cmd.Raw)
	}
}

// broadcast relays line to every other member of the sender's room. The
// recipient set is fixed when the snapshot is taken; peers that fail to
// receive are logged and skipped.
func (d *Dispatcher) broadcast(ctx context.Context, s *Session, line string) error {
	room, peers, err := d.dir.Peers(s.ID)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	msg := s.Nickname + ": " + line

	for _, peer := range peers {
		if err := peer.Send(ctx, msg); err != nil {
			d.log.Warn().Err(err).
				Str("room", room).
				Str("session_id", peer.ID).
				Msg("broadcast to peer failed")
		}
	}
	return nil
}

func (d *Dispatcher) reject(ctx context.Context, s *Session, cmd Command, cerr *CoreError) error {
	d.log.Debug().
		Str("session_id", s.ID).
		Str("command", cmd.Kind.String()).
		Str("code", cerr.Code).
		Msg("rejected command")
	if err := s.Send(ctx, cerr.Message+"\n"); err != nil {
		return fmt.Errorf("send %s error: %w", cerr.Code, err)
	}
	return nil
}
