package core

import "strings"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandMessage is plain chat text for the sender's room.
	CommandMessage CommandKind = iota
	// CommandRooms lists known rooms.
	CommandRooms
	// CommandJoin moves the sender into a room.
	CommandJoin
	// CommandLeave moves the sender back to the default room.
	CommandLeave
	// CommandWhich reports the sender's room.
	CommandWhich
	// CommandQuit ends the session.
	CommandQuit
)

var keywords = map[string]CommandKind{
	"/rooms": CommandRooms,
	"/join":  CommandJoin,
	"/leave": CommandLeave,
	"/which": CommandWhich,
	"/quit":  CommandQuit,
}

func (k CommandKind) String() string {
	switch k {
	case CommandRooms:
		return "rooms"
	case CommandJoin:
		return "join"
	case CommandLeave:
		return "leave"
	case CommandWhich:
		return "which"
	case CommandQuit:
		return "quit"
	default:
		return "message"
	}
}

// Command represents one parsed line of client input.
type Command struct {
	Kind CommandKind
	// Args are the whitespace-separated tokens after the keyword.
	Args []string
	// Raw is the line exactly as read.
	Raw string
}

// ParseCommand selects a command by exact match of the first token.
// Anything else, including an empty line, is a chat message.
func ParseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: CommandMessage, Raw: line}
	}
	kind, ok := keywords[fields[0]]
	if !ok {
		return Command{Kind: CommandMessage, Raw: line}
	}
	return Command{Kind: kind, Args: fields[1:], Raw: line}
}
