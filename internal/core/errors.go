package core

import "errors"

// Error codes for protocol errors reported back to a client.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeCannotLeaveDefault = "cannot_leave_default"
)

var (
	// ErrNotRegistered means a session has no membership entry. It signals broken
	// directory state, not a user mistake, and ends the connection's handler.
	ErrNotRegistered = errors.New("session has no room")
	// ErrRoomNotFound is returned for lookups of a room that was never created.
	ErrRoomNotFound = errors.New("room not found")
	// ErrClosed is returned when the hub no longer accepts connections.
	ErrClosed = errors.New("hub closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

var (
	errJoinUsage    = coreError(ErrCodeBadRequest, "invalid usage for /join: expected usage /join <room_name>")
	errLeaveDefault = coreError(ErrCodeCannotLeaveDefault, "cannot leave from "+DefaultRoom+" room, call /quit instead")
)
