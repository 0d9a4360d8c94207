package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin asks to be paired with another user.
	CommandJoin CommandKind = iota
	// CommandLeave ends the client's current session or wait.
	CommandLeave
	// CommandMessage relays a chat message to the partner.
	CommandMessage
	// CommandOffer relays a WebRTC offer to the partner.
	CommandOffer
	// CommandAnswer relays a WebRTC answer to the partner.
	CommandAnswer
	// CommandCandidate relays an ICE candidate to the partner.
	CommandCandidate
)

// Command represents an action requested by a client. UserID is the
// client-supplied opaque token; SessionID is optional and, when present
// on a relay command, must match the sender's live session.
type Command struct {
	Kind      CommandKind
	UserID    string
	SessionID string
	Text      string          // CommandMessage only
	Blob      json.RawMessage // offer/answer/candidate payload, opaque
}

// relays reports whether the command is forwarded to the partner.
func (c *Command) relays() bool {
	switch c.Kind {
	case CommandMessage, CommandOffer, CommandAnswer, CommandCandidate:
		return true
	default:
		return false
	}
}
