package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventConnected greets a client once its connection is registered.
	EventConnected EventKind = iota
	// EventWaiting tells the requester that no partner is available yet.
	EventWaiting
	// EventChatStart tells both members that a session has started.
	EventChatStart
	// EventPartnerDisconnected tells the remaining member that the
	// partner left and the session is gone.
	EventPartnerDisconnected
	// EventMessage delivers a relayed chat message from the partner.
	EventMessage
	// EventOffer delivers a relayed WebRTC offer from the partner.
	EventOffer
	// EventAnswer delivers a relayed WebRTC answer from the partner.
	EventAnswer
	// EventCandidate delivers a relayed ICE candidate from the partner.
	EventCandidate
	// EventError notifies the client about a protocol error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	ConnID    string          // EventConnected
	SessionID string          // EventChatStart, EventPartnerDisconnected
	Initiator bool            // EventChatStart: true for the member that triggered the match
	From      string          // relayed events: the sender's user id
	Text      string          // EventMessage
	Blob      json.RawMessage // relayed offer/answer/candidate payload
	Error     *CoreError      // EventError
}

// relayEvent maps a relay command kind to its outbound event kind.
func relayEvent(kind CommandKind) EventKind {
	switch kind {
	case CommandMessage:
		return EventMessage
	case CommandOffer:
		return EventOffer
	case CommandAnswer:
		return EventAnswer
	default:
		return EventCandidate
	}
}
