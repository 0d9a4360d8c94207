package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin      = "join"
	InboundTypeLeave     = "leave"
	InboundTypeMessage   = "message"
	InboundTypeOffer     = "offer"
	InboundTypeAnswer    = "answer"
	InboundTypeCandidate = "candidate"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// JoinData asks to be paired with another user. UserID is an opaque
// client-supplied token, not a verified identity.
type JoinData struct {
	UserID string `json:"userId"`
}

// LeaveData ends the current session or wait.
type LeaveData struct {
	UserID string `json:"userId"`
}

// MessageData is a chat message destined for the partner. SessionID is
// optional; when set it is validated against the sender's live session.
type MessageData struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// SignalData carries an opaque WebRTC blob (offer, answer or candidate)
// destined for the partner.
type SignalData struct {
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventConnected greets a client after its connection is registered.
type EventConnected struct {
	ConnID string `json:"connId"`
}

// EventChatStart notifies both members that a session has started.
// Initiator is true for the side expected to produce the first offer.
type EventChatStart struct {
	SessionID string `json:"sessionId"`
	Initiator bool   `json:"initiator"`
}

// EventPartnerDisconnected notifies the remaining member that its
// partner is gone and the session has ended.
type EventPartnerDisconnected struct {
	SessionID string `json:"sessionId"`
}

// EventMessage is a chat message relayed from the partner.
type EventMessage struct {
	SessionID string `json:"sessionId"`
	From      string `json:"from"`
	Message   string `json:"message"`
}

// EventSignal is a WebRTC blob relayed from the partner.
type EventSignal struct {
	SessionID string          `json:"sessionId"`
	From      string          `json:"from"`
	Payload   json.RawMessage `json:"payload"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
