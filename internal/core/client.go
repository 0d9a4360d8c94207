package core

// Client is one live transport connection as seen by the core layer.
// ConnID is the stable connection handle; the user behind it is unknown
// until the first join command arrives.
type Client struct {
	ConnID   string
	Commands chan *Command
	Events   chan *Event

	// closed is set by the hub loop when the connection is dropped;
	// send is only ever called from that same loop.
	closed bool
}

// NewClient constructs a client with initialized channels.
func NewClient(connID string) *Client {
	return &Client{
		ConnID:   connID,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
	}
}

// send delivers an event to the client without blocking the hub.
// Events for an already-dropped connection are discarded.
func (c *Client) send(event *Event) {
	if c.closed {
		return
	}
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
