package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// defaultWaitingTTL bounds how long a user may sit in the waiting pool
// before becoming eligible for purging at the next match attempt.
const defaultWaitingTTL = 300 * time.Second

// Stats is a point-in-time snapshot of hub state.
type Stats struct {
	Clients  int `json:"clients"`
	Waiting  int `json:"waiting"`
	Sessions int `json:"sessions"`
}

// clientCommand tags a command with the connection it arrived on.
type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub pairs anonymous users into two-party sessions and relays signaling
// between partners. All state (waiting pool, session registry, connection
// bindings) is owned by the Run loop; clients interact through channels,
// so a match attempt and the session creation it triggers are a single
// indivisible step.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	statsc     chan chan Stats

	clients map[string]*Client // connection handle → client
	users   map[string]*Client // user id → current connection
	conns   map[string]string  // connection handle → user id

	pool       *WaitingPool
	registry   *SessionRegistry
	waitingTTL time.Duration

	log *zerolog.Logger
}

// NewHub creates a hub. A non-positive waitingTTL falls back to the
// default staleness threshold.
func NewHub(logger *zerolog.Logger, waitingTTL time.Duration) *Hub {
	if waitingTTL <= 0 {
		waitingTTL = defaultWaitingTTL
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
		statsc:     make(chan chan Stats),
		clients:    make(map[string]*Client),
		users:      make(map[string]*Client),
		conns:      make(map[string]string),
		pool:       NewWaitingPool(),
		registry:   NewSessionRegistry(),
		waitingTTL: waitingTTL,
		log:        logger,
	}
}

// RegisterClient announces a new connection to the hub.
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient removes a connection. The caller must not send on
// client.Commands afterwards.
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// Stats returns a snapshot of hub state.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.statsc <- reply:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Run processes hub traffic until the context is cancelled. All state
// mutation happens on this goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client.ConnID] = client
			go h.pump(ctx, client)
			client.send(&Event{Kind: EventConnected, ConnID: client.ConnID})
		case client := <-h.unregister:
			h.dropClient(client)
		case cc := <-h.commands:
			h.dispatch(cc.client, cc.cmd)
		case reply := <-h.statsc:
			reply <- Stats{
				Clients:  len(h.clients),
				Waiting:  h.pool.Len(),
				Sessions: h.registry.Len(),
			}
		case <-ctx.Done():
			return
		}
	}
}

// pump forwards one client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, client *Client) {
	for {
		select {
		case cmd, ok := <-client.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: client, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dispatch(client *Client, cmd *Command) {
	// A command may still be in flight when its connection is dropped;
	// it must not act on behalf of a dead connection.
	if h.clients[client.ConnID] != client {
		return
	}
	if cmd.UserID == "" {
		client.send(&Event{
			Kind:  EventError,
			Error: coreError(ErrCodeBadRequest, "userId is required"),
		})
		return
	}
	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(client, cmd.UserID)
	case CommandLeave:
		h.handleLeave(cmd.UserID)
	default:
		if cmd.relays() {
			h.handleSignal(cmd)
		}
	}
}

// handleJoin pairs the user with the oldest eligible waiting user, or
// parks it in the pool. The joiner plays the initiator role because it
// is the side about to produce a fresh offer.
func (h *Hub) handleJoin(client *Client, userID string) {
	// A connection speaks for one user at a time: joining under a new
	// id releases the previous one, exactly as if it had left. Without
	// this, a disconnect would only clean up the last-bound user.
	if prevUser, ok := h.conns[client.ConnID]; ok && prevUser != userID {
		h.handleLeave(prevUser)
	}

	// Bind the connection handle, overwriting any stale binding from a
	// previous connection of the same user.
	if prev, ok := h.users[userID]; ok && prev != client {
		delete(h.conns, prev.ConnID)
	}
	h.users[userID] = client
	h.conns[client.ConnID] = userID

	// A join while paired means the old session is dead weight: end it
	// exactly as if the user had left.
	if session := h.registry.SessionOf(userID); session != nil {
		h.endSession(session, userID)
	}

	h.pool.Remove(userID)
	for _, stale := range h.pool.PurgeStale(h.waitingTTL) {
		h.log.Debug().Str("user", stale).Msg("purged stale waiting user")
	}

	partnerID := h.pool.DequeueAny(userID)
	if partnerID == "" {
		h.pool.Enqueue(userID)
		client.send(&Event{Kind: EventWaiting})
		return
	}

	session, err := h.registry.CreateSession(partnerID, userID)
	if err != nil {
		// Registry refused the pairing. State is untouched, so park the
		// requester again rather than losing it.
		h.log.Error().Err(err).
			Str("user", userID).
			Str("partner", partnerID).
			Msg("pairing rejected")
		h.pool.Enqueue(userID)
		client.send(&Event{Kind: EventWaiting})
		return
	}

	h.log.Info().
		Str("session", session.ID).
		Str("user", userID).
		Str("partner", partnerID).
		Msg("session started")

	client.send(&Event{Kind: EventChatStart, SessionID: session.ID, Initiator: true})
	h.notify(partnerID, &Event{Kind: EventChatStart, SessionID: session.ID, Initiator: false})
}

// handleSignal forwards a relay command to the sender's partner only.
// Signals from users with no live session, or tagged with a session id
// that does not match the live one, are dropped without a reply.
func (h *Hub) handleSignal(cmd *Command) {
	session := h.registry.SessionOf(cmd.UserID)
	if session == nil {
		h.log.Debug().Str("user", cmd.UserID).Msg("dropping signal without session")
		return
	}
	if cmd.SessionID != "" && cmd.SessionID != session.ID {
		h.log.Debug().
			Str("user", cmd.UserID).
			Str("session", cmd.SessionID).
			Msg("dropping signal for stale session")
		return
	}

	h.notify(session.Partner(cmd.UserID), &Event{
		Kind:      relayEvent(cmd.Kind),
		SessionID: session.ID,
		From:      cmd.UserID,
		Text:      cmd.Text,
		Blob:      cmd.Blob,
	})
}

// handleLeave is the single cleanup path for explicit leaves and
// transport disconnects.
func (h *Hub) handleLeave(userID string) {
	h.pool.Remove(userID)
	if session := h.registry.SessionOf(userID); session != nil {
		h.endSession(session, userID)
	}
	if client, ok := h.users[userID]; ok {
		delete(h.conns, client.ConnID)
		delete(h.users, userID)
	}
}

// endSession notifies the remaining member before teardown so the
// notification still refers to a recognized session.
func (h *Hub) endSession(session *Session, leavingUser string) {
	partnerID := session.Partner(leavingUser)
	h.notify(partnerID, &Event{Kind: EventPartnerDisconnected, SessionID: session.ID})
	h.registry.Teardown(session.ID)
	h.log.Info().
		Str("session", session.ID).
		Str("user", leavingUser).
		Msg("session ended")
}

// dropClient translates a closed connection into a leave for the user
// bound to it. A connection whose binding was already overwritten by a
// newer one must not touch the user's current state.
func (h *Hub) dropClient(client *Client) {
	if h.clients[client.ConnID] != client {
		return
	}
	if userID, ok := h.conns[client.ConnID]; ok {
		if h.users[userID] == client {
			h.handleLeave(userID)
		}
		delete(h.conns, client.ConnID)
	}
	delete(h.clients, client.ConnID)
	client.closed = true
	close(client.Commands)
	close(client.Events)
}

// notify sends an event to the user's current connection, if any.
// Delivery is best-effort: a user mid-disconnect simply misses it.
func (h *Hub) notify(userID string, event *Event) {
	if client, ok := h.users[userID]; ok {
		client.send(event)
	}
}
