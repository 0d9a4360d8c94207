package core

import (
	"time"

	"github.com/google/uuid"
)

// Session is a live two-party pairing.
type Session struct {
	ID        string
	MemberA   string
	MemberB   string
	CreatedAt time.Time
}

// Partner returns the other member of the session, or "" if userID is
// not a member.
func (s *Session) Partner(userID string) string {
	switch userID {
	case s.MemberA:
		return s.MemberB
	case s.MemberB:
		return s.MemberA
	default:
		return ""
	}
}

// SessionRegistry is the source of truth for live pairings. It keeps the
// user → session and session → members maps mutually consistent: every
// mutation installs or removes both sides together.
// Not safe for concurrent use; the hub run loop owns it.
type SessionRegistry struct {
	sessions map[string]*Session
	byUser   map[string]string
	now      func() time.Time
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]string),
		now:      time.Now,
	}
}

// CreateSession pairs two distinct, currently unpaired users and returns
// the new session. Returns a *CoreError with code ErrCodeInvalidPairing
// if the users are the same or either is already in a session; the
// registry is left untouched.
func (r *SessionRegistry) CreateSession(userA, userB string) (*Session, error) {
	if userA == userB {
		return nil, coreError(ErrCodeInvalidPairing, "cannot pair a user with itself")
	}
	if _, ok := r.byUser[userA]; ok {
		return nil, coreError(ErrCodeInvalidPairing, "user "+userA+" is already paired")
	}
	if _, ok := r.byUser[userB]; ok {
		return nil, coreError(ErrCodeInvalidPairing, "user "+userB+" is already paired")
	}

	session := &Session{
		ID:        uuid.NewString(),
		MemberA:   userA,
		MemberB:   userB,
		CreatedAt: r.now(),
	}
	r.sessions[session.ID] = session
	r.byUser[userA] = session.ID
	r.byUser[userB] = session.ID
	return session, nil
}

// SessionOf returns the live session the user belongs to, or nil.
func (r *SessionRegistry) SessionOf(userID string) *Session {
	id, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	return r.sessions[id]
}

// PartnerOf returns the other member of the user's session, or "".
func (r *SessionRegistry) PartnerOf(userID string) string {
	session := r.SessionOf(userID)
	if session == nil {
		return ""
	}
	return session.Partner(userID)
}

// Teardown removes the session and both member mappings. Idempotent.
func (r *SessionRegistry) Teardown(sessionID string) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.byUser, session.MemberA)
	delete(r.byUser, session.MemberB)
	delete(r.sessions, sessionID)
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	return len(r.sessions)
}
