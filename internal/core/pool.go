package core

import "time"

// waitingEntry records a user seeking a partner and when it started waiting.
type waitingEntry struct {
	userID     string
	enqueuedAt time.Time
}

// WaitingPool holds users currently seeking a partner, oldest first.
// Selection is FIFO so pairing order is deterministic in tests.
// The pool is not safe for concurrent use; the hub run loop owns it.
type WaitingPool struct {
	entries []waitingEntry
	index   map[string]struct{}
	now     func() time.Time
}

// NewWaitingPool constructs an empty pool.
func NewWaitingPool() *WaitingPool {
	return &WaitingPool{
		index: make(map[string]struct{}),
		now:   time.Now,
	}
}

// Enqueue records the user as waiting. Returns false if already present.
func (p *WaitingPool) Enqueue(userID string) bool {
	if _, ok := p.index[userID]; ok {
		return false
	}
	p.entries = append(p.entries, waitingEntry{userID: userID, enqueuedAt: p.now()})
	p.index[userID] = struct{}{}
	return true
}

// DequeueAny removes and returns the oldest waiting user other than
// excluding. Returns "" if no eligible entry exists.
func (p *WaitingPool) DequeueAny(excluding string) string {
	for i, entry := range p.entries {
		if entry.userID == excluding {
			continue
		}
		p.entries = append(p.entries[:i], p.entries[i+1:]...)
		delete(p.index, entry.userID)
		return entry.userID
	}
	return ""
}

// Remove deletes the user from the pool. No-op if absent.
func (p *WaitingPool) Remove(userID string) {
	if _, ok := p.index[userID]; !ok {
		return
	}
	for i, entry := range p.entries {
		if entry.userID == userID {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	delete(p.index, userID)
}

// PurgeStale removes and returns all users waiting longer than maxAge.
// A non-positive maxAge disables purging.
func (p *WaitingPool) PurgeStale(maxAge time.Duration) []string {
	if maxAge <= 0 {
		return nil
	}
	cutoff := p.now().Add(-maxAge)

	var purged []string
	kept := p.entries[:0]
	for _, entry := range p.entries {
		if entry.enqueuedAt.Before(cutoff) {
			purged = append(purged, entry.userID)
			delete(p.index, entry.userID)
			continue
		}
		kept = append(kept, entry)
	}
	p.entries = kept
	return purged
}

// Contains reports whether the user is waiting.
func (p *WaitingPool) Contains(userID string) bool {
	_, ok := p.index[userID]
	return ok
}

// Len returns the number of waiting users.
func (p *WaitingPool) Len() int {
	return len(p.entries)
}
