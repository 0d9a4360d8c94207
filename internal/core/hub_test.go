package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T, waitingTTL time.Duration) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(testLogger(), waitingTTL)
	go hub.Run(ctx)
	return hub
}

func hubStats(t *testing.T, hub *Hub) Stats {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats, err := hub.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	return stats
}

func join(c *Client, userID string) {
	c.Commands <- &Command{Kind: CommandJoin, UserID: userID}
}

func TestHubPairsTwoUsers(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)

	join(c2, "u2")
	start1 := mustEvent(t, c1.Events, EventChatStart)
	start2 := mustEvent(t, c2.Events, EventChatStart)

	if start1.SessionID == "" || start1.SessionID != start2.SessionID {
		t.Fatalf("members disagree on session id: %q vs %q", start1.SessionID, start2.SessionID)
	}
	if !start2.Initiator || start1.Initiator {
		t.Fatal("the joining user should be the initiator")
	}

	stats := hubStats(t, hub)
	if stats.Sessions != 1 || stats.Waiting != 0 {
		t.Fatalf("unexpected stats after pairing: %+v", stats)
	}
}

func TestHubLeaveNotifiesPartnerAndDropsStaleSignals(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	join(c2, "u2")
	start := mustEvent(t, c2.Events, EventChatStart)

	c1.Commands <- &Command{Kind: CommandLeave, UserID: "u1"}
	gone := mustEvent(t, c2.Events, EventPartnerDisconnected)
	if gone.SessionID != start.SessionID {
		t.Fatalf("partner_disconnected for wrong session: %q", gone.SessionID)
	}

	// A message referencing the dead session must be dropped silently.
	c1.Commands <- &Command{
		Kind:      CommandMessage,
		UserID:    "u1",
		SessionID: start.SessionID,
		Text:      "anyone there?",
	}
	mustNoEvent(t, c2.Events, EventMessage)

	stats := hubStats(t, hub)
	if stats.Sessions != 0 {
		t.Fatalf("session should be gone, stats: %+v", stats)
	}
}

func TestHubDuplicateJoinKeepsOnePoolEntry(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	hub.RegisterClient(c1)

	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)
	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)

	stats := hubStats(t, hub)
	if stats.Waiting != 1 {
		t.Fatalf("expected exactly one waiting entry, got %d", stats.Waiting)
	}
	if stats.Sessions != 0 {
		t.Fatalf("duplicate join must not create a session, stats: %+v", stats)
	}
}

func TestHubRejoinWhilePairedEndsOldSession(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	join(c2, "u2")
	mustEvent(t, c1.Events, EventChatStart)

	join(c1, "u1")
	mustEvent(t, c2.Events, EventPartnerDisconnected)
	mustEvent(t, c1.Events, EventWaiting)

	stats := hubStats(t, hub)
	if stats.Sessions != 0 || stats.Waiting != 1 {
		t.Fatalf("expected u1 waiting alone, stats: %+v", stats)
	}
}

func TestHubRelayIsPartnerExclusive(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	join(c2, "u2")
	mustEvent(t, c1.Events, EventChatStart)

	offer := json.RawMessage(`{"sdp":"v=0"}`)
	c1.Commands <- &Command{Kind: CommandOffer, UserID: "u1", Blob: offer}

	got := mustEvent(t, c2.Events, EventOffer)
	if got.From != "u1" || string(got.Blob) != string(offer) {
		t.Fatalf("unexpected relayed offer: %+v", got)
	}
	// Never echoed back to the sender.
	mustNoEvent(t, c1.Events, EventOffer)
}

func TestHubSignalWithoutSessionIsDropped(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)

	c2.Commands <- &Command{Kind: CommandMessage, UserID: "u2", Text: "hello?"}
	mustNoEvent(t, c1.Events, EventMessage)
}

func TestHubSignalWithMismatchedSessionIsDropped(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	join(c2, "u2")
	mustEvent(t, c1.Events, EventChatStart)

	c1.Commands <- &Command{
		Kind:      CommandMessage,
		UserID:    "u1",
		SessionID: "not-the-live-session",
		Text:      "hi",
	}
	mustNoEvent(t, c2.Events, EventMessage)
}

func TestHubDisconnectBehavesLikeLeave(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	join(c2, "u2")
	mustEvent(t, c1.Events, EventChatStart)

	hub.UnregisterClient(c1)
	mustEvent(t, c2.Events, EventPartnerDisconnected)

	stats := hubStats(t, hub)
	if stats.Sessions != 0 || stats.Clients != 1 {
		t.Fatalf("unexpected stats after disconnect: %+v", stats)
	}
}

func TestHubDisconnectOfWaitingUserEmptiesPool(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	hub.RegisterClient(c1)
	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)

	hub.UnregisterClient(c1)

	stats := hubStats(t, hub)
	if stats.Waiting != 0 {
		t.Fatalf("waiting pool should be empty, stats: %+v", stats)
	}
}

func TestHubStaleWaitingUserIsPurged(t *testing.T) {
	hub := startHub(t, 50*time.Millisecond)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)

	time.Sleep(120 * time.Millisecond)

	// u1 is stale by now, so u2 must not be paired with it.
	join(c2, "u2")
	mustEvent(t, c2.Events, EventWaiting)

	stats := hubStats(t, hub)
	if stats.Sessions != 0 || stats.Waiting != 1 {
		t.Fatalf("expected only u2 waiting, stats: %+v", stats)
	}
}

func TestHubConcurrentJoinsFormExactlyOneSession(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	c2 := NewClient("conn-2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	done := make(chan struct{}, 2)
	go func() {
		join(c1, "u1")
		done <- struct{}{}
	}()
	go func() {
		join(c2, "u2")
		done <- struct{}{}
	}()
	<-done
	<-done

	start1 := mustEvent(t, c1.Events, EventChatStart)
	start2 := mustEvent(t, c2.Events, EventChatStart)
	if start1.SessionID != start2.SessionID {
		t.Fatalf("members disagree on session id: %q vs %q", start1.SessionID, start2.SessionID)
	}

	stats := hubStats(t, hub)
	if stats.Sessions != 1 || stats.Waiting != 0 {
		t.Fatalf("expected exactly one session, stats: %+v", stats)
	}
}

func TestHubJoinUnderNewIdentityReleasesOld(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	hub.RegisterClient(c1)

	// One connection cycling through identities must never pair its own
	// aliases or leave more than one of them behind.
	join(c1, "u1")
	mustEvent(t, c1.Events, EventWaiting)
	join(c1, "u2")
	mustEvent(t, c1.Events, EventWaiting)
	mustNoEvent(t, c1.Events, EventChatStart)

	stats := hubStats(t, hub)
	if stats.Sessions != 0 || stats.Waiting != 1 {
		t.Fatalf("expected only the latest identity waiting, stats: %+v", stats)
	}
}

func TestHubMultiIdentityDisconnectLeavesNothingBehind(t *testing.T) {
	hub := startHub(t, 0)

	c1 := NewClient("conn-1")
	hub.RegisterClient(c1)

	join(c1, "u1")
	join(c1, "u2")
	join(c1, "u3")
	mustEvent(t, c1.Events, EventWaiting)

	hub.UnregisterClient(c1)

	stats := hubStats(t, hub)
	if stats.Sessions != 0 || stats.Waiting != 0 || stats.Clients != 0 {
		t.Fatalf("disconnect should erase every identity, stats: %+v", stats)
	}

	// Traffic under one of the dead identities must be dropped and the
	// hub must keep serving afterwards.
	c2 := NewClient("conn-2")
	hub.RegisterClient(c2)
	c2.Commands <- &Command{Kind: CommandMessage, UserID: "u1", Text: "still there?"}
	mustNoEvent(t, c2.Events, EventMessage)

	join(c2, "u9")
	mustEvent(t, c2.Events, EventWaiting)

	stats = hubStats(t, hub)
	if stats.Waiting != 1 || stats.Clients != 1 {
		t.Fatalf("hub should still be serving, stats: %+v", stats)
	}
}

func TestHubReconnectOverwritesStaleHandle(t *testing.T) {
	hub := startHub(t, 0)

	old := NewClient("conn-old")
	fresh := NewClient("conn-new")
	partner := NewClient("conn-p")
	hub.RegisterClient(old)
	hub.RegisterClient(fresh)
	hub.RegisterClient(partner)

	join(old, "u1")
	mustEvent(t, old.Events, EventWaiting)

	// Same user comes back on a new connection, then gets paired.
	join(fresh, "u1")
	mustEvent(t, fresh.Events, EventWaiting)
	join(partner, "u2")
	mustEvent(t, fresh.Events, EventChatStart)

	// Closing the stale connection must not end the current session.
	hub.UnregisterClient(old)
	mustNoEvent(t, fresh.Events, EventPartnerDisconnected)

	stats := hubStats(t, hub)
	if stats.Sessions != 1 {
		t.Fatalf("session should survive stale disconnect, stats: %+v", stats)
	}
}
