package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/pairchat-server/internal/config"
	"github.com/vovakirdan/pairchat-server/internal/proto"
)

func TestRateLimiterZeroDisablesCap(t *testing.T) {
	limiter := newRateLimiter(0)

	for i := 0; i < 1000; i++ {
		if !limiter.allow() {
			t.Fatalf("zero limit should never deny, denied at event %d", i)
		}
	}
}

func TestRateLimiterNilIsPermissive(t *testing.T) {
	var limiter *rateLimiter
	if !limiter.allow() {
		t.Fatal("nil limiter should allow")
	}
}

func TestRateLimiterDeniesOverLimit(t *testing.T) {
	limiter := newRateLimiter(2)

	if !limiter.allow() || !limiter.allow() {
		t.Fatal("events within the limit should be allowed")
	}
	if limiter.allow() {
		t.Fatal("event over the limit should be denied")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := newRateLimiter(1)

	if !limiter.allow() {
		t.Fatal("first event should be allowed")
	}
	if limiter.allow() {
		t.Fatal("second event in the same window should be denied")
	}

	limiter.windowStart = time.Now().Add(-2 * time.Minute)
	if !limiter.allow() {
		t.Fatal("event in a fresh window should be allowed")
	}
}

func TestWebSocketRateLimitedEvent(t *testing.T) {
	ts := startTestServerWithConfig(t, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		EventRateLimit:    1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts)

	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: "u1"})
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{UserID: "u1"})

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read: %v", err)
		}
		if outbound.Type == proto.OutboundTypeError {
			if outbound.Error == nil || outbound.Error.Code != "rate_limited" {
				t.Fatalf("expected rate_limited, got %+v", outbound.Error)
			}
			return
		}
	}
}
