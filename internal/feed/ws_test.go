package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// validTestMint is 32 bytes base58-encoded (the wrapped SOL mint).
const validTestMint = "So11111111111111111111111111111111111111112"

func newTokenServer(t *testing.T, events []newTokenMessage) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		// Read subscribe request
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]string
		if err := json.Unmarshal(msg, &req); err != nil || req["method"] != "subscribeNewToken" {
			t.Errorf("unexpected subscribe request: %s", msg)
			return
		}

		for _, e := range events {
			if err := c.WriteJSON(e); err != nil {
				return
			}
		}

		// Keep connection open
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsAddr(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestListener_EmitsCreateEvents(t *testing.T) {
	server := newTokenServer(t, []newTokenMessage{
		{TxType: "create", Mint: validTestMint, Symbol: "NEW"},
		{TxType: "trade", Mint: validTestMint, Symbol: "IGNORED"},
	})
	defer server.Close()

	l, err := NewListener(context.Background(), wsAddr(server), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer l.Close()

	select {
	case asset := <-l.Assets():
		if asset.Mint != validTestMint || asset.Symbol != "NEW" {
			t.Errorf("asset = %+v", asset)
		}
		if asset.CreatedAt.IsZero() {
			t.Error("CreatedAt not set")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no asset received")
	}

	// The trade event must not come through.
	select {
	case asset := <-l.Assets():
		t.Errorf("unexpected second asset: %+v", asset)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestListener_RejectsInvalidMint(t *testing.T) {
	server := newTokenServer(t, []newTokenMessage{
		{TxType: "create", Mint: "not-base58-0OIl", Symbol: "BAD"},
		{TxType: "create", Mint: validTestMint, Symbol: "GOOD"},
	})
	defer server.Close()

	l, err := NewListener(context.Background(), wsAddr(server), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer l.Close()

	select {
	case asset := <-l.Assets():
		if asset.Symbol != "GOOD" {
			t.Errorf("invalid mint passed through: %+v", asset)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no asset received")
	}
}

func TestListener_ReconnectsAfterDrop(t *testing.T) {
	var mu sync.Mutex
	conns := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		// Read subscribe request
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}

		mu.Lock()
		conns++
		first := conns == 1
		mu.Unlock()

		// Drop the first connection right after the subscribe.
		if first {
			return
		}

		if err := c.WriteJSON(newTokenMessage{TxType: "create", Mint: validTestMint, Symbol: "BACK"}); err != nil {
			return
		}
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := DefaultListenerConfig()
	cfg.ReconnectDelay = 50 * time.Millisecond
	cfg.MaxReconnectDelay = 200 * time.Millisecond

	l, err := NewListener(context.Background(), wsAddr(server), &cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	defer l.Close()

	select {
	case asset := <-l.Assets():
		if asset.Symbol != "BACK" {
			t.Errorf("asset = %+v", asset)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no asset after reconnect")
	}

	mu.Lock()
	defer mu.Unlock()
	if conns < 2 {
		t.Errorf("connections = %d, want at least 2", conns)
	}
}

func TestListener_CloseIsIdempotent(t *testing.T) {
	server := newTokenServer(t, nil)
	defer server.Close()

	l, err := NewListener(context.Background(), wsAddr(server), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}

	if err := l.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	// Channel is closed after shutdown.
	if _, ok := <-l.Assets(); ok {
		t.Error("asset channel not closed")
	}
}

func TestValidMint(t *testing.T) {
	cases := []struct {
		mint string
		want bool
	}{
		{validTestMint, true},
		{"", false},
		{"abc", false},
		{"0OIl+/=", false},
	}
	for _, tc := range cases {
		if got := ValidMint(tc.mint); got != tc.want {
			t.Errorf("ValidMint(%q) = %v, want %v", tc.mint, got, tc.want)
		}
	}
}
