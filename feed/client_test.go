package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWSSubscriberGoroutinesExitWithFeed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the feed immediately, as a dying backend would.
		c.Close()
	}))
	defer srv.Close()

	sub := &WSSubscriber{URL: "ws" + strings.TrimPrefix(srv.URL, "http")}
	// The context is never canceled; subscription goroutines must still
	// exit once the socket dies, or reconnect cycles pile them up.
	ctx := context.Background()

	before := runtime.NumGoroutine()
	for i := 0; i < 5; i++ {
		ch, err := sub.Subscribe(ctx, "Guardian001")
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		for range ch {
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before+2 {
		if time.Now().After(deadline) {
			t.Fatalf("goroutines leaked across subscribe cycles: before=%d now=%d",
				before, runtime.NumGoroutine())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
