package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/gorilla/websocket"
)

// HTTPFetcher polls the backend's pending-connections endpoint.
type HTTPFetcher struct {
	BaseURL string
	// AccessToken is sent as the accessToken cookie, matching the server's
	// authenticator.
	AccessToken string
	Client      *http.Client
}

func (f *HTTPFetcher) FetchPending(ctx context.Context, guardianID string) ([]model.Connection, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/connections/pending", nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: f.AccessToken})
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: fetch pending: unexpected status %d", resp.StatusCode)
	}
	rows := make([]model.Connection, 0)
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// WSSubscriber opens the backend's websocket change feed. The returned
// channel closes when the socket dies; the coordinator handles reconnects.
type WSSubscriber struct {
	// URL of the websocket endpoint, e.g. ws://host/ws/connections.
	URL         string
	AccessToken string
	Dialer      *websocket.Dialer
}

func (s *WSSubscriber) Subscribe(ctx context.Context, guardianID string) (<-chan connection.ChangeEvent, error) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	header.Set("Cookie", "accessToken="+s.AccessToken)
	conn, _, err := dialer.DialContext(ctx, s.URL, header)
	if err != nil {
		return nil, err
	}
	ch := make(chan connection.ChangeEvent)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			// Read loop ended on its own, the watcher must not outlive it.
		}
	}()
	go func() {
		defer close(ch)
		defer close(done)
		defer conn.Close()
		for {
			var ev connection.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
