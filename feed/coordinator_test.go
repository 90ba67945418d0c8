package feed

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db/model"
)

type fakeFetcher struct {
	mu      sync.Mutex
	rows    []model.Connection
	fetches int
}

func (f *fakeFetcher) FetchPending(ctx context.Context, guardianID string) ([]model.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	out := make([]model.Connection, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeFetcher) set(rows []model.Connection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

type fakeSubscriber struct {
	mu         sync.Mutex
	subscribes int
	ch         chan connection.ChangeEvent
}

func (s *fakeSubscriber) Subscribe(ctx context.Context, guardianID string) (<-chan connection.ChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	s.ch = make(chan connection.ChangeEvent)
	return s.ch, nil
}

func pendingRow(id uint, blindID string, at time.Time) model.Connection {
	return model.Connection{
		ID:         id,
		BlindID:    blindID,
		GuardianID: "Guardian001",
		Status:     model.StatusPending,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func newTestCoordinator(f Fetcher) *Coordinator {
	return NewCoordinator(&Config{
		GuardianID: "Guardian001",
		Fetcher:    f,
		Subscriber: &fakeSubscriber{},
		Interval:   time.Hour,
		Logger:     log.New(io.Discard, "", 0),
	})
}

func TestRefreshReplacesView(t *testing.T) {
	base := time.Now()
	fetcher := &fakeFetcher{}
	fetcher.set([]model.Connection{
		pendingRow(1, "BLIND001", base.Add(-2*time.Minute)),
		pendingRow(2, "BLIND002", base.Add(-1*time.Minute)),
	})
	c := newTestCoordinator(fetcher)
	ctx := context.Background()

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	rows := c.Pending()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Newest first.
	if rows[0].ID != 2 || rows[1].ID != 1 {
		t.Errorf("expected order [2 1], got [%d %d]", rows[0].ID, rows[1].ID)
	}

	// The next poll wins wholesale, dropping everything the backend dropped.
	fetcher.set([]model.Connection{pendingRow(3, "BLIND003", base)})
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	rows = c.Pending()
	if len(rows) != 1 || rows[0].ID != 3 {
		t.Errorf("expected only row 3 after second poll, got %v", rows)
	}
	if c.Version() != 2 {
		t.Errorf("expected snapshot version 2, got %d", c.Version())
	}
}

func TestApplyInsert(t *testing.T) {
	c := newTestCoordinator(&fakeFetcher{})
	c.Refresh(context.Background())

	ev := connection.ChangeEvent{
		Op:         connection.OpInsert,
		Connection: pendingRow(1, "BLIND001", time.Now()),
	}
	if refetch := c.Apply(ev); refetch {
		t.Errorf("insert must not request a refetch")
	}
	if c.Count() != 1 {
		t.Fatalf("expected count 1, got %d", c.Count())
	}
	// At-least-once delivery: the duplicate is a no-op.
	c.Apply(ev)
	if c.Count() != 1 {
		t.Errorf("duplicate insert changed the view, count %d", c.Count())
	}
}

func TestApplyNonPendingInsertIgnored(t *testing.T) {
	c := newTestCoordinator(&fakeFetcher{})
	c.Refresh(context.Background())

	row := pendingRow(1, "BLIND001", time.Now())
	row.Status = model.StatusAccepted
	c.Apply(connection.ChangeEvent{Op: connection.OpInsert, Connection: row})
	if c.Count() != 0 {
		t.Errorf("non-pending insert must not enter the view")
	}
}

func TestApplyUpdateRemovesSettledRow(t *testing.T) {
	base := time.Now()
	fetcher := &fakeFetcher{}
	fetcher.set([]model.Connection{
		pendingRow(1, "BLIND001", base.Add(-time.Minute)),
		pendingRow(2, "BLIND002", base),
	})
	c := newTestCoordinator(fetcher)
	c.Refresh(context.Background())

	settled := pendingRow(1, "BLIND001", base.Add(-time.Minute))
	settled.Status = model.StatusAccepted
	settled.UpdatedAt = time.Now()
	if refetch := c.Apply(connection.ChangeEvent{Op: connection.OpUpdate, Connection: settled}); refetch {
		t.Errorf("known-row update must not request a refetch")
	}
	rows := c.Pending()
	if len(rows) != 1 || rows[0].ID != 2 {
		t.Errorf("expected only row 2 after accept event, got %v", rows)
	}
	// Replay of the same event is a no-op.
	c.Apply(connection.ChangeEvent{Op: connection.OpUpdate, Connection: settled})
	if c.Count() != 1 {
		t.Errorf("replayed event changed the view")
	}
}

func TestApplyUnknownPendingUpdateRequestsRefetch(t *testing.T) {
	c := newTestCoordinator(&fakeFetcher{})
	c.Refresh(context.Background())

	row := pendingRow(7, "BLIND007", time.Now())
	if refetch := c.Apply(connection.ChangeEvent{Op: connection.OpUpdate, Connection: row}); !refetch {
		t.Errorf("update for a never-seen pending row must request a refetch")
	}
	if c.Count() != 0 {
		t.Errorf("no partial patching: view must stay unchanged, count %d", c.Count())
	}
}

func TestStalePushDiscarded(t *testing.T) {
	base := time.Now()
	fetcher := &fakeFetcher{}
	fetcher.set([]model.Connection{pendingRow(1, "BLIND001", base.Add(-time.Hour))})
	c := newTestCoordinator(fetcher)
	ctx := context.Background()
	c.Refresh(ctx)

	// Backend settles row 1; the poll already reflects that.
	fetcher.set([]model.Connection{})
	c.Refresh(ctx)

	// A push insert from before the snapshot arrives late. Applying it would
	// reintroduce a settled row; the version tag discards it.
	stale := pendingRow(1, "BLIND001", base.Add(-time.Hour))
	c.Apply(connection.ChangeEvent{Op: connection.OpInsert, Connection: stale})
	if c.Count() != 0 {
		t.Errorf("stale push reintroduced a removed row")
	}

	// A push strictly newer than the snapshot still lands.
	fresh := pendingRow(2, "BLIND002", time.Now().Add(time.Second))
	fresh.UpdatedAt = time.Now().Add(time.Second)
	c.Apply(connection.ChangeEvent{Op: connection.OpInsert, Connection: fresh})
	if c.Count() != 1 {
		t.Errorf("fresh push after poll was dropped")
	}
}

func TestStartPollAndClose(t *testing.T) {
	base := time.Now()
	fetcher := &fakeFetcher{}
	fetcher.set([]model.Connection{pendingRow(1, "BLIND001", base)})
	sub := &fakeSubscriber{}
	c := NewCoordinator(&Config{
		GuardianID: "Guardian001",
		Fetcher:    fetcher,
		Subscriber: sub,
		Interval:   10 * time.Millisecond,
		Logger:     log.New(io.Discard, "", 0),
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if c.Count() != 1 {
		t.Fatalf("initial fetch missing, count %d", c.Count())
	}

	fetcher.set([]model.Connection{
		pendingRow(1, "BLIND001", base),
		pendingRow(2, "BLIND002", base.Add(time.Second)),
	})
	deadline := time.Now().Add(2 * time.Second)
	for c.Count() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("poll loop never picked up the new row")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Close()
	// Close is idempotent and the loops are down: further backend changes
	// must not be observed.
	fetcher.set([]model.Connection{})
	c.Close()
	time.Sleep(30 * time.Millisecond)
	if c.Count() != 2 {
		t.Errorf("coordinator kept polling after Close")
	}
}

func TestPushEventViaSubscription(t *testing.T) {
	fetcher := &fakeFetcher{}
	sub := &fakeSubscriber{}
	c := NewCoordinator(&Config{
		GuardianID: "Guardian001",
		Fetcher:    fetcher,
		Subscriber: sub,
		Interval:   time.Hour,
		Logger:     log.New(io.Discard, "", 0),
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer c.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		sub.mu.Lock()
		ch := sub.ch
		sub.mu.Unlock()
		if ch != nil {
			ch <- connection.ChangeEvent{
				Op:         connection.OpInsert,
				Connection: pendingRow(9, "BLIND009", time.Now().Add(time.Second)),
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscription never established")
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline = time.Now().Add(2 * time.Second)
	for c.Count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("push event never reached the view")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
