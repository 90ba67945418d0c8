// Package feed keeps a guardian-scoped, eventually-consistent view of
// pending connection requests by merging two channels: a fixed-interval
// poll of the backend and the push feed of row-level change events.
package feed

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/blindlink/guardian-connect-backend/connection"
	"github.com/blindlink/guardian-connect-backend/db/model"
)

const (
	DefaultInterval = 10 * time.Second

	// Reconnect backoff bounds for the push subscription.
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Fetcher produces a full snapshot of the guardian's pending requests.
type Fetcher interface {
	FetchPending(ctx context.Context, guardianID string) ([]model.Connection, error)
}

// Subscriber opens the push feed for a guardian. The returned channel is
// closed by the implementation when the feed dies; the coordinator
// resubscribes with backoff.
type Subscriber interface {
	Subscribe(ctx context.Context, guardianID string) (<-chan connection.ChangeEvent, error)
}

// Coordinator owns the in-memory pending view. Poll snapshots are tagged
// with a monotonic version; push events older than the applied snapshot are
// discarded, so a stale push can never reintroduce rows a fresher poll
// removed. Duplicate events are no-ops (at-least-once delivery).
type Coordinator struct {
	guardianID string
	fetcher    Fetcher
	sub        Subscriber
	interval   time.Duration
	logger     *log.Logger

	mu         sync.Mutex
	rows       []model.Connection
	snapshotAt time.Time
	version    uint64

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	refresh   chan struct{}
}

type Config struct {
	GuardianID string
	Fetcher    Fetcher
	Subscriber Subscriber
	// Interval defaults to DefaultInterval.
	Interval time.Duration
	Logger   *log.Logger
}

func NewCoordinator(cfg *Config) *Coordinator {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		guardianID: cfg.GuardianID,
		fetcher:    cfg.Fetcher,
		sub:        cfg.Subscriber,
		interval:   interval,
		logger:     logger,
		rows:       make([]model.Connection, 0),
		refresh:    make(chan struct{}, 1),
	}
}

// Start performs the initial fetch, then runs the poll loop and the push
// subscription until Close or ctx cancellation.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	events := make(chan connection.ChangeEvent)
	go c.pump(ctx, events)
	go c.run(ctx, events)
	return nil
}

// Close tears down the poll loop and push subscription. Safe to call more
// than once; returns after the loops exit.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
	})
}

// Pending returns a copy of the current view, newest first.
func (c *Coordinator) Pending() []model.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Connection, len(c.rows))
	copy(out, c.rows)
	return out
}

func (c *Coordinator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Version reports how many poll snapshots have been applied.
func (c *Coordinator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Refresh re-fetches the whole pending list and replaces the view. The poll
// path always wins: it is the consistency backstop against missed or
// reordered push events.
func (c *Coordinator) Refresh(ctx context.Context) error {
	taken := time.Now()
	rows, err := c.fetcher.FetchPending(ctx, c.guardianID)
	if err != nil {
		return err
	}
	sortRows(rows)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
	c.snapshotAt = taken
	c.version++
	return nil
}

// Apply folds one push event into the view. The returned flag asks the run
// loop for a full refresh, used when an update arrives for a row the view
// has never seen (a missed insert).
func (c *Coordinator) Apply(ev connection.ChangeEvent) (refetch bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := ev.Connection
	if !row.UpdatedAt.IsZero() && row.UpdatedAt.Before(c.snapshotAt) {
		// Older than the displayed snapshot.
		return false
	}

	idx := -1
	for i := range c.rows {
		if c.rows[i].ID == row.ID {
			idx = i
			break
		}
	}

	if row.Status != model.StatusPending {
		if idx >= 0 {
			c.rows = append(c.rows[:idx], c.rows[idx+1:]...)
		}
		return false
	}

	switch {
	case idx >= 0:
		c.rows[idx] = row
	case ev.Op == connection.OpInsert:
		c.rows = append(c.rows, row)
		sortRows(c.rows)
	default:
		// Pending update for an unknown row: we missed its insert. No
		// partial patching, ask for a re-fetch instead.
		return true
	}
	return false
}

func (c *Coordinator) run(ctx context.Context, events <-chan connection.ChangeEvent) {
	defer close(c.done)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.logger.Printf("feed: poll failed for %s: %v", c.guardianID, err)
			}
		case <-c.refresh:
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				c.logger.Printf("feed: refetch failed for %s: %v", c.guardianID, err)
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if c.Apply(ev) {
				select {
				case c.refresh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// pump keeps the push subscription alive, forwarding events to the run loop
// and resubscribing with capped exponential backoff when the channel dies.
func (c *Coordinator) pump(ctx context.Context, out chan<- connection.ChangeEvent) {
	defer close(out)
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		ch, err := c.sub.Subscribe(ctx, c.guardianID)
		if err != nil {
			c.logger.Printf("feed: subscribe failed for %s: %v", c.guardianID, err)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff
	recv:
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					break recv
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
		// Channel closed, events may have been missed while down.
		select {
		case c.refresh <- struct{}{}:
		default:
		}
		if !sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func sortRows(rows []model.Connection) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}
