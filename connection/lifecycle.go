package connection

import (
	"context"
	"log"

	"github.com/blindlink/guardian-connect-backend/db/model"
)

// Lifecycle enforces the request state machine and the cross-entity side
// effect of an acceptance. It is the sole writer of a connection's status.
type Lifecycle struct {
	store  Store
	dir    Directory
	logger *log.Logger
}

func NewLifecycle(store Store, dir Directory, logger *log.Logger) *Lifecycle {
	return &Lifecycle{store: store, dir: dir, logger: logger}
}

// RequestConnection validates both parties and creates a pending request.
// When an active row already exists for the pair it is returned alongside
// ErrDuplicateActiveRequest so callers can tell pending from accepted.
func (l *Lifecycle) RequestConnection(ctx context.Context, blindID, guardianID string) (*model.Connection, error) {
	if _, err := l.dir.BlindUser(ctx, blindID); err != nil {
		return nil, err
	}
	g, err := l.dir.Guardian(ctx, guardianID)
	if err != nil {
		return nil, err
	}
	existing, err := l.store.FindActive(ctx, blindID, g.GuardianID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrDuplicateActiveRequest
	}
	return l.store.Create(ctx, blindID, g.GuardianID)
}

// Decide settles a pending request. Accepting additionally links the
// guardian on the blind user record; that second step is outside any
// transaction, so its failure leaves an accepted-but-unlinked state which
// RepairLink fixes on the next read.
func (l *Lifecycle) Decide(ctx context.Context, id uint, decision model.ConnectionStatus) (*model.Connection, error) {
	if decision != model.StatusAccepted && decision != model.StatusRejected {
		return nil, ErrInvalidTransition
	}
	conn, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(conn.Status, decision) {
		return nil, ErrInvalidTransition
	}
	if err := l.store.UpdateStatus(ctx, id, decision); err != nil {
		return nil, err
	}
	conn.Status = decision
	if decision == model.StatusAccepted {
		if err := l.dir.LinkGuardian(ctx, conn.BlindID, conn.GuardianID); err != nil {
			l.logger.Printf("link guardian %s -> %s failed, deferring to repair-on-read: %v",
				conn.GuardianID, conn.BlindID, err)
		}
	}
	return conn, nil
}

// Remove retires an accepted connection. The blind user's guardian_id is
// left in place; a later accepted request overwrites it.
func (l *Lifecycle) Remove(ctx context.Context, id uint) (*model.Connection, error) {
	conn, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(conn.Status, model.StatusRemoved) {
		return nil, ErrInvalidTransition
	}
	if err := l.store.UpdateStatus(ctx, id, model.StatusRemoved); err != nil {
		return nil, err
	}
	conn.Status = model.StatusRemoved
	return conn, nil
}

// RepairLink completes the accept saga for a blind user whose accepted
// request never got its guardian link. Re-running it is a no-op.
func (l *Lifecycle) RepairLink(ctx context.Context, u *model.BlindUser) error {
	if u.GuardianID != "" {
		return nil
	}
	conn, err := l.store.FindAcceptedForBlind(ctx, u.BlindID)
	if err != nil || conn == nil {
		return err
	}
	if err := l.dir.LinkGuardian(ctx, u.BlindID, conn.GuardianID); err != nil {
		return err
	}
	u.GuardianID = conn.GuardianID
	return nil
}
