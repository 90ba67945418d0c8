// Package connection owns the connection-request lifecycle between blind
// users and guardians: the repository over the connections table and the
// state machine that is the only writer of a request's status.
package connection

import (
	"context"

	"github.com/blindlink/guardian-connect-backend/db/model"
)

// Store is the persistence surface the lifecycle depends on. *Repository is
// the gorm-backed implementation.
type Store interface {
	Get(ctx context.Context, id uint) (*model.Connection, error)
	FindActive(ctx context.Context, blindID, guardianID string) (*model.Connection, error)
	FindAcceptedForBlind(ctx context.Context, blindID string) (*model.Connection, error)
	Create(ctx context.Context, blindID, guardianID string) (*model.Connection, error)
	UpdateStatus(ctx context.Context, id uint, status model.ConnectionStatus) error
}

// Directory resolves the two parties of a request and applies the
// guardian link on the blind user record.
type Directory interface {
	BlindUser(ctx context.Context, blindID string) (*model.BlindUser, error)
	Guardian(ctx context.Context, guardianID string) (*model.Guardian, error)
	LinkGuardian(ctx context.Context, blindID, guardianID string) error
}

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// ChangeEvent is a row-level change on the connections table, delivered
// at-least-once and unordered relative to reads.
type ChangeEvent struct {
	Op         Op               `json:"op"`
	Connection model.Connection `json:"connection"`
}

// CanTransition reports whether the state machine permits from -> to.
// pending -> accepted | rejected, accepted -> removed, nothing else.
func CanTransition(from, to model.ConnectionStatus) bool {
	switch from {
	case model.StatusPending:
		return to == model.StatusAccepted || to == model.StatusRejected
	case model.StatusAccepted:
		return to == model.StatusRemoved
	}
	return false
}
