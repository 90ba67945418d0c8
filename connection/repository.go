package connection

import (
	"context"
	"errors"

	"github.com/blindlink/guardian-connect-backend/db/model"
	"gorm.io/gorm"
)

// Repository is the gorm implementation of Store plus the read side used by
// the guardian dashboard. It is the only place raw rows are produced.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id uint) (*model.Connection, error) {
	var conn model.Connection
	if err := r.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// GetDetailed loads a single request enriched with the blind user's fields,
// as shown on the guardian's request detail view.
func (r *Repository) GetDetailed(ctx context.Context, id uint) (*model.Connection, error) {
	var conn model.Connection
	if err := r.db.WithContext(ctx).Preload("BlindUser").First(&conn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conn, nil
}

// FindActive returns the pending or accepted row for the pair, nil when
// there is none. Guardian ids are matched case-insensitively.
func (r *Repository) FindActive(ctx context.Context, blindID, guardianID string) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("blind_id = ? AND LOWER(guardian_id) = ? AND status IN ?",
			model.NormalizeBlindID(blindID), model.NormalizeGuardianID(guardianID),
			[]model.ConnectionStatus{model.StatusPending, model.StatusAccepted}).
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *Repository) FindAcceptedForBlind(ctx context.Context, blindID string) (*model.Connection, error) {
	var conn model.Connection
	err := r.db.WithContext(ctx).
		Where("blind_id = ? AND status = ?", model.NormalizeBlindID(blindID), model.StatusAccepted).
		Order("updated_at DESC").
		First(&conn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

// Create inserts a new pending row after re-checking the uniqueness
// invariant inside a transaction. The check-then-insert window is narrowed,
// not closed; the composite index keeps the pair queryable either way.
// A lost race returns the existing row alongside ErrDuplicateActiveRequest,
// the same contract as the lifecycle's pre-check.
func (r *Repository) Create(ctx context.Context, blindID, guardianID string) (*model.Connection, error) {
	conn := &model.Connection{
		BlindID:    model.NormalizeBlindID(blindID),
		GuardianID: guardianID,
		Status:     model.StatusPending,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Connection
		err := tx.Where("blind_id = ? AND LOWER(guardian_id) = ? AND status IN ?",
			conn.BlindID, model.NormalizeGuardianID(guardianID),
			[]model.ConnectionStatus{model.StatusPending, model.StatusAccepted}).
			First(&existing).Error
		if err == nil {
			*conn = existing
			return ErrDuplicateActiveRequest
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(conn).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateActiveRequest) {
			return conn, err
		}
		return nil, err
	}
	return conn, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uint, status model.ConnectionStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Connection{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPendingForGuardian returns the guardian's pending requests newest
// first, enriched with the blind user's public fields. Zero rows is an empty
// slice, not an error.
func (r *Repository) ListPendingForGuardian(ctx context.Context, guardianID string) ([]model.Connection, error) {
	conns := make([]model.Connection, 0)
	err := r.db.WithContext(ctx).
		Preload("BlindUser").
		Where("LOWER(guardian_id) = ? AND status = ?", model.NormalizeGuardianID(guardianID), model.StatusPending).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *Repository) ListAcceptedForGuardian(ctx context.Context, guardianID string) ([]model.Connection, error) {
	conns := make([]model.Connection, 0)
	err := r.db.WithContext(ctx).
		Preload("BlindUser").
		Where("LOWER(guardian_id) = ? AND status = ?", model.NormalizeGuardianID(guardianID), model.StatusAccepted).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *Repository) CountByGuardianAndStatus(ctx context.Context, guardianID string, status model.ConnectionStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Connection{}).
		Where("LOWER(guardian_id) = ? AND status = ?", model.NormalizeGuardianID(guardianID), status).
		Count(&count).Error
	return count, err
}
