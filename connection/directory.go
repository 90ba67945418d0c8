package connection

import (
	"context"
	"errors"

	"github.com/blindlink/guardian-connect-backend/db/model"
	"gorm.io/gorm"
)

// GormDirectory resolves blind users and guardians against the users tables.
type GormDirectory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) BlindUser(ctx context.Context, blindID string) (*model.BlindUser, error) {
	var u model.BlindUser
	err := d.db.WithContext(ctx).
		Where("blind_id = ?", model.NormalizeBlindID(blindID)).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBlindUser
		}
		return nil, err
	}
	return &u, nil
}

func (d *GormDirectory) Guardian(ctx context.Context, guardianID string) (*model.Guardian, error) {
	var g model.Guardian
	err := d.db.WithContext(ctx).
		Where("LOWER(guardian_id) = ?", model.NormalizeGuardianID(guardianID)).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownGuardian
		}
		return nil, err
	}
	return &g, nil
}

// LinkGuardian is a plain field assignment and safe to re-run, which is what
// makes the accept saga's repair step idempotent.
func (d *GormDirectory) LinkGuardian(ctx context.Context, blindID, guardianID string) error {
	res := d.db.WithContext(ctx).Model(&model.BlindUser{}).
		Where("blind_id = ?", model.NormalizeBlindID(blindID)).
		Update("guardian_id", guardianID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUnknownBlindUser
	}
	return nil
}
