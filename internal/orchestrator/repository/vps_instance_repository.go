package repository

import (
	"context"

	"golang-ea-automation/internal/entity"

	"gorm.io/gorm"
)

// VPSFilter narrows VPS listings.
type VPSFilter struct {
	AccountID *uint
	Status    entity.VPSStatus
}

// VPSInstanceRepository defines data access for VPS instances.
type VPSInstanceRepository interface {
	Create(ctx context.Context, vps *entity.VPSInstance) error
	FindByID(ctx context.Context, id uint) (*entity.VPSInstance, error)
	FindByAccountID(ctx context.Context, accountID uint) (*entity.VPSInstance, error)
	List(ctx context.Context, filter VPSFilter) ([]entity.VPSInstance, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) VPSInstanceRepository
}

// NewVPSInstanceRepository creates a new GORM-based VPS repository.
func NewVPSInstanceRepository(db *gorm.DB) VPSInstanceRepository {
	return &vpsInstanceRepository{db: db}
}

type vpsInstanceRepository struct {
	db *gorm.DB
}

func (r *vpsInstanceRepository) WithTx(tx *gorm.DB) VPSInstanceRepository {
	return &vpsInstanceRepository{db: tx}
}

// Create inserts a VPS. A second VPS for the same account yields ErrDuplicate.
func (r *vpsInstanceRepository) Create(ctx context.Context, vps *entity.VPSInstance) error {
	return translate(r.db.WithContext(ctx).Create(vps).Error)
}

func (r *vpsInstanceRepository) FindByID(ctx context.Context, id uint) (*entity.VPSInstance, error) {
	var vps entity.VPSInstance
	if err := r.db.WithContext(ctx).First(&vps, id).Error; err != nil {
		return nil, err
	}
	return &vps, nil
}

func (r *vpsInstanceRepository) FindByAccountID(ctx context.Context, accountID uint) (*entity.VPSInstance, error) {
	var vps entity.VPSInstance
	if err := r.db.WithContext(ctx).Where("mt5_account_id = ?", accountID).First(&vps).Error; err != nil {
		return nil, err
	}
	return &vps, nil
}

func (r *vpsInstanceRepository) List(ctx context.Context, filter VPSFilter) ([]entity.VPSInstance, error) {
	q := r.db.WithContext(ctx).Model(&entity.VPSInstance{})
	if filter.AccountID != nil {
		q = q.Where("mt5_account_id = ?", *filter.AccountID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var out []entity.VPSInstance
	err := q.Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *vpsInstanceRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, &entity.VPSInstance{}, id, fields)
}

func (r *vpsInstanceRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entity.VPSInstance{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
