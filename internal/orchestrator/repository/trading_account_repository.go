package repository

import (
	"context"

	"golang-ea-automation/internal/entity"

	"gorm.io/gorm"
)

// AccountFilter narrows account listings.
type AccountFilter struct {
	UserID *uint
	Status entity.AccountStatus
	Limit  int
}

// TradingAccountRepository defines data access for trading accounts.
type TradingAccountRepository interface {
	Create(ctx context.Context, account *entity.TradingAccount) error
	FindByID(ctx context.Context, id uint) (*entity.TradingAccount, error)
	FindByNumberAndServer(ctx context.Context, accountNumber, server string) (*entity.TradingAccount, error)
	FindActive(ctx context.Context) ([]entity.TradingAccount, error)
	List(ctx context.Context, filter AccountFilter) ([]entity.TradingAccount, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	WithTx(tx *gorm.DB) TradingAccountRepository
}

// NewTradingAccountRepository creates a new GORM-based account repository.
func NewTradingAccountRepository(db *gorm.DB) TradingAccountRepository {
	return &tradingAccountRepository{db: db}
}

type tradingAccountRepository struct {
	db *gorm.DB
}

func (r *tradingAccountRepository) WithTx(tx *gorm.DB) TradingAccountRepository {
	return &tradingAccountRepository{db: tx}
}

func (r *tradingAccountRepository) Create(ctx context.Context, account *entity.TradingAccount) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *tradingAccountRepository) FindByID(ctx context.Context, id uint) (*entity.TradingAccount, error) {
	var account entity.TradingAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *tradingAccountRepository) FindByNumberAndServer(ctx context.Context, accountNumber, server string) (*entity.TradingAccount, error) {
	var account entity.TradingAccount
	err := r.db.WithContext(ctx).
		Where("account_number = ? AND server = ?", accountNumber, server).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindActive returns every approved account, oldest first.
func (r *tradingAccountRepository) FindActive(ctx context.Context) ([]entity.TradingAccount, error) {
	var accounts []entity.TradingAccount
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.AccountStatusActive).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *tradingAccountRepository) List(ctx context.Context, filter AccountFilter) ([]entity.TradingAccount, error) {
	q := r.db.WithContext(ctx).Model(&entity.TradingAccount{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var accounts []entity.TradingAccount
	err := q.Order("created_at DESC, id DESC").Find(&accounts).Error
	return accounts, err
}

func (r *tradingAccountRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, &entity.TradingAccount{}, id, fields)
}
