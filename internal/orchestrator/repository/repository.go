package repository

import (
	"context"
	"errors"
	"strings"

	"golang-ea-automation/internal/entity"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

// ErrStaleState is returned by conditional writes when the row left the expected state.
var ErrStaleState = errors.New("repository: row changed concurrently")

// singleFlightIndexSQL backs the one-active-job-per-type rule at the storage level.
const singleFlightIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_automation_jobs_single_flight
ON automation_jobs (mt5_account_id, job_type) WHERE status IN ('pending', 'running')`

// Transactor runs fn inside a database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NewTransactor creates a GORM-based transactor.
func NewTransactor(db *gorm.DB) Transactor {
	return &transactor{db: db}
}

type transactor struct {
	db *gorm.DB
}

func (t *transactor) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

// AutoMigrate creates the orchestrator tables and indexes. Production schemas come from migrations/.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.TradingAccount{},
		&entity.VPSInstance{},
		&entity.AutomationJob{},
		&entity.Notification{},
	); err != nil {
		return err
	}
	return db.Exec(singleFlightIndexSQL).Error
}

// IsNotFound reports whether err means no row matched.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Join(ErrDuplicate, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func updateFields(ctx context.Context, db *gorm.DB, model interface{}, id uint, fields map[string]interface{}) error {
	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
