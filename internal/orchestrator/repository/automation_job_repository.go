package repository

import (
	"context"

	"golang-ea-automation/internal/entity"

	"gorm.io/gorm"
)

// JobFilter narrows job listings.
type JobFilter struct {
	AccountID   *uint
	Status      entity.JobStatus
	JobType     entity.JobType
	OwnerUserID *uint
	Limit       int
}

// AutomationJobRepository defines data access for automation jobs.
type AutomationJobRepository interface {
	Create(ctx context.Context, job *entity.AutomationJob) error
	FindByID(ctx context.Context, id uint) (*entity.AutomationJob, error)
	ExistsActive(ctx context.Context, accountID uint, jobType entity.JobType) (bool, error)
	List(ctx context.Context, filter JobFilter) ([]entity.AutomationJob, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdateFieldsIfStatus(ctx context.Context, id uint, expected entity.JobStatus, fields map[string]interface{}) error
	DeleteIfStatus(ctx context.Context, id uint, expected entity.JobStatus) error
	WithTx(tx *gorm.DB) AutomationJobRepository
}

// NewAutomationJobRepository creates a new GORM-based job repository.
func NewAutomationJobRepository(db *gorm.DB) AutomationJobRepository {
	return &automationJobRepository{db: db}
}

type automationJobRepository struct {
	db *gorm.DB
}

func (r *automationJobRepository) WithTx(tx *gorm.DB) AutomationJobRepository {
	return &automationJobRepository{db: tx}
}

// Create inserts a job. A second pending/running job of the same type yields ErrDuplicate.
func (r *automationJobRepository) Create(ctx context.Context, job *entity.AutomationJob) error {
	return translate(r.db.WithContext(ctx).Create(job).Error)
}

func (r *automationJobRepository) FindByID(ctx context.Context, id uint) (*entity.AutomationJob, error) {
	var job entity.AutomationJob
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ExistsActive reports whether a pending or running job of jobType exists for the account.
func (r *automationJobRepository) ExistsActive(ctx context.Context, accountID uint, jobType entity.JobType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.AutomationJob{}).
		Where("mt5_account_id = ? AND job_type = ? AND status IN ?", accountID, jobType, entity.ActiveJobStatuses).
		Count(&count).Error
	return count > 0, err
}

func (r *automationJobRepository) List(ctx context.Context, filter JobFilter) ([]entity.AutomationJob, error) {
	q := r.db.WithContext(ctx).Model(&entity.AutomationJob{})
	if filter.OwnerUserID != nil {
		q = q.Joins("JOIN mt5_accounts ON mt5_accounts.id = automation_jobs.mt5_account_id").
			Where("mt5_accounts.user_id = ?", *filter.OwnerUserID)
	}
	if filter.AccountID != nil {
		q = q.Where("automation_jobs.mt5_account_id = ?", *filter.AccountID)
	}
	if filter.Status != "" {
		q = q.Where("automation_jobs.status = ?", filter.Status)
	}
	if filter.JobType != "" {
		q = q.Where("automation_jobs.job_type = ?", filter.JobType)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var jobs []entity.AutomationJob
	err := q.Order("automation_jobs.created_at DESC, automation_jobs.id DESC").Find(&jobs).Error
	return jobs, err
}

func (r *automationJobRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return updateFields(ctx, r.db, &entity.AutomationJob{}, id, fields)
}

// UpdateFieldsIfStatus writes fields only while the job is still in expected.
func (r *automationJobRepository) UpdateFieldsIfStatus(ctx context.Context, id uint, expected entity.JobStatus, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&entity.AutomationJob{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// DeleteIfStatus removes the job only while it is still in expected.
func (r *automationJobRepository) DeleteIfStatus(ctx context.Context, id uint, expected entity.JobStatus) error {
	res := r.db.WithContext(ctx).Where("status = ?", expected).Delete(&entity.AutomationJob{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
