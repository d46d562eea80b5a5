package entity

import (
	"time"

	"gorm.io/datatypes"
)

// JobType is the kind of automation work.
type JobType string

const (
	JobTypeEADeploy       JobType = "ea_deploy"
	JobTypeEAConfigure    JobType = "ea_configure"
	JobTypeEAStart        JobType = "ea_start"
	JobTypeEAStop         JobType = "ea_stop"
	JobTypeStatusCheck    JobType = "status_check"
	JobTypeVPSHealthCheck JobType = "vps_health_check"
)

// JobTypes lists every valid job type.
var JobTypes = []JobType{
	JobTypeEADeploy, JobTypeEAConfigure, JobTypeEAStart, JobTypeEAStop, JobTypeStatusCheck, JobTypeVPSHealthCheck,
}

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

// JobStatus is the lifecycle of an automation job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// ActiveJobStatuses are the statuses covered by the one-active-job-per-type rule.
var ActiveJobStatuses = []JobStatus{JobStatusPending, JobStatusRunning}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// AutomationJob is a unit of automation work for one account.
type AutomationJob struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AccountID     uint           `gorm:"column:mt5_account_id;not null;index" json:"mt5_account_id"`
	VPSInstanceID *uint          `gorm:"column:vps_instance_id;index" json:"vps_instance_id"`
	JobType       JobType        `gorm:"type:varchar(30);not null" json:"job_type"`
	Status        JobStatus      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Progress      int            `gorm:"not null;default:0" json:"progress"`
	Message       string         `gorm:"type:text" json:"message"`
	ErrorMessage  string         `gorm:"type:text" json:"error_message"`
	StartedAt     *time.Time     `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	RetryCount    int            `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries    int            `gorm:"not null;default:3" json:"max_retries"`
	CreatedBy     *uint          `json:"created_by"`
	Metadata      datatypes.JSON `json:"metadata"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AutomationJob) TableName() string {
	return "automation_jobs"
}

// ClampProgress bounds p to [0, 100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
