package dto

import (
	"encoding/json"
	"time"
)

// CreateJobRequest defines the request body for creating an automation job.
type CreateJobRequest struct {
	AccountID     uint            `json:"mt5_account_id"`
	JobType       string          `json:"job_type"`
	VPSInstanceID *uint           `json:"vps_instance_id,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// UpdateJobRequest defines the partial update of a job. Nil fields are left untouched.
type UpdateJobRequest struct {
	Status       *string `json:"status,omitempty"`
	Progress     *int    `json:"progress,omitempty"`
	Message      *string `json:"message,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// Empty reports whether the request carries no change.
func (r *UpdateJobRequest) Empty() bool {
	return r.Status == nil && r.Progress == nil && r.Message == nil && r.ErrorMessage == nil
}

// ListJobsRequest holds listing filters.
type ListJobsRequest struct {
	AccountID uint   `query:"mt5_account_id"`
	Status    string `query:"status"`
	JobType   string `query:"job_type"`
	Limit     int    `query:"limit"`
}

// JobResponse defines the response body for a job.
type JobResponse struct {
	ID            uint            `json:"id"`
	AccountID     uint            `json:"mt5_account_id"`
	VPSInstanceID *uint           `json:"vps_instance_id"`
	JobType       string          `json:"job_type"`
	Status        string          `json:"status"`
	Progress      int             `json:"progress"`
	Message       string          `json:"message,omitempty"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	StartedAt     *time.Time      `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at"`
	RetryCount    int             `json:"retry_count"`
	MaxRetries    int             `json:"max_retries"`
	CreatedBy     *uint           `json:"created_by"`
	Metadata      json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CancelJobResponse tells whether the job was cancelled or removed.
type CancelJobResponse struct {
	Success   bool   `json:"success"`
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}
