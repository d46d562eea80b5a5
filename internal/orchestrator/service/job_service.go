package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/internal/orchestrator/strategy"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/common"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/lock"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const jobComponent = "jobs"

// JobService manages automation jobs.
type JobService interface {
	CreateJob(ctx context.Context, req *dto.CreateJobRequest, createdBy uint) (*dto.JobResponse, error)
	GetJobByID(ctx context.Context, id uint, requester auth.Principal) (*dto.JobResponse, error)
	ListJobs(ctx context.Context, req *dto.ListJobsRequest, requester auth.Principal) ([]*dto.JobResponse, error)
	UpdateJob(ctx context.Context, id uint, req *dto.UpdateJobRequest) (*dto.JobResponse, error)
	CancelOrDeleteJob(ctx context.Context, id uint) (*dto.CancelJobResponse, error)
	RunJob(ctx context.Context, id uint) (*dto.JobResponse, error)
}

// NewJobService creates a new job service.
func NewJobService(
	tx repository.Transactor,
	jobRepo repository.AutomationJobRepository,
	accountRepo repository.TradingAccountRepository,
	vpsRepo repository.VPSInstanceRepository,
	locker lock.Locker,
	dispatcher Dispatcher,
	strategies []strategy.JobExecutionStrategy,
	opts Options,
	logger *logger.Logger,
) JobService {
	byType := make(map[entity.JobType]strategy.JobExecutionStrategy, len(strategies))
	for _, s := range strategies {
		byType[s.GetType()] = s
	}
	return &jobService{
		tx:          tx,
		jobRepo:     jobRepo,
		accountRepo: accountRepo,
		vpsRepo:     vpsRepo,
		locker:      locker,
		dispatcher:  dispatcher,
		strategies:  byType,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

type jobService struct {
	tx          repository.Transactor
	jobRepo     repository.AutomationJobRepository
	accountRepo repository.TradingAccountRepository
	vpsRepo     repository.VPSInstanceRepository
	locker      lock.Locker
	dispatcher  Dispatcher
	strategies  map[entity.JobType]strategy.JobExecutionStrategy
	opts        Options
	logger      *logger.Logger
}

func activeJobConflict(jobType entity.JobType) string {
	return fmt.Sprintf("A %s job is already pending or running for this account", jobType)
}

// CreateJob inserts a pending job. At most one pending or running job of a type exists per account.
func (s *jobService) CreateJob(ctx context.Context, req *dto.CreateJobRequest, createdBy uint) (*dto.JobResponse, error) {
	jobType := entity.JobType(strings.TrimSpace(req.JobType))
	if req.AccountID == 0 || jobType == "" {
		return nil, errs.Validation(jobComponent, "mt5_account_id", "MT5 account ID and job type are required")
	}
	if !jobType.Valid() {
		names := make([]string, 0, len(entity.JobTypes))
		for _, t := range entity.JobTypes {
			names = append(names, string(t))
		}
		return nil, errs.Validation(jobComponent, "job_type", "Invalid job type. Must be one of: "+strings.Join(names, ", "))
	}
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return nil, errs.Validation(jobComponent, "metadata", "metadata must be valid JSON")
	}

	account, err := s.accountRepo.FindByID(ctx, req.AccountID)
	if err != nil {
		return nil, lookupError(jobComponent, err, "MT5 account not found")
	}

	vpsID, err := s.resolveVPS(ctx, account.ID, req.VPSInstanceID)
	if err != nil {
		return nil, err
	}

	release, err := acquire(ctx, s.locker, common.JobLockKey(account.ID, string(jobType)), s.opts.LockWait, jobComponent, activeJobConflict(jobType))
	if err != nil {
		return nil, err
	}
	defer release()

	job := &entity.AutomationJob{
		AccountID:     account.ID,
		VPSInstanceID: vpsID,
		JobType:       jobType,
		Status:        entity.JobStatusPending,
		MaxRetries:    s.opts.MaxRetries,
		CreatedBy:     optionalID(createdBy),
	}
	if len(req.Metadata) > 0 {
		job.Metadata = datatypes.JSON(req.Metadata)
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		exists, err := jobs.ExistsActive(ctx, account.ID, jobType)
		if err != nil {
			return err
		}
		if exists {
			return errs.Conflict(jobComponent, activeJobConflict(jobType))
		}
		return jobs.Create(ctx, job)
	})
	if err != nil {
		return nil, storeError(jobComponent, err, activeJobConflict(jobType))
	}

	s.logger.Info("Automation job created",
		logger.Field("job_id", job.ID),
		logger.Field("account_id", account.ID),
		logger.StringField("job_type", string(jobType)))
	return mapToJobResponse(job), nil
}

// resolveVPS checks an explicit VPS id or falls back to the account's VPS when it has one.
func (s *jobService) resolveVPS(ctx context.Context, accountID uint, requested *uint) (*uint, error) {
	if requested != nil {
		vps, err := s.vpsRepo.FindByID(ctx, *requested)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, errs.Validation(jobComponent, "vps_instance_id", "VPS instance not found")
			}
			return nil, errs.Internal(jobComponent, err)
		}
		if vps.AccountID != accountID {
			return nil, errs.Validation(jobComponent, "vps_instance_id", "VPS instance does not belong to this MT5 account")
		}
		return &vps.ID, nil
	}

	vps, err := s.vpsRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, errs.Internal(jobComponent, err)
	}
	return &vps.ID, nil
}

// GetJobByID returns a job. Non-admins only see jobs of their own accounts.
func (s *jobService) GetJobByID(ctx context.Context, id uint, requester auth.Principal) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(jobComponent, err, "Job not found")
	}
	if !requester.IsAdmin() {
		account, err := s.accountRepo.FindByID(ctx, job.AccountID)
		if err != nil || account.UserID != requester.UserID {
			return nil, errs.NotFound(jobComponent, "Job not found")
		}
	}
	return mapToJobResponse(job), nil
}

// ListJobs lists jobs newest first.
func (s *jobService) ListJobs(ctx context.Context, req *dto.ListJobsRequest, requester auth.Principal) ([]*dto.JobResponse, error) {
	filter := repository.JobFilter{
		AccountID: optionalID(req.AccountID),
		Status:    entity.JobStatus(req.Status),
		JobType:   entity.JobType(req.JobType),
		Limit:     req.Limit,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, errs.Validation(jobComponent, "status", "Invalid status")
	}
	if filter.JobType != "" && !filter.JobType.Valid() {
		return nil, errs.Validation(jobComponent, "job_type", "Invalid job type")
	}
	if filter.Limit <= 0 {
		filter.Limit = common.DefaultJobListLimit
	}
	if filter.Limit > common.MaxJobListLimit {
		filter.Limit = common.MaxJobListLimit
	}
	if !requester.IsAdmin() {
		owner := requester.UserID
		filter.OwnerUserID = &owner
	}

	jobs, err := s.jobRepo.List(ctx, filter)
	if err != nil {
		return nil, errs.Internal(jobComponent, err)
	}

	out := make([]*dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, mapToJobResponse(&jobs[i]))
	}
	return out, nil
}

// UpdateJob applies a partial update. Status changes go through the job state machine.
func (s *jobService) UpdateJob(ctx context.Context, id uint, req *dto.UpdateJobRequest) (*dto.JobResponse, error) {
	if req.Empty() {
		return nil, errs.Validation(jobComponent, "", "No updates provided")
	}

	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(jobComponent, err, "Job not found")
	}

	now := utils.TimeNowUTC()
	fields := map[string]interface{}{}

	if req.Status != nil {
		target := entity.JobStatus(*req.Status)
		if !target.Valid() {
			return nil, errs.Validation(jobComponent, "status", "Invalid status")
		}
		if target != job.Status {
			ev, ok := entity.JobEventFor(target)
			if !ok {
				return nil, transitionError(jobComponent, &entity.IllegalTransitionError{Machine: "job", From: string(job.Status), Event: "reset"})
			}
			next, err := entity.TransitionJob(job.Status, ev)
			if err != nil {
				return nil, transitionError(jobComponent, err)
			}
			fields["status"] = next
			if next == entity.JobStatusRunning && job.StartedAt == nil {
				fields["started_at"] = now
			}
			if next.Terminal() {
				fields["completed_at"] = now
			}
		} else if job.Status.Terminal() {
			return nil, transitionError(jobComponent, &entity.IllegalTransitionError{Machine: "job", From: string(job.Status), Event: string(target)})
		}
	}
	if req.Progress != nil {
		fields["progress"] = entity.ClampProgress(*req.Progress)
	}
	if req.Message != nil {
		fields["message"] = *req.Message
	}
	if req.ErrorMessage != nil {
		fields["error_message"] = *req.ErrorMessage
	}

	if len(fields) > 0 {
		if err := s.jobRepo.UpdateFieldsIfStatus(ctx, job.ID, job.Status, fields); err != nil {
			return nil, storeError(jobComponent, err, "Job update conflicts with another active job")
		}
	}

	updated, err := s.jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		return nil, errs.Internal(jobComponent, err)
	}
	s.logger.Info("Automation job updated", logger.Field("job_id", job.ID), logger.StringField("status", string(updated.Status)))
	return mapToJobResponse(updated), nil
}

// CancelOrDeleteJob cancels a running job and deletes any other.
func (s *jobService) CancelOrDeleteJob(ctx context.Context, id uint) (*dto.CancelJobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(jobComponent, err, "Job not found")
	}

	if job.Status == entity.JobStatusRunning {
		next, err := entity.TransitionJob(job.Status, entity.JobEventCancel)
		if err != nil {
			return nil, transitionError(jobComponent, err)
		}
		err = s.jobRepo.UpdateFieldsIfStatus(ctx, job.ID, job.Status, map[string]interface{}{
			"status":       next,
			"completed_at": utils.TimeNowUTC(),
			"message":      "Cancelled by admin",
		})
		if err != nil {
			return nil, storeError(jobComponent, err, staleStateMessage)
		}
		s.logger.Info("Automation job cancelled", logger.Field("job_id", job.ID))
		return &dto.CancelJobResponse{Success: true, Cancelled: true, Message: "Job cancelled"}, nil
	}

	if err := s.jobRepo.DeleteIfStatus(ctx, job.ID, job.Status); err != nil {
		return nil, storeError(jobComponent, err, staleStateMessage)
	}
	s.logger.Info("Automation job deleted", logger.Field("job_id", job.ID))
	return &dto.CancelJobResponse{Success: true, Cancelled: false, Message: "Job deleted"}, nil
}

// RunJob executes a pending job in-process when a strategy exists for its type.
func (s *jobService) RunJob(ctx context.Context, id uint) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(jobComponent, err, "Job not found")
	}

	exec, ok := s.strategies[job.JobType]
	if !ok {
		return nil, errs.Validation(jobComponent, "job_type", fmt.Sprintf("%s jobs are driven externally and cannot be run here", job.JobType))
	}
	if job.Status != entity.JobStatusPending {
		return nil, errs.Conflict(jobComponent, fmt.Sprintf("Job is %s, only pending jobs can be run", job.Status))
	}

	running, err := entity.TransitionJob(job.Status, entity.JobEventStart)
	if err != nil {
		return nil, transitionError(jobComponent, err)
	}
	err = s.jobRepo.UpdateFieldsIfStatus(ctx, job.ID, entity.JobStatusPending, map[string]interface{}{
		"status":     running,
		"started_at": utils.TimeNowUTC(),
		"progress":   10,
		"message":    "Running",
	})
	if err != nil {
		return nil, storeError(jobComponent, err, staleStateMessage)
	}
	job.Status = running

	execCtx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	output, execErr := exec.Execute(execCtx, job)
	cancel()

	if execErr != nil {
		if err := s.finishFailed(ctx, job, execErr); err != nil {
			return nil, err
		}
	} else if err := s.finishCompleted(ctx, job, output); err != nil {
		return nil, err
	}

	updated, err := s.jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		return nil, errs.Internal(jobComponent, err)
	}
	return mapToJobResponse(updated), nil
}

// finishCompleted records output on a job that is still running. A job cancelled meanwhile keeps its state.
func (s *jobService) finishCompleted(ctx context.Context, job *entity.AutomationJob, output string) error {
	done, err := entity.TransitionJob(job.Status, entity.JobEventComplete)
	if err != nil {
		return transitionError(jobComponent, err)
	}
	err = s.jobRepo.UpdateFieldsIfStatus(ctx, job.ID, job.Status, map[string]interface{}{
		"status":       done,
		"progress":     100,
		"message":      output,
		"completed_at": utils.TimeNowUTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			s.logger.Warn("Automation job changed while running, result discarded", logger.Field("job_id", job.ID))
		}
		return storeError(jobComponent, err, staleStateMessage)
	}
	s.logger.Info("Automation job completed", logger.Field("job_id", job.ID), logger.StringField("output", output))
	return nil
}

func (s *jobService) finishFailed(ctx context.Context, job *entity.AutomationJob, execErr error) error {
	reason := describe(execErr)
	failed, err := entity.TransitionJob(job.Status, entity.JobEventFail)
	if err != nil {
		return transitionError(jobComponent, err)
	}
	err = s.jobRepo.UpdateFieldsIfStatus(ctx, job.ID, job.Status, map[string]interface{}{
		"status":        failed,
		"error_message": reason,
		"completed_at":  utils.TimeNowUTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			s.logger.Warn("Automation job changed while running, failure discarded", logger.ErrorField(execErr), logger.Field("job_id", job.ID))
		} else {
			s.logger.Error("Failed to record job failure", logger.ErrorField(err), logger.Field("job_id", job.ID))
		}
		return storeError(jobComponent, err, staleStateMessage)
	}
	s.logger.Warn("Automation job failed", logger.ErrorField(execErr), logger.Field("job_id", job.ID))

	accountNumber := fmt.Sprintf("#%d", job.AccountID)
	if account, err := s.accountRepo.FindByID(ctx, job.AccountID); err == nil {
		accountNumber = account.AccountNumber
	}
	if _, err := s.dispatcher.NotifyAdmins(ctx, AutomationError(accountNumber, reason)); err != nil {
		s.logger.Warn("Failed to notify admins of job failure", logger.ErrorField(err), logger.Field("job_id", job.ID))
	}
	return nil
}
