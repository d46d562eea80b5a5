package service

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/common"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/lock"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const deploymentComponent = "deployments"

const deployInProgress = "EA deployment already in progress for this account"

// DeploymentService starts and completes EA deployments.
type DeploymentService interface {
	DeployEA(ctx context.Context, req *dto.DeployEARequest, createdBy uint) (*dto.DeployEAResponse, error)
	CompleteEADeployment(ctx context.Context, jobID uint, req *dto.CompleteDeploymentRequest) (*dto.JobResponse, error)
}

// NewDeploymentService creates a new deployment service.
func NewDeploymentService(
	tx repository.Transactor,
	jobRepo repository.AutomationJobRepository,
	accountRepo repository.TradingAccountRepository,
	vpsRepo repository.VPSInstanceRepository,
	locker lock.Locker,
	dispatcher Dispatcher,
	opts Options,
	logger *logger.Logger,
) DeploymentService {
	return &deploymentService{
		tx:          tx,
		jobRepo:     jobRepo,
		accountRepo: accountRepo,
		vpsRepo:     vpsRepo,
		locker:      locker,
		dispatcher:  dispatcher,
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

type deploymentService struct {
	tx          repository.Transactor
	jobRepo     repository.AutomationJobRepository
	accountRepo repository.TradingAccountRepository
	vpsRepo     repository.VPSInstanceRepository
	locker      lock.Locker
	dispatcher  Dispatcher
	opts        Options
	logger      *logger.Logger
}

// DeployEA creates an ea_deploy job for an active account whose VPS is active.
func (s *deploymentService) DeployEA(ctx context.Context, req *dto.DeployEARequest, createdBy uint) (*dto.DeployEAResponse, error) {
	if req.AccountID == 0 {
		return nil, errs.Validation(deploymentComponent, "mt5_account_id", "MT5 account ID is required")
	}
	if len(req.EAConfig) > 0 && !json.Valid(req.EAConfig) {
		return nil, errs.Validation(deploymentComponent, "ea_config", "ea_config must be valid JSON")
	}

	release, err := acquire(ctx, s.locker, common.JobLockKey(req.AccountID, string(entity.JobTypeEADeploy)), s.opts.LockWait, deploymentComponent, deployInProgress)
	if err != nil {
		return nil, err
	}
	defer release()

	account, err := s.accountRepo.FindByID(ctx, req.AccountID)
	if err != nil {
		return nil, lookupError(deploymentComponent, err, "MT5 account not found")
	}
	if account.Status != entity.AccountStatusActive {
		return nil, errs.Validation(deploymentComponent, "mt5_account_id", "MT5 account must be active before deploying EA")
	}

	vps, err := s.vpsRepo.FindByAccountID(ctx, account.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, errs.Validation(deploymentComponent, "mt5_account_id", "No VPS instance found for this MT5 account. Please set up VPS first.")
		}
		return nil, errs.Internal(deploymentComponent, err)
	}
	if vps.Status != entity.VPSStatusActive {
		return nil, errs.Validation(deploymentComponent, "vps_instance_id", fmt.Sprintf("VPS is not ready. Current status: %s", vps.Status))
	}

	nextAutomation, err := entity.TransitionAutomation(account.AutomationStatus, entity.AutomationEventDeployStarted)
	if err != nil {
		return nil, transitionError(deploymentComponent, err)
	}

	eaConfig := req.EAConfig
	if len(eaConfig) == 0 {
		eaConfig = json.RawMessage(`{}`)
	}
	metadata, err := json.Marshal(map[string]json.RawMessage{"ea_config": eaConfig})
	if err != nil {
		return nil, errs.Internal(deploymentComponent, err)
	}

	job := &entity.AutomationJob{
		AccountID:     account.ID,
		VPSInstanceID: &vps.ID,
		JobType:       entity.JobTypeEADeploy,
		Status:        entity.JobStatusPending,
		Message:       "EA deployment queued",
		MaxRetries:    s.opts.MaxRetries,
		CreatedBy:     optionalID(createdBy),
		Metadata:      datatypes.JSON(metadata),
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		jobs := s.jobRepo.WithTx(tx)
		exists, err := jobs.ExistsActive(ctx, account.ID, entity.JobTypeEADeploy)
		if err != nil {
			return err
		}
		if exists {
			return errs.Conflict(deploymentComponent, deployInProgress)
		}
		if err := jobs.Create(ctx, job); err != nil {
			return err
		}
		return s.accountRepo.WithTx(tx).UpdateFields(ctx, account.ID, map[string]interface{}{
			"automation_status": nextAutomation,
			"automation_notes":  "EA deployment started",
		})
	})
	if err != nil {
		return nil, storeError(deploymentComponent, err, deployInProgress)
	}

	if err := s.dispatcher.NotifyUser(ctx, account.UserID, EADeploying(account.AccountNumber)); err != nil {
		s.logger.Warn("Failed to notify deployment start", logger.ErrorField(err), logger.Field("account_id", account.ID))
	}

	s.logger.Info("EA deployment started", logger.Field("job_id", job.ID), logger.StringField("account_number", account.AccountNumber))
	return &dto.DeployEAResponse{
		Success: true,
		Job:     mapToJobResponse(job),
		Message: "EA deployment started",
	}, nil
}

// CompleteEADeployment records the outcome reported by the deployment agent.
func (s *deploymentService) CompleteEADeployment(ctx context.Context, jobID uint, req *dto.CompleteDeploymentRequest) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, lookupError(deploymentComponent, err, "EA deployment job not found")
	}
	if job.JobType != entity.JobTypeEADeploy {
		return nil, errs.NotFound(deploymentComponent, "EA deployment job not found")
	}

	account, err := s.accountRepo.FindByID(ctx, job.AccountID)
	if err != nil {
		return nil, lookupError(deploymentComponent, err, "MT5 account not found")
	}

	jobEvent, automationEvent := entity.JobEventComplete, entity.AutomationEventDeploySucceeded
	if !req.Success {
		jobEvent, automationEvent = entity.JobEventFail, entity.AutomationEventFault
	}
	jobStatus, err := entity.TransitionJob(job.Status, jobEvent)
	if err != nil {
		return nil, transitionError(deploymentComponent, err)
	}
	// A success report for an account that left ea_deploying still closes the job.
	automationStatus, automationErr := entity.TransitionAutomation(account.AutomationStatus, automationEvent)
	if automationErr != nil && !req.Success {
		return nil, transitionError(deploymentComponent, automationErr)
	}

	now := utils.TimeNowUTC()
	jobFields := map[string]interface{}{"status": jobStatus, "completed_at": now}
	accountFields := map[string]interface{}{"automation_status": automationStatus}
	errorMessage := req.ErrorMessage
	if req.Success {
		jobFields["progress"] = 100
		jobFields["message"] = "EA deployed successfully"
		accountFields["ea_status"] = entity.EAStatusActive
		accountFields["automation_notes"] = ""
	} else {
		if errorMessage == "" {
			errorMessage = "Deployment failed"
		}
		jobFields["error_message"] = errorMessage
		accountFields["automation_notes"] = errorMessage
	}
	if automationErr != nil {
		jobFields["message"] = "EA deployed, account automation left as " + string(account.AutomationStatus)
		s.logger.Warn("Deployment reported after account left ea_deploying",
			logger.ErrorField(automationErr),
			logger.Field("job_id", job.ID),
			logger.StringField("automation_status", string(account.AutomationStatus)))
	}

	err = s.tx.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.jobRepo.WithTx(tx).UpdateFieldsIfStatus(ctx, job.ID, job.Status, jobFields); err != nil {
			return err
		}
		if automationErr != nil {
			return nil
		}
		return s.accountRepo.WithTx(tx).UpdateFields(ctx, account.ID, accountFields)
	})
	if err != nil {
		return nil, storeError(deploymentComponent, err, deployInProgress)
	}

	if req.Success {
		if err := s.dispatcher.NotifyUser(ctx, account.UserID, EADeployed(account.AccountNumber)); err != nil {
			s.logger.Warn("Failed to notify deployment success", logger.ErrorField(err), logger.Field("job_id", job.ID))
		}
		s.logger.Info("EA deployment completed", logger.Field("job_id", job.ID), logger.StringField("account_number", account.AccountNumber))
	} else {
		reason := req.ErrorMessage
		if reason == "" {
			reason = "Unknown error"
		}
		if _, err := s.dispatcher.NotifyAdmins(ctx, EADeployFailed(account.AccountNumber, reason)); err != nil {
			s.logger.Warn("Failed to notify deployment failure", logger.ErrorField(err), logger.Field("job_id", job.ID))
		}
		s.logger.Warn("EA deployment failed", logger.Field("job_id", job.ID), logger.StringField("error", errorMessage))
	}

	updated, err := s.jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		return nil, errs.Internal(deploymentComponent, err)
	}
	return mapToJobResponse(updated), nil
}
