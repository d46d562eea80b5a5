package strategy

import (
	"context"
	"fmt"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/bridge"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/utils"
)

// EAStatusReader reads the EA state of an account from the terminal bridge.
type EAStatusReader interface {
	EAStatus(ctx context.Context, account, server string) (*bridge.EAStatus, error)
}

// StatusCheckStrategy refreshes the ea_status of the job's account.
type StatusCheckStrategy struct {
	bridge      EAStatusReader
	accountRepo repository.TradingAccountRepository
	logger      *logger.Logger
}

// NewStatusCheckStrategy creates a new StatusCheckStrategy.
func NewStatusCheckStrategy(reader EAStatusReader, accountRepo repository.TradingAccountRepository, log *logger.Logger) JobExecutionStrategy {
	return &StatusCheckStrategy{bridge: reader, accountRepo: accountRepo, logger: log}
}

// GetType returns the job type this strategy handles.
func (s *StatusCheckStrategy) GetType() entity.JobType {
	return entity.JobTypeStatusCheck
}

// Execute asks the bridge whether the EA is trading and stores the answer.
func (s *StatusCheckStrategy) Execute(ctx context.Context, job *entity.AutomationJob) (string, error) {
	account, err := s.accountRepo.FindByID(ctx, job.AccountID)
	if err != nil {
		return "", fmt.Errorf("failed to load account %d: %w", job.AccountID, err)
	}

	status, err := s.bridge.EAStatus(ctx, account.AccountNumber, account.Server)
	if err != nil {
		s.logger.Warn("EA status check failed",
			logger.ErrorField(err),
			logger.Field("job_id", job.ID),
			logger.StringField("account_number", account.AccountNumber))
		return "", err
	}

	// An inactive report keeps the stored status.
	eaStatus := account.EAStatus
	if status.EAActive {
		eaStatus = entity.EAStatusActive
	}
	err = s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"ea_status":    eaStatus,
		"last_sync_at": utils.TimeNowUTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store ea status: %w", err)
	}

	return fmt.Sprintf("EA %s (reported active: %t) with %d open EA positions", eaStatus, status.EAActive, status.EAPositionsCount), nil
}
