package strategy

import (
	"context"
	"fmt"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/logger"
)

// VPSSyncer reconciles a VPS row with its provider.
type VPSSyncer interface {
	SyncVPS(ctx context.Context, id uint) (*dto.VPSResponse, error)
}

// VPSHealthCheckStrategy re-reads the provider state of the job's VPS.
type VPSHealthCheckStrategy struct {
	syncer  VPSSyncer
	vpsRepo repository.VPSInstanceRepository
	logger  *logger.Logger
}

// NewVPSHealthCheckStrategy creates a new VPSHealthCheckStrategy.
func NewVPSHealthCheckStrategy(syncer VPSSyncer, vpsRepo repository.VPSInstanceRepository, log *logger.Logger) JobExecutionStrategy {
	return &VPSHealthCheckStrategy{syncer: syncer, vpsRepo: vpsRepo, logger: log}
}

// GetType returns the job type this strategy handles.
func (s *VPSHealthCheckStrategy) GetType() entity.JobType {
	return entity.JobTypeVPSHealthCheck
}

// Execute syncs the VPS named by the job, or the account's VPS when the job names none.
func (s *VPSHealthCheckStrategy) Execute(ctx context.Context, job *entity.AutomationJob) (string, error) {
	var vpsID uint
	if job.VPSInstanceID != nil {
		vpsID = *job.VPSInstanceID
	} else {
		vps, err := s.vpsRepo.FindByAccountID(ctx, job.AccountID)
		if err != nil {
			return "", fmt.Errorf("no VPS instance for account %d: %w", job.AccountID, err)
		}
		vpsID = vps.ID
	}

	synced, err := s.syncer.SyncVPS(ctx, vpsID)
	if err != nil {
		s.logger.Warn("VPS health check failed", logger.ErrorField(err), logger.Field("job_id", job.ID), logger.Field("vps_id", vpsID))
		return "", err
	}

	return fmt.Sprintf("VPS %s, health %s, power %s", synced.Status, synced.HealthStatus, synced.PowerStatus), nil
}
