package strategy

import (
	"context"

	"golang-ea-automation/internal/entity"
)

// JobExecutionStrategy runs one job type inside the orchestrator.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.AutomationJob) (string, error)
	GetType() entity.JobType
}
