package service

import (
	"encoding/json"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
)

func mapToJobResponse(job *entity.AutomationJob) *dto.JobResponse {
	resp := &dto.JobResponse{
		ID:            job.ID,
		AccountID:     job.AccountID,
		VPSInstanceID: job.VPSInstanceID,
		JobType:       string(job.JobType),
		Status:        string(job.Status),
		Progress:      job.Progress,
		Message:       job.Message,
		ErrorMessage:  job.ErrorMessage,
		StartedAt:     job.StartedAt,
		CompletedAt:   job.CompletedAt,
		RetryCount:    job.RetryCount,
		MaxRetries:    job.MaxRetries,
		CreatedBy:     job.CreatedBy,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
	if len(job.Metadata) > 0 {
		resp.Metadata = json.RawMessage(job.Metadata)
	}
	return resp
}

func mapToVPSResponse(vps *entity.VPSInstance) *dto.VPSResponse {
	resp := &dto.VPSResponse{
		ID:                 vps.ID,
		AccountID:          vps.AccountID,
		Name:               vps.Name,
		IPAddress:          vps.IPAddress,
		Port:               vps.SSHPort,
		Username:           vps.SSHUsername,
		OSType:             vps.OSType,
		Status:             string(vps.Status),
		HealthStatus:       vps.HealthStatus,
		PowerStatus:        vps.PowerStatus,
		LastHealthCheck:    vps.LastHealthCheck,
		Provider:           vps.Provider,
		ProviderInstanceID: vps.ProviderInstanceID,
		ProviderRegion:     vps.ProviderRegion,
		ProviderPlan:       vps.ProviderPlan,
		Notes:              vps.Notes,
		CreatedAt:          vps.CreatedAt,
		UpdatedAt:          vps.UpdatedAt,
	}
	if len(vps.ProviderMetadata) > 0 {
		resp.ProviderMetadata = json.RawMessage(vps.ProviderMetadata)
	}
	return resp
}

func mapToAccountResponse(a *entity.TradingAccount) *dto.AccountResponse {
	return &dto.AccountResponse{
		ID:                 a.ID,
		UserID:             a.UserID,
		AccountNumber:      a.AccountNumber,
		Server:             a.Server,
		Platform:           string(a.Platform),
		Status:             string(a.Status),
		EAStatus:           string(a.EAStatus),
		AutomationStatus:   string(a.AutomationStatus),
		RejectionReason:    a.RejectionReason,
		Balance:            a.Balance,
		Equity:             a.Equity,
		Profit:             a.Profit,
		GainPercentage:     a.GainPercentage,
		CurrentLotSize:     a.CurrentLotSize,
		OpenPositionsCount: a.OpenPositionsCount,
		LastSyncAt:         a.LastSyncAt,
		ApprovedAt:         a.ApprovedAt,
		CreatedAt:          a.CreatedAt,
	}
}
