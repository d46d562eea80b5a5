package dto

import "encoding/json"

// DeployEARequest starts an EA deployment on the account's VPS.
type DeployEARequest struct {
	AccountID uint            `json:"mt5_account_id"`
	EAConfig  json.RawMessage `json:"ea_config,omitempty" swaggertype:"object"`
}

// DeployEAResponse returns the created deployment job.
type DeployEAResponse struct {
	Success bool         `json:"success"`
	Job     *JobResponse `json:"job"`
	Message string       `json:"message"`
}

// CompleteDeploymentRequest reports the outcome of a deployment.
type CompleteDeploymentRequest struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}
