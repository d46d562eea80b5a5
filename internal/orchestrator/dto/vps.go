package dto

import (
	"encoding/json"
	"time"

	"golang-ea-automation/pkg/vultr"
)

// ProvisionVPSRequest asks for a new cloud VPS for an account.
type ProvisionVPSRequest struct {
	AccountID uint   `json:"mt5_account_id"`
	Region    string `json:"region,omitempty"`
	Plan      string `json:"plan,omitempty"`
	OSID      int    `json:"os_id,omitempty"`
	Name      string `json:"vps_name,omitempty"`
}

// ListVPSRequest holds listing filters.
type ListVPSRequest struct {
	AccountID uint   `query:"mt5_account_id"`
	Status    string `query:"status"`
}

// VPSResponse defines the response body for a VPS. Credentials are never exposed.
type VPSResponse struct {
	ID                 uint            `json:"id"`
	AccountID          uint            `json:"mt5_account_id"`
	Name               string          `json:"name"`
	IPAddress          *string         `json:"ip_address"`
	Port               int             `json:"port"`
	Username           string          `json:"username"`
	OSType             string          `json:"os_type"`
	Status             string          `json:"status"`
	HealthStatus       string          `json:"health_status,omitempty"`
	PowerStatus        string          `json:"power_status,omitempty"`
	LastHealthCheck    *time.Time      `json:"last_health_check"`
	Provider           string          `json:"provider"`
	ProviderInstanceID string          `json:"provider_instance_id"`
	ProviderRegion     string          `json:"provider_region"`
	ProviderPlan       string          `json:"provider_plan"`
	ProviderMetadata   json.RawMessage `json:"provider_metadata,omitempty" swaggertype:"object"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProvisionVPSResponse returns the created VPS.
type ProvisionVPSResponse struct {
	Success bool         `json:"success"`
	VPS     *VPSResponse `json:"vps"`
	Message string       `json:"message"`
}

// ProvisioningOptionsResponse lists curated and, on request, live provider catalogs.
type ProvisioningOptionsResponse struct {
	RecommendedPlans   map[string]vultr.RecommendedPlan `json:"recommended_plans"`
	RecommendedRegions []vultr.RecommendedRegion        `json:"recommended_regions"`
	WindowsOS          map[string]int                   `json:"windows_os"`
	Regions            []vultr.Region                   `json:"regions,omitempty"`
	Plans              []vultr.Plan                     `json:"plans,omitempty"`
	OS                 []vultr.OS                       `json:"os,omitempty"`
	Account            *vultr.Account                   `json:"account,omitempty"`
}
