package dto

import (
	"time"

	"golang-ea-automation/pkg/bridge"

	"github.com/shopspring/decimal"
)

// ConnectAccountRequest registers a trading account for approval.
type ConnectAccountRequest struct {
	AccountNumber string `json:"account_number"`
	Server        string `json:"server"`
	Password      string `json:"password,omitempty"`
	Platform      string `json:"platform,omitempty"`
}

// ReviewAccountRequest approves or rejects a pending account.
type ReviewAccountRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

// ListAccountsRequest holds listing filters.
type ListAccountsRequest struct {
	UserID uint   `query:"user_id"`
	Status string `query:"status"`
	Limit  int    `query:"limit"`
}

// AccountResponse defines the response body for a trading account.
type AccountResponse struct {
	ID                 uint            `json:"id"`
	UserID             uint            `json:"user_id"`
	AccountNumber      string          `json:"account_number"`
	Server             string          `json:"server"`
	Platform           string          `json:"platform"`
	Status             string          `json:"status"`
	EAStatus           string          `json:"ea_status"`
	AutomationStatus   string          `json:"automation_status"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	Balance            decimal.Decimal `json:"balance"`
	Equity             decimal.Decimal `json:"equity"`
	Profit             decimal.Decimal `json:"profit"`
	GainPercentage     decimal.Decimal `json:"gain_percentage"`
	CurrentLotSize     decimal.Decimal `json:"current_lot_size"`
	OpenPositionsCount int             `json:"open_positions_count"`
	LastSyncAt         *time.Time      `json:"last_sync_at"`
	ApprovedAt         *time.Time      `json:"approved_at"`
	CreatedAt          time.Time       `json:"created_at"`
}

// VPSSummary is the VPS block embedded in an account status view.
type VPSSummary struct {
	Status    string  `json:"status"`
	Health    string  `json:"health"`
	Name      string  `json:"name"`
	IPAddress *string `json:"ip_address"`
}

// AccountStatusView is the live-or-cached account status.
type AccountStatusView struct {
	Account          *AccountResponse  `json:"account"`
	LiveData         bool              `json:"live_data"`
	Message          string            `json:"message,omitempty"`
	VPS              *VPSSummary       `json:"vps,omitempty"`
	Positions        []bridge.Position `json:"positions,omitempty"`
	EAPositionsCount int               `json:"ea_positions_count"`
}

// BulkRefreshResponse is the aggregate outcome of a refresh sweep.
type BulkRefreshResponse struct {
	Total     int      `json:"total"`
	Refreshed int      `json:"refreshed"`
	Errors    []string `json:"errors"`
}
