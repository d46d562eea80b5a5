package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform is the trading terminal family.
type Platform string

const (
	PlatformMT4 Platform = "MT4"
	PlatformMT5 Platform = "MT5"
)

// AccountStatus is the admin approval state of a connected account.
type AccountStatus string

const (
	AccountStatusPending   AccountStatus = "pending"
	AccountStatusActive    AccountStatus = "active"
	AccountStatusRejected  AccountStatus = "rejected"
	AccountStatusSuspended AccountStatus = "suspended"
)

// EAStatus tells whether the EA is trading on the account.
type EAStatus string

const (
	EAStatusInactive EAStatus = "inactive"
	EAStatusActive   EAStatus = "active"
)

// AutomationStatus tracks the VPS + EA pipeline for an account.
type AutomationStatus string

const (
	AutomationNone            AutomationStatus = "none"
	AutomationVPSProvisioning AutomationStatus = "vps_provisioning"
	AutomationVPSReady        AutomationStatus = "vps_ready"
	AutomationEADeploying     AutomationStatus = "ea_deploying"
	AutomationActive          AutomationStatus = "active"
	AutomationError           AutomationStatus = "error"
)

// TradingAccount is a user's MT4/MT5 account connected for automation.
type TradingAccount struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	UserID             uint             `gorm:"not null;index" json:"user_id"`
	AccountNumber      string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_mt5_accounts_number_server" json:"account_number"`
	Server             string           `gorm:"type:varchar(100);not null;uniqueIndex:idx_mt5_accounts_number_server" json:"server"`
	Platform           Platform         `gorm:"type:varchar(10);not null;default:'MT5'" json:"platform"`
	EncryptedPassword  string           `gorm:"type:text" json:"-"`
	Status             AccountStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	EAStatus           EAStatus         `gorm:"column:ea_status;type:varchar(20);not null;default:'inactive'" json:"ea_status"`
	AutomationStatus   AutomationStatus `gorm:"type:varchar(30);not null;default:'none'" json:"automation_status"`
	AutomationNotes    string           `gorm:"type:text" json:"automation_notes,omitempty"`
	RejectionReason    string           `gorm:"type:text" json:"rejection_reason,omitempty"`
	Balance            decimal.Decimal  `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	Equity             decimal.Decimal  `gorm:"type:numeric(20,2);not null;default:0" json:"equity"`
	Profit             decimal.Decimal  `gorm:"type:numeric(20,2);not null;default:0" json:"profit"`
	GainPercentage     decimal.Decimal  `gorm:"type:numeric(12,4);not null;default:0" json:"gain_percentage"`
	CurrentLotSize     decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0" json:"current_lot_size"`
	OpenPositionsCount int              `gorm:"not null;default:0" json:"open_positions_count"`
	LastSyncAt         *time.Time       `json:"last_sync_at"`
	LastTradeAt        *time.Time       `json:"last_trade_at"`
	ApprovedAt         *time.Time       `json:"approved_at"`
	ApprovedBy         *uint            `json:"approved_by"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TradingAccount) TableName() string {
	return "mt5_accounts"
}

// GainPercentage computes profit/balance*100 rounded to two places; zero when balance is not positive.
func GainPercentage(profit, balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	gain := profit.Div(balance).Mul(decimal.NewFromInt(100)).Round(2)
	if gain.GreaterThan(maxGainPercentage) {
		return maxGainPercentage
	}
	if gain.LessThan(maxGainPercentage.Neg()) {
		return maxGainPercentage.Neg()
	}
	return gain
}

// maxGainPercentage is the largest value the gain_percentage column holds.
var maxGainPercentage = decimal.RequireFromString("99999999.99")
