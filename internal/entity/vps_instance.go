package entity

import (
	"time"

	"gorm.io/datatypes"
)

// VPSStatus is the lifecycle of a cloud machine.
type VPSStatus string

const (
	VPSStatusPending      VPSStatus = "pending"
	VPSStatusProvisioning VPSStatus = "provisioning"
	VPSStatusActive       VPSStatus = "active"
	VPSStatusError        VPSStatus = "error"
)

// VPSInstance is the cloud machine hosting the terminal for one account.
type VPSInstance struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	AccountID            uint           `gorm:"column:mt5_account_id;not null;uniqueIndex" json:"mt5_account_id"`
	Name                 string         `gorm:"type:varchar(100);not null" json:"name"`
	IPAddress            *string        `gorm:"type:varchar(45)" json:"ip_address"`
	SSHPort              int            `gorm:"not null;default:3389" json:"ssh_port"`
	SSHUsername          string         `gorm:"type:varchar(100)" json:"ssh_username"`
	EncryptedSSHPassword string         `gorm:"type:text" json:"-"`
	OSType               string         `gorm:"type:varchar(20);not null;default:'windows'" json:"os_type"`
	Status               VPSStatus      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	HealthStatus         string         `gorm:"type:varchar(20)" json:"health_status"`
	PowerStatus          string         `gorm:"type:varchar(20)" json:"power_status"`
	LastHealthCheck      *time.Time     `json:"last_health_check"`
	Provider             string         `gorm:"type:varchar(30)" json:"provider"`
	ProviderInstanceID   string         `gorm:"type:varchar(100);index" json:"provider_instance_id"`
	ProviderRegion       string         `gorm:"type:varchar(20)" json:"provider_region"`
	ProviderPlan         string         `gorm:"type:varchar(50)" json:"provider_plan"`
	ProviderMetadata     datatypes.JSON `json:"provider_metadata"`
	MT5Path              string         `gorm:"column:mt5_path;type:text" json:"mt5_path"`
	EAPath               string         `gorm:"column:ea_path;type:text" json:"ea_path"`
	Notes                string         `gorm:"type:text" json:"notes"`
	CreatedBy            *uint          `json:"created_by"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VPSInstance) TableName() string {
	return "vps_instances"
}

// Address returns the assigned IP or an empty string.
func (v *VPSInstance) Address() string {
	if v.IPAddress == nil {
		return ""
	}
	return *v.IPAddress
}
