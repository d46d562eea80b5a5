package entity

import "time"

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationMT5Request      NotificationType = "mt5_request"
	NotificationMT5Approved     NotificationType = "mt5_approved"
	NotificationMT5Rejected     NotificationType = "mt5_rejected"
	NotificationVPSProvisioning NotificationType = "vps_provisioning"
	NotificationVPSReady        NotificationType = "vps_ready"
	NotificationEADeploying     NotificationType = "ea_deploying"
	NotificationEADeployed      NotificationType = "ea_deployed"
	NotificationEADeployFailed  NotificationType = "ea_deploy_failed"
	NotificationAutomationError NotificationType = "automation_error"
	NotificationSystem          NotificationType = "system"
	NotificationTrade           NotificationType = "trade"
	NotificationAccount         NotificationType = "account"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title     string           `gorm:"type:varchar(200);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
