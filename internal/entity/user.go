package entity

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleUser  = "user"

	UserStatusActive = "active"
)

// User is the read-only view of accounts owned by the session service.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}
