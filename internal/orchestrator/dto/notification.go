package dto

import "time"

// ListNotificationsRequest holds listing filters.
type ListNotificationsRequest struct {
	UnreadOnly bool `query:"unread_only"`
	Limit      int  `query:"limit"`
}

// NotificationResponse defines the response body for a notification.
type NotificationResponse struct {
	ID        uint       `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// UnreadCountResponse carries the unread badge count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
