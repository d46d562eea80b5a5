package service

import (
	"context"

	"golang-ea-automation/internal/entity"
	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/repository"
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/common"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/logger"
	"golang-ea-automation/pkg/telegram"
	"golang-ea-automation/pkg/utils"
)

const notificationComponent = "notifications"

// Dispatcher delivers notifications. Orchestration code depends on this seam only.
type Dispatcher interface {
	NotifyUser(ctx context.Context, userID uint, msg Message) error
	NotifyAdmins(ctx context.Context, msg Message) (int, error)
}

// NotificationService stores and serves user notifications.
type NotificationService interface {
	Dispatcher
	ListNotifications(ctx context.Context, userID uint, req *dto.ListNotificationsRequest) ([]*dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id uint, requester auth.Principal) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

// NewNotificationService creates a notification service. alerter may be nil.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	alerter telegram.Notifier,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		alerter:          alerter,
		logger:           logger,
	}
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	alerter          telegram.Notifier
	logger           *logger.Logger
}

// NotifyUser stores one notification for userID.
func (s *notificationService) NotifyUser(ctx context.Context, userID uint, msg Message) error {
	n := &entity.Notification{
		UserID:  userID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Body,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Error("Failed to store notification",
			logger.ErrorField(err),
			logger.Field("user_id", userID),
			logger.StringField("type", string(msg.Type)))
		return errs.Internal(notificationComponent, err)
	}
	return nil
}

// NotifyAdmins stores msg for every active admin and mirrors it to the operator chat.
// It returns how many admins were notified.
func (s *notificationService) NotifyAdmins(ctx context.Context, msg Message) (int, error) {
	admins, err := s.userRepo.FindActiveAdmins(ctx)
	if err != nil {
		s.logger.Error("Failed to load admins", logger.ErrorField(err))
		return 0, errs.Internal(notificationComponent, err)
	}

	batch := make([]entity.Notification, 0, len(admins))
	for _, admin := range admins {
		batch = append(batch, entity.Notification{
			UserID:  admin.ID,
			Type:    msg.Type,
			Title:   msg.Title,
			Message: msg.Body,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("Failed to store admin notifications", logger.ErrorField(err), logger.StringField("type", string(msg.Type)))
		return 0, errs.Internal(notificationComponent, err)
	}

	if s.alerter != nil {
		text := telegram.FormatAdminAlert(string(msg.Type), msg.Title, msg.Body, utils.TimeNowUTC())
		utils.GoSafe(func() {
			if err := s.alerter.SendMessage(text); err != nil {
				s.logger.Warn("Failed to mirror admin alert to telegram", logger.ErrorField(err))
			}
		})
	}

	s.logger.Info("Admins notified", logger.StringField("type", string(msg.Type)), logger.IntField("count", len(batch)))
	return len(batch), nil
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uint, req *dto.ListNotificationsRequest) ([]*dto.NotificationResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = common.DefaultJobListLimit
	}
	if limit > common.MaxJobListLimit {
		limit = common.MaxJobListLimit
	}

	items, err := s.notificationRepo.List(ctx, userID, req.UnreadOnly, limit)
	if err != nil {
		return nil, errs.Internal(notificationComponent, err)
	}

	out := make([]*dto.NotificationResponse, 0, len(items))
	for i := range items {
		out = append(out, s.mapToNotificationResponse(&items[i]))
	}
	return out, nil
}

// MarkRead marks a notification read. Non-admins may only touch their own.
func (s *notificationService) MarkRead(ctx context.Context, id uint, requester auth.Principal) error {
	var owner *uint
	if !requester.IsAdmin() {
		owner = &requester.UserID
	}
	affected, err := s.notificationRepo.MarkRead(ctx, id, owner, utils.TimeNowUTC())
	if err != nil {
		return errs.Internal(notificationComponent, err)
	}
	if affected == 0 {
		return errs.NotFound(notificationComponent, "Notification not found")
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	affected, err := s.notificationRepo.MarkAllRead(ctx, userID, utils.TimeNowUTC())
	if err != nil {
		return 0, errs.Internal(notificationComponent, err)
	}
	return affected, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errs.Internal(notificationComponent, err)
	}
	return count, nil
}

func (s *notificationService) mapToNotificationResponse(n *entity.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
