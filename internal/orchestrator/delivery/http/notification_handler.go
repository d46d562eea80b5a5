package http

import (
	"net/http"

	"golang-ea-automation/internal/orchestrator/dto"
	"golang-ea-automation/internal/orchestrator/service"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService service.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: logger}
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListNotifications)
	g.GET("/unread-count", h.UnreadCount)
	g.POST("/read-all", h.MarkAllRead)
	g.POST("/:id/read", h.MarkRead)
}

// ListNotifications godoc
// @Summary List my notifications
// @Tags notifications
// @Produce  json
// @Security BearerAuth
// @Param   unread_only  query  bool  false  "Only unread"
// @Param   limit        query  int   false  "Max rows"
// @Success 200 {array} dto.NotificationResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	var req dto.ListNotificationsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid query parameters")
	}

	items, err := h.notificationService.ListNotifications(c.Request().Context(), principal(c).UserID, &req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, items)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce  json
// @Security BearerAuth
// @Param   id  path    int true    "Notification ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "Invalid notification ID")
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), id, principal(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Success: true})
}

// MarkAllRead godoc
// @Summary Mark all my notifications read
// @Tags notifications
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} dto.UnreadCountResponse
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	marked, err := h.notificationService.MarkAllRead(c.Request().Context(), principal(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: marked})
}

// UnreadCount godoc
// @Summary Count my unread notifications
// @Tags notifications
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} dto.UnreadCountResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	count, err := h.notificationService.UnreadCount(c.Request().Context(), principal(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, dto.UnreadCountResponse{Count: count})
}
