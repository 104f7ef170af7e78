package handler

import (
	"errors"

	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notifications service.NotificationService
	alerts        service.StockAlertService
	log           *zap.Logger
}

func NewNotificationHandler(notifications service.NotificationService, alerts service.StockAlertService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, alerts: alerts, log: log}
}

// CheckLowStock runs the stock alert sweep. Called by the scheduler.
// GET /api/v1/notifications/check-low-stock
func (h *NotificationHandler) CheckLowStock(c *fiber.Ctx) error {
	result, err := h.alerts.Sweep(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Stock check completed", result)
}

// GET /api/v1/notifications
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	inbox, err := h.notifications.ListForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, "Notifications fetched", inbox)
}

// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "notification")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), id, userID); err != nil {
		return err
	}
	return response.OK(c, "Notification marked as read", nil)
}

// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, "All notifications marked as read", fiber.Map{"updated": n})
}

// POST /api/v1/notifications/send-custom
func (h *NotificationHandler) SendCustom(c *fiber.Ctx) error {
	var in service.CustomNotificationInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	result, err := h.notifications.SendCustom(c.UserContext(), in)
	if err != nil {
		return pushFailure(c, err)
	}
	h.log.Info("custom notification sent", zap.String("by", actor(c).Email), zap.String("heading", in.Heading))
	return response.OK(c, "Custom notification sent", result)
}

// POST /api/v1/notifications/test
func (h *NotificationHandler) SendTest(c *fiber.Ctx) error {
	result, err := h.notifications.SendTest(c.UserContext())
	if err != nil {
		return pushFailure(c, err)
	}
	return response.OK(c, "Test notification sent", result)
}

// GET /api/v1/notifications/stats
func (h *NotificationHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.notifications.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Notification stats fetched", stats)
}

// pushFailure reports provider rejections with the provider's body.
func pushFailure(c *fiber.Ctx, err error) error {
	var providerErr *push.ProviderError
	if errors.As(err, &providerErr) {
		return response.Fail(c, fiber.StatusBadGateway, "push provider rejected the notification", providerErr.Body)
	}
	if errors.Is(err, push.ErrNotConfigured) {
		return response.Fail(c, fiber.StatusServiceUnavailable, "push notifications are not configured", nil)
	}
	return err
}
