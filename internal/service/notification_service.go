package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const typeCustom = "CUSTOM"

// CustomNotificationInput is an operator-composed push message.
type CustomNotificationInput struct {
	Heading     string         `json:"heading" validate:"required"`
	Content     string         `json:"content" validate:"required"`
	Data        map[string]any `json:"data"`
	PlayerIDs   []string       `json:"player_ids"`
	ExternalIDs []string       `json:"external_ids"`
	Segments    []string       `json:"segments"`
}

type UserNotifications struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int64                `json:"unread_count"`
}

type StockStats struct {
	repository.StockStats
	HealthyStockCount int64 `json:"healthy_stock_count"`
}

type NotificationService interface {
	// Dispatch sends a push and, once the provider accepted it, stores one
	// notification per targeted user.
	Dispatch(ctx context.Context, msg push.Message) (json.RawMessage, error)

	ListForUser(ctx context.Context, userID uuid.UUID) (*UserNotifications, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	SendCustom(ctx context.Context, in CustomNotificationInput) (json.RawMessage, error)
	SendTest(ctx context.Context) (json.RawMessage, error)
	Stats(ctx context.Context) (*StockStats, error)
}

type notificationService struct {
	sender           push.Sender
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	productRepo      repository.ProductRepository
	log              *zap.Logger
}

func NewNotificationService(
	sender push.Sender,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	log *zap.Logger,
) NotificationService {
	return &notificationService{
		sender:           sender,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		productRepo:      productRepo,
		log:              log,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, msg push.Message) (json.RawMessage, error) {
	body, err := s.sender.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	// the push is out; a storage failure here must not report it as unsent
	if err := s.persist(ctx, msg); err != nil {
		s.log.Error("failed to store delivered notification", zap.String("heading", msg.Heading), zap.Error(err))
	}
	return body, nil
}

// recipients resolves the users a message reached. Device-targeted pushes
// cannot be mapped to users and are not stored.
func (s *notificationService) recipients(ctx context.Context, msg push.Message) ([]uuid.UUID, error) {
	switch {
	case len(msg.PlayerIDs) > 0:
		return nil, nil
	case len(msg.ExternalIDs) > 0:
		return s.userRepo.FindIDsByEmails(ctx, msg.ExternalIDs)
	}
	segments := msg.Segments
	if len(segments) == 0 {
		segments = push.DefaultSegments
	}
	if slices.Contains(segments, "All") {
		return s.userRepo.FindAllIDs(ctx)
	}
	return nil, nil
}

func (s *notificationService) persist(ctx context.Context, msg push.Message) error {
	users, err := s.recipients(ctx, msg)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	kind := typeCustom
	if t, ok := msg.Data["type"].(string); ok && t != "" {
		kind = t
	}
	productID := productIDFrom(msg.Data)

	rows := make([]model.Notification, 0, len(users))
	for _, userID := range users {
		rows = append(rows, model.Notification{
			UserID:    userID,
			Type:      kind,
			Heading:   msg.Heading,
			Content:   msg.Content,
			ProductID: productID,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, rows); err != nil {
		return err
	}
	s.log.Info("stored notifications", zap.String("type", kind), zap.Int("users", len(rows)))
	return nil
}

func productIDFrom(data map[string]any) *uuid.UUID {
	switch v := data["productId"].(type) {
	case uuid.UUID:
		return &v
	case string:
		if id, err := uuid.Parse(v); err == nil {
			return &id
		}
	}
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID) (*UserNotifications, error) {
	notifications, err := s.notificationRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	return &UserNotifications{Notifications: notifications, UnreadCount: unread}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.notificationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperror.Forbidden("you are not allowed to access this notification")
	}
	return s.notificationRepo.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) SendCustom(ctx context.Context, in CustomNotificationInput) (json.RawMessage, error) {
	if err := validate(&in); err != nil {
		return nil, apperror.Validation("heading and content are required")
	}
	segments := in.Segments
	if len(segments) == 0 {
		segments = push.DefaultSegments
	}
	data := in.Data
	if data == nil {
		data = map[string]any{}
	}
	return s.Dispatch(ctx, push.Message{
		Heading:     in.Heading,
		Content:     in.Content,
		Data:        data,
		PlayerIDs:   in.PlayerIDs,
		ExternalIDs: in.ExternalIDs,
		Segments:    segments,
	})
}

func (s *notificationService) SendTest(ctx context.Context) (json.RawMessage, error) {
	return s.Dispatch(ctx, push.Message{
		Heading: "🧪 Test Notification",
		Content: "This is a test notification from the retail back office",
		Data: map[string]any{
			"type":      "TEST",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *notificationService) Stats(ctx context.Context) (*StockStats, error) {
	base, err := s.productRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stock conditions: %w", err)
	}
	return &StockStats{
		StockStats:        *base,
		HealthyStockCount: base.TotalProducts - base.LowStockCount - base.OutOfStockCount,
	}, nil
}
