package service

import (
	"context"
	"fmt"
	"strings"

	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/push"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SweepDetail is the outcome of one alert attempt.
type SweepDetail struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"type"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}

type SweepResult struct {
	NotificationsSentCount int           `json:"notifications_sent_count"`
	FailedCount            int           `json:"failed_count"`
	ClearedProductsCount   int           `json:"cleared_products_count"`
	Details                []SweepDetail `json:"details"`
}

func (r *SweepResult) add(d SweepDetail) {
	if d.Success {
		r.NotificationsSentCount++
	} else {
		r.FailedCount++
	}
	r.Details = append(r.Details, d)
}

type StockAlertService interface {
	// Sweep sends each low or out-of-stock alert once per episode and
	// resets products that were restocked.
	Sweep(ctx context.Context) (*SweepResult, error)
}

type sweepPass struct {
	name string
	run  func(ctx context.Context, result *SweepResult) error
}

type stockAlertService struct {
	logRepo       repository.NotificationLogRepository
	notifications NotificationService
	events        EventPublisher
	metrics       *metrics.Metrics
	log           *zap.Logger
}

func NewStockAlertService(
	logRepo repository.NotificationLogRepository,
	notifications NotificationService,
	events EventPublisher,
	m *metrics.Metrics,
	log *zap.Logger,
) StockAlertService {
	return &stockAlertService{
		logRepo:       logRepo,
		notifications: notifications,
		events:        events,
		metrics:       m,
		log:           log,
	}
}

// passes is ordered: the out-of-stock pass must see the low-stock markers
// written moments earlier so a product can escalate within one sweep.
func (s *stockAlertService) passes() []sweepPass {
	return []sweepPass{
		{name: "low_stock", run: s.lowStockPass},
		{name: "out_of_stock", run: s.outOfStockPass},
		{name: "restock_clear", run: s.restockClearPass},
	}
}

func (s *stockAlertService) Sweep(ctx context.Context) (*SweepResult, error) {
	s.log.Info("stock sweep started")
	result := &SweepResult{Details: []SweepDetail{}}

	for _, pass := range s.passes() {
		if err := pass.run(ctx, result); err != nil {
			return nil, fmt.Errorf("%s pass: %w", pass.name, err)
		}
	}

	s.log.Info("stock sweep finished",
		zap.Int("sent", result.NotificationsSentCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("cleared", result.ClearedProductsCount))

	s.events.Publish(ws.Event{
		Type:   "stock_alert",
		Action: "sweep_finished",
		Data:   result,
	})
	return result, nil
}

func (s *stockAlertService) lowStockPass(ctx context.Context, result *SweepResult) error {
	products, err := s.logRepo.FindLowStockUnalerted(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		p := &products[i]
		s.alert(ctx, result, p, model.StatusLowStock, lowStockMessage(p))
	}
	return nil
}

func (s *stockAlertService) outOfStockPass(ctx context.Context, result *SweepResult) error {
	products, err := s.logRepo.FindOutOfStockUnalerted(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		p := &products[i]
		s.alert(ctx, result, p, model.StatusOutOfStock, outOfStockMessage(p))
	}
	return nil
}

func (s *stockAlertService) restockClearPass(ctx context.Context, result *SweepResult) error {
	ids, err := s.logRepo.FindRestockedWithLogs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.logRepo.Clear(ctx, ids); err != nil {
		return err
	}
	result.ClearedProductsCount = len(ids)
	s.metrics.RecordLogsCleared(len(ids))
	s.log.Info("cleared alert logs of restocked products", zap.Int("products", len(ids)))
	return nil
}

// alert sends one message and records the marker. Failures are recorded
// in the result so one product never stops the sweep; without a marker the
// product is alerted again next sweep.
func (s *stockAlertService) alert(ctx context.Context, result *SweepResult, p *model.Product, status string, msg push.Message) {
	detail := SweepDetail{ProductID: p.ID, ProductName: p.Name, Type: status}

	if _, err := s.notifications.Dispatch(ctx, msg); err != nil {
		s.log.Warn("stock alert not delivered",
			zap.String("product_id", p.ID.String()),
			zap.String("status", status),
			zap.Error(err))
		detail.Error = err.Error()
		result.add(detail)
		s.metrics.RecordAlert(status, false)
		return
	}

	var err error
	if status == model.StatusOutOfStock {
		err = s.logRepo.Escalate(ctx, p.ID)
	} else {
		err = s.logRepo.Record(ctx, p.ID, status)
	}
	if err != nil {
		s.log.Error("stock alert sent but marker not recorded",
			zap.String("product_id", p.ID.String()),
			zap.String("status", status),
			zap.Error(err))
		detail.Error = fmt.Sprintf("alert sent but %s marker not recorded: %v", status, err)
		result.add(detail)
		s.metrics.RecordAlert(status, false)
		return
	}

	detail.Success = true
	result.add(detail)
	s.metrics.RecordAlert(status, true)
}

func lowStockMessage(p *model.Product) push.Message {
	labels := make([]string, 0, len(p.Sizes))
	sizes := make([]map[string]any, 0, len(p.Sizes))
	for _, ps := range p.Sizes {
		label := fmt.Sprintf("#%d", ps.SizeID)
		if ps.Size != nil {
			label = ps.Size.Label
		}
		labels = append(labels, label)
		sizes = append(sizes, map[string]any{"label": label, "quantity": ps.Quantity})
	}

	content := fmt.Sprintf("Product %q is running low! Restock soon.", p.Name)
	if len(labels) > 0 {
		content = fmt.Sprintf("Product %q size %s is running low! Restock soon.", p.Name, strings.Join(labels, ", "))
	}

	return push.Message{
		Heading: "⚠️ Low Stock Warning",
		Content: content,
		Data: map[string]any{
			"type":         model.StatusLowStock,
			"productId":    p.ID.String(),
			"productName":  p.Name,
			"currentStock": p.Stock,
			"minStock":     p.MinStock,
			"sizes":        sizes,
		},
		ImageURL:   p.Image,
		BigPicture: p.Image,
	}
}

func outOfStockMessage(p *model.Product) push.Message {
	return push.Message{
		Heading: "🚨 Out of Stock!",
		Content: fmt.Sprintf("Product %q is out of stock! Restock needed.", p.Name),
		Data: map[string]any{
			"type":        model.StatusOutOfStock,
			"productId":   p.ID.String(),
			"productName": p.Name,
		},
		ImageURL:   p.Image,
		BigPicture: p.Image,
	}
}
