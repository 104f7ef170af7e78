package service

import (
	"context"
	"fmt"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/database"
	"go-retail-backoffice/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TransactionItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	SizeID    uint      `json:"size_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
	SellPrice float64   `json:"sell_price" validate:"gte=0"`
	CostPrice float64   `json:"cost_price" validate:"gte=0"`
	Discount  float64   `json:"discount" validate:"gte=0"`
}

// TransactionInput is a sale as submitted by the point of sale. Totals and
// profit are computed by the client and stored verbatim.
type TransactionInput struct {
	CustomerID    *uuid.UUID             `json:"customer_id"`
	TotalAmount   float64                `json:"total_amount" validate:"gte=0"`
	Profit        float64                `json:"profit"`
	PaymentMethod string                 `json:"payment_method" validate:"max=20"`
	Discount      float64                `json:"discount" validate:"gte=0"`
	Note          string                 `json:"note"`
	Items         []TransactionItemInput `json:"items" validate:"required,min=1,dive"`
}

func (in *TransactionInput) toModel() *model.Transaction {
	t := &model.Transaction{
		CustomerID:    in.CustomerID,
		TotalAmount:   in.TotalAmount,
		Profit:        in.Profit,
		PaymentMethod: in.PaymentMethod,
		Discount:      in.Discount,
		Note:          in.Note,
		Items:         make([]model.TransactionItem, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		t.Items = append(t.Items, model.TransactionItem{
			ProductID: it.ProductID,
			SizeID:    it.SizeID,
			Quantity:  it.Quantity,
			SellPrice: it.SellPrice,
			CostPrice: it.CostPrice,
			Discount:  it.Discount,
		})
	}
	return t
}

type TransactionService interface {
	Create(ctx context.Context, in TransactionInput, actor Actor) (*model.Transaction, error)
	Update(ctx context.Context, id uuid.UUID, in TransactionInput, actor Actor) (*model.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, period repository.DateRange) ([]model.Transaction, error)
}

type transactionService struct {
	txRepo  repository.TransactionRepository
	uow     database.UnitOfWork
	events  EventPublisher
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewTransactionService(txRepo repository.TransactionRepository, uow database.UnitOfWork, events EventPublisher, m *metrics.Metrics, log *zap.Logger) TransactionService {
	return &transactionService{
		txRepo:  txRepo,
		uow:     uow,
		events:  events,
		metrics: m,
		log:     log,
	}
}

// stockChanges collects new product totals inside a unit of work; they are
// only published once it commits.
type stockChanges map[uuid.UUID]int

func (c stockChanges) recompute(tx *gorm.DB, productID uuid.UUID) error {
	total, err := repository.RecomputeTotalStock(tx, productID)
	if err != nil {
		return err
	}
	c[productID] = total
	return nil
}

func decrement(tx *gorm.DB, item model.TransactionItem) error {
	ps, err := repository.LockProductSize(tx, item.ProductID, item.SizeID)
	if err != nil {
		return err
	}
	if ps.Quantity < item.Quantity {
		return apperror.InsufficientStock("insufficient stock for product %s size %d: %d available, %d requested",
			item.ProductID, item.SizeID, ps.Quantity, item.Quantity)
	}
	return repository.SetSizeQuantity(tx, ps, ps.Quantity-item.Quantity)
}

// restore puts sold quantities back and returns the products it touched.
// Items whose size row no longer exists are skipped.
func (s *transactionService) restore(tx *gorm.DB, items []model.TransactionItem) ([]uuid.UUID, error) {
	var touched []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, item := range items {
		ps, err := repository.LockProductSize(tx, item.ProductID, item.SizeID)
		if apperror.KindOf(err) == apperror.KindNotFound {
			s.log.Warn("size row missing while restoring stock",
				zap.String("product_id", item.ProductID.String()),
				zap.Uint("size_id", item.SizeID),
				zap.Int("quantity", item.Quantity))
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := repository.SetSizeQuantity(tx, ps, ps.Quantity+item.Quantity); err != nil {
			return nil, err
		}
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			touched = append(touched, item.ProductID)
		}
	}
	return touched, nil
}

func (s *transactionService) Create(ctx context.Context, in TransactionInput, actor Actor) (*model.Transaction, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	t := in.toModel()
	t.ProcessedByID = actor.userID()
	t.CreatedBy = actor.ID
	t.UpdatedBy = actor.ID

	changes := stockChanges{}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := s.txRepo.Create(tx, t); err != nil {
			return err
		}
		for _, item := range t.Items {
			if err := decrement(tx, item); err != nil {
				return err
			}
			if err := changes.recompute(tx, item.ProductID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.metrics.RecordTransaction("create")
	s.publish("transaction_created", t.ID, changes, actor)
	return s.txRepo.FindByID(ctx, t.ID)
}

func (s *transactionService) Update(ctx context.Context, id uuid.UUID, in TransactionInput, actor Actor) (*model.Transaction, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	t := in.toModel()
	t.ID = id
	t.UpdatedBy = actor.ID

	changes := stockChanges{}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		existing, err := s.txRepo.LockWithItems(tx, id)
		if err != nil {
			return err
		}

		affected, err := s.restore(tx, existing.Items)
		if err != nil {
			return err
		}

		if err := s.txRepo.UpdateHeader(tx, t); err != nil {
			return err
		}
		if err := s.txRepo.ReplaceItems(tx, id, t.Items); err != nil {
			return err
		}

		for _, item := range t.Items {
			if err := decrement(tx, item); err != nil {
				return err
			}
			affected = append(affected, item.ProductID)
		}

		for _, productID := range affected {
			if _, done := changes[productID]; done {
				continue
			}
			if err := changes.recompute(tx, productID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.metrics.RecordTransaction("update")
	s.publish("transaction_updated", id, changes, actor)
	return s.txRepo.FindByID(ctx, id)
}

func (s *transactionService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	changes := stockChanges{}
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		existing, err := s.txRepo.LockWithItems(tx, id)
		if err != nil {
			return err
		}

		affected, err := s.restore(tx, existing.Items)
		if err != nil {
			return err
		}
		for _, productID := range affected {
			if err := changes.recompute(tx, productID); err != nil {
				return err
			}
		}

		return s.txRepo.Delete(tx, id)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordTransaction("delete")
	s.publish("transaction_deleted", id, changes, actor)
	return nil
}

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	return s.txRepo.FindByID(ctx, id)
}

func (s *transactionService) List(ctx context.Context, period repository.DateRange) ([]model.Transaction, error) {
	transactions, err := s.txRepo.FindAll(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if transactions == nil {
		transactions = []model.Transaction{}
	}
	return transactions, nil
}

func (s *transactionService) recordFailure(err error) {
	if apperror.KindOf(err) == apperror.KindInsufficientStock {
		s.metrics.RecordInsufficientStock()
	}
}

func (s *transactionService) publish(action string, id uuid.UUID, changes stockChanges, actor Actor) {
	products := make([]map[string]interface{}, 0, len(changes))
	for productID, stock := range changes {
		products = append(products, map[string]interface{}{"id": productID, "stock": stock})
	}
	s.events.Publish(ws.Event{
		Type:   "stock_update",
		Action: action,
		Data: map[string]interface{}{
			"transaction_id": id,
			"products":       products,
		},
		User:    actor.event(),
		Message: fmt.Sprintf("%s recorded a sale change", actor.Name),
	})
}
