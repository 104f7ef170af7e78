package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateRange is an optional inclusive range of days. A zero bound is open.
// The end day is extended to its last millisecond.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !r.Start.IsZero() {
			db = db.Where(column+" >= ?", r.Start)
		}
		if !r.End.IsZero() {
			db = db.Where(column+" <= ?", EndOfDay(r.End))
		}
		return db
	}
}

// EndOfDay returns 23:59:59.999 of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

type TransactionRepository interface {
	Create(tx *gorm.DB, transaction *model.Transaction) error
	LockWithItems(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	UpdateHeader(tx *gorm.DB, transaction *model.Transaction) error
	ReplaceItems(tx *gorm.DB, id uuid.UUID, items []model.TransactionItem) error
	Delete(tx *gorm.DB, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	FindAll(ctx context.Context, period DateRange) ([]model.Transaction, error)
	FindForReport(ctx context.Context, period DateRange) ([]model.Transaction, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// Create inserts the header and its items.
func (r *transactionRepo) Create(tx *gorm.DB, transaction *model.Transaction) error {
	if err := tx.Create(transaction).Error; err != nil {
		return translateLinkError(err)
	}
	return nil
}

// LockWithItems loads a transaction and its items for modification.
func (r *transactionRepo) LockWithItems(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := database.ForUpdate(tx).First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("transaction not found")
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Where("transaction_id = ?", id).Order("id").Find(&transaction.Items).Error; err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	return &transaction, nil
}

func (r *transactionRepo) UpdateHeader(tx *gorm.DB, transaction *model.Transaction) error {
	err := tx.Model(&model.Transaction{}).
		Where("id = ?", transaction.ID).
		Select("customer_id", "total_amount", "profit", "payment_method", "discount", "note", "updated_by").
		Updates(transaction).Error
	return translateLinkError(err)
}

// ReplaceItems drops the transaction's items and inserts the given ones.
func (r *transactionRepo) ReplaceItems(tx *gorm.DB, id uuid.UUID, items []model.TransactionItem) error {
	if err := tx.Where("transaction_id = ?", id).Delete(&model.TransactionItem{}).Error; err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].TransactionID = id
	}
	if err := tx.Omit("Product", "Size").Create(&items).Error; err != nil {
		return translateLinkError(err)
	}
	return nil
}

// Delete removes the items then the header.
func (r *transactionRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("transaction_id = ?", id).Delete(&model.TransactionItem{}).Error; err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return tx.Where("id = ?", id).Delete(&model.Transaction{}).Error
}

func withTransactionDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("Items.Size").
		Preload("Customer").
		Preload("ProcessedBy")
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := withTransactionDetails(r.db.WithContext(ctx)).First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("transaction not found")
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) FindAll(ctx context.Context, period DateRange) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := withTransactionDetails(r.db.WithContext(ctx)).
		Scopes(period.scope("created_at")).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

// FindForReport loads headers with items, products and brands for aggregation.
func (r *transactionRepo) FindForReport(ctx context.Context, period DateRange) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Product.Brand").
		Scopes(period.scope("created_at")).
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

func translateLinkError(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperror.Integrity(err, "referenced customer, product or size does not exist")
	}
	return err
}
