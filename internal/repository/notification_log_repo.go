package repository

import (
	"context"

	"go-retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationLogRepository stores the per-product alert dedup markers and
// selects the products each sweep pass works on.
type NotificationLogRepository interface {
	FindLowStockUnalerted(ctx context.Context) ([]model.Product, error)
	FindOutOfStockUnalerted(ctx context.Context) ([]model.Product, error)
	FindRestockedWithLogs(ctx context.Context) ([]uuid.UUID, error)

	Record(ctx context.Context, productID uuid.UUID, status string) error
	Escalate(ctx context.Context, productID uuid.UUID) error
	Clear(ctx context.Context, productIDs []uuid.UUID) (int64, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.NotificationLog, error)
}

type notificationLogRepo struct {
	db *gorm.DB
}

func NewNotificationLogRepo(db *gorm.DB) NotificationLogRepository {
	return &notificationLogRepo{db}
}

const noLogWithStatus = "NOT EXISTS (SELECT 1 FROM notification_logs nl WHERE nl.product_id = products.id AND nl.status = ?)"

func (r *notificationLogRepo) FindLowStockUnalerted(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("size_id") }).
		Preload("Sizes.Size").
		Where("products.stock > 0 AND products.stock <= products.min_stock").
		Where(noLogWithStatus, model.StatusLowStock).
		Order("products.name").
		Find(&products).Error
	return products, err
}

func (r *notificationLogRepo) FindOutOfStockUnalerted(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("products.stock = 0").
		Where(noLogWithStatus, model.StatusOutOfStock).
		Order("products.name").
		Find(&products).Error
	return products, err
}

func (r *notificationLogRepo) FindRestockedWithLogs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("products.stock > products.min_stock").
		Where("EXISTS (SELECT 1 FROM notification_logs nl WHERE nl.product_id = products.id)").
		Pluck("products.id", &ids).Error
	return ids, err
}

// Record inserts a marker. An existing marker for the same pair is kept.
func (r *notificationLogRepo) Record(ctx context.Context, productID uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.NotificationLog{ProductID: productID, Status: status}).Error
}

// Escalate replaces a LOW_STOCK marker with an OUT_OF_STOCK one.
func (r *notificationLogRepo) Escalate(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ? AND status = ?", productID, model.StatusLowStock).
			Delete(&model.NotificationLog{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.NotificationLog{ProductID: productID, Status: model.StatusOutOfStock}).Error
	})
}

func (r *notificationLogRepo) Clear(ctx context.Context, productIDs []uuid.UUID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Delete(&model.NotificationLog{})
	return res.RowsAffected, res.Error
}

func (r *notificationLogRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.NotificationLog, error) {
	var logs []model.NotificationLog
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&logs).Error
	return logs, err
}
