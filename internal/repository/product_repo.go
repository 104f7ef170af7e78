package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows a product listing. Page starts at 1.
type ProductFilter struct {
	Search        string
	BrandID       uint
	CategoryID    uint
	ProductTypeID uint
	Page          int
	Limit         int
}

// StockStats counts products by stock condition.
type StockStats struct {
	TotalProducts   int64 `json:"total_products"`
	LowStockCount   int64 `json:"low_stock_count"`
	OutOfStockCount int64 `json:"out_of_stock_count"`
}

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	Update(tx *gorm.DB, product *model.Product) error
	Delete(tx *gorm.DB, id uuid.UUID) error
	NameExists(tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	FindLowStock(ctx context.Context) ([]model.Product, error)
	Stats(ctx context.Context) (*StockStats, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").
		Preload("Brand").
		Preload("ProductType").
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("size_id") }).
		Preload("Sizes.Size").
		Preload("StockBatches")
}

// Create inserts the product header only; sizes go through ReplaceSizes.
func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	product.Stock = 0
	return tx.Omit("Sizes", "StockBatches", "NotificationLogs", "Category", "Brand", "ProductType").
		Create(product).Error
}

// Update writes the editable columns. Stock is owned by the ledger.
func (r *productRepo) Update(tx *gorm.DB, product *model.Product) error {
	res := tx.Model(&model.Product{}).
		Where("id = ?", product.ID).
		Select("name", "description", "image", "min_stock", "category_id", "brand_id", "product_type_id", "updated_by").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product not found")
	}
	return nil
}

// Delete removes the product with its sizes, batches and alert logs.
// Delivered notifications keep their text but lose the product link.
func (r *productRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("product_id = ?", id).Delete(&model.ProductSize{}).Error; err != nil {
		return fmt.Errorf("delete sizes: %w", err)
	}
	if err := tx.Where("product_id = ?", id).Delete(&model.StockBatch{}).Error; err != nil {
		return fmt.Errorf("delete stock batches: %w", err)
	}
	if err := tx.Where("product_id = ?", id).Delete(&model.NotificationLog{}).Error; err != nil {
		return fmt.Errorf("delete notification logs: %w", err)
	}
	if err := tx.Model(&model.Notification{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
		return fmt.Errorf("unlink notifications: %w", err)
	}

	res := tx.Where("id = ?", id).Delete(&model.Product{})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return apperror.Integrity(res.Error, "product has recorded sales and cannot be deleted")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("product not found")
	}
	return nil
}

func (r *productRepo) NameExists(tx *gorm.DB, name string, excludeID uuid.UUID) (bool, error) {
	q := tx.Model(&model.Product{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := withDetails(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("product not found")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(filterProducts(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := withDetails(r.db.WithContext(ctx)).
		Scopes(filterProducts(filter)).
		Order("products.created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&products).Error
	return products, total, err
}

func filterProducts(filter ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if s := strings.TrimSpace(filter.Search); s != "" {
			pattern := "%" + strings.ToLower(s) + "%"
			q = q.Where(
				"LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR "+
					"products.brand_id IN (SELECT id FROM brands WHERE LOWER(name) LIKE ?) OR "+
					"products.category_id IN (SELECT id FROM categories WHERE LOWER(name) LIKE ?)",
				pattern, pattern, pattern, pattern,
			)
		}
		if filter.BrandID != 0 {
			q = q.Where("products.brand_id = ?", filter.BrandID)
		}
		if filter.CategoryID != 0 {
			q = q.Where("products.category_id = ?", filter.CategoryID)
		}
		if filter.ProductTypeID != 0 {
			q = q.Where("products.product_type_id = ?", filter.ProductTypeID)
		}
		return q
	}
}

// FindLowStock returns products at or below their threshold, empty ones included.
func (r *productRepo) FindLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := withDetails(r.db.WithContext(ctx)).
		Where("stock <= min_stock").
		Order("stock ASC").
		Find(&products).Error
	return products, err
}

// Stats counts low stock as 0 < stock <= min_stock so the three buckets
// never overlap.
func (r *productRepo) Stats(ctx context.Context) (*StockStats, error) {
	var stats StockStats
	counts := []struct {
		where string
		dest  *int64
	}{
		{"", &stats.TotalProducts},
		{"stock > 0 AND stock <= min_stock", &stats.LowStockCount},
		{"stock = 0", &stats.OutOfStockCount},
	}
	for _, c := range counts {
		q := r.db.WithContext(ctx).Model(&model.Product{})
		if c.where != "" {
			q = q.Where(c.where)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
