package repository

import (
	"errors"
	"fmt"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The stock ledger keeps Product.Stock equal to the sum of its size
// quantities. Every function takes the caller's transaction so the detail
// rows and the total change together.

// TotalQuantity is the only place the product total is derived.
func TotalQuantity(sizes []model.ProductSize) int {
	total := 0
	for _, s := range sizes {
		total += s.Quantity
	}
	return total
}

// RecomputeTotalStock rewrites Product.Stock from the product's size rows
// and returns the new total.
func RecomputeTotalStock(tx *gorm.DB, productID uuid.UUID) (int, error) {
	var sizes []model.ProductSize
	if err := tx.Where("product_id = ?", productID).Find(&sizes).Error; err != nil {
		return 0, fmt.Errorf("load sizes of product %s: %w", productID, err)
	}

	total := TotalQuantity(sizes)
	res := tx.Model(&model.Product{}).Where("id = ?", productID).Update("stock", total)
	if res.Error != nil {
		return 0, fmt.Errorf("write stock of product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperror.Integrity(gorm.ErrRecordNotFound, "product %s does not exist", productID)
	}
	return total, nil
}

// ReplaceSizes swaps the product's size rows for the given list and
// recomputes the total. Callers pass the complete desired set.
func ReplaceSizes(tx *gorm.DB, productID uuid.UUID, sizes []model.SizeInput) error {
	rows := make([]model.ProductSize, 0, len(sizes))
	seen := make(map[uint]bool, len(sizes))
	ids := make([]uint, 0, len(sizes))
	for _, s := range sizes {
		if s.SizeID == 0 {
			return apperror.Validation("size_id is required")
		}
		if s.Quantity < 0 {
			return apperror.Validation("quantity of size %d must not be negative", s.SizeID)
		}
		if seen[s.SizeID] {
			return apperror.Validation("size %d is listed more than once", s.SizeID)
		}
		seen[s.SizeID] = true
		ids = append(ids, s.SizeID)
		rows = append(rows, model.ProductSize{ProductID: productID, SizeID: s.SizeID, Quantity: int(s.Quantity)})
	}

	if len(ids) > 0 {
		var known int64
		if err := tx.Model(&model.Size{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
			return fmt.Errorf("check sizes: %w", err)
		}
		if known != int64(len(ids)) {
			return apperror.Integrity(gorm.ErrForeignKeyViolated, "one or more sizes do not exist")
		}
	}

	if err := tx.Where("product_id = ?", productID).Delete(&model.ProductSize{}).Error; err != nil {
		return fmt.Errorf("delete sizes of product %s: %w", productID, err)
	}
	if len(rows) > 0 {
		if err := tx.Create(&rows).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return apperror.Integrity(err, "product %s does not exist", productID)
			}
			return fmt.Errorf("insert sizes of product %s: %w", productID, err)
		}
	}

	_, err := RecomputeTotalStock(tx, productID)
	return err
}

// LockProductSize loads the (product, size) row, locking it on dialects
// with row locks.
func LockProductSize(tx *gorm.DB, productID uuid.UUID, sizeID uint) (*model.ProductSize, error) {
	var ps model.ProductSize
	err := database.ForUpdate(tx).
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		First(&ps).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("size %d of product %s not found", sizeID, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock size %d of product %s: %w", sizeID, productID, err)
	}
	return &ps, nil
}

// SetSizeQuantity writes a size row's quantity. Negative values are refused.
func SetSizeQuantity(tx *gorm.DB, ps *model.ProductSize, quantity int) error {
	if quantity < 0 {
		return apperror.InsufficientStock("size %d of product %s has %d left", ps.SizeID, ps.ProductID, ps.Quantity)
	}
	if err := tx.Model(&model.ProductSize{}).Where("id = ?", ps.ID).Update("quantity", quantity).Error; err != nil {
		return fmt.Errorf("write quantity of size %d: %w", ps.SizeID, err)
	}
	ps.Quantity = quantity
	return nil
}
