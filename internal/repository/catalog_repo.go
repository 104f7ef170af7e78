package repository

import (
	"context"

	"go-retail-backoffice/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository serves the lookup tables products refer to.
type CatalogRepository interface {
	Sizes(ctx context.Context) ([]model.Size, error)
	Brands(ctx context.Context) ([]model.Brand, error)
	Categories(ctx context.Context) ([]model.Category, error)
	ProductTypes(ctx context.Context) ([]model.ProductType, error)
	SeedSizes() error
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db}
}

func (r *catalogRepo) Sizes(ctx context.Context) ([]model.Size, error) {
	var sizes []model.Size
	err := r.db.WithContext(ctx).Order("id").Find(&sizes).Error
	return sizes, err
}

func (r *catalogRepo) Brands(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	err := r.db.WithContext(ctx).Order("name").Find(&brands).Error
	return brands, err
}

func (r *catalogRepo) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *catalogRepo) ProductTypes(ctx context.Context) ([]model.ProductType, error) {
	var types []model.ProductType
	err := r.db.WithContext(ctx).Order("name").Find(&types).Error
	return types, err
}

// SeedSizes inserts the default size labels that are missing.
func (r *catalogRepo) SeedSizes() error {
	sizes := make([]model.Size, len(model.DefaultSizes))
	copy(sizes, model.DefaultSizes)
	return r.db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "label"}}, DoNothing: true}).
		Create(&sizes).Error
}
