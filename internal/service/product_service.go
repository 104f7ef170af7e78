package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ProductInput is the body of product create and update requests.
// On update a nil Sizes keeps the current sizes; an empty list removes them.
type ProductInput struct {
	Name          string            `json:"name" validate:"required,max=255"`
	Description   string            `json:"description"`
	Image         string            `json:"image" validate:"max=512"`
	MinStock      int               `json:"min_stock" validate:"gte=0"`
	CategoryID    *uint             `json:"category_id"`
	BrandID       *uint             `json:"brand_id"`
	ProductTypeID *uint             `json:"product_type_id"`
	Sizes         []model.SizeInput `json:"sizes" validate:"omitempty,dive"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

type ProductPage struct {
	Data       []model.Product `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type ProductService interface {
	Create(ctx context.Context, in ProductInput, actor Actor) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput, actor Actor) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error)
	LowStock(ctx context.Context) ([]model.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	uow         database.UnitOfWork
	events      EventPublisher
	log         *zap.Logger
}

func NewProductService(productRepo repository.ProductRepository, uow database.UnitOfWork, events EventPublisher, log *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		uow:         uow,
		events:      events,
		log:         log,
	}
}

func (in *ProductInput) apply(p *model.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Image = in.Image
	p.MinStock = in.MinStock
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
	p.ProductTypeID = in.ProductTypeID
}

func (s *productService) ensureUniqueName(tx *gorm.DB, name string, self uuid.UUID) error {
	exists, err := s.productRepo.NameExists(tx, name, self)
	if err != nil {
		return fmt.Errorf("check product name: %w", err)
	}
	if exists {
		return apperror.Conflict("product name %q already exists", name)
	}
	return nil
}

func (s *productService) Create(ctx context.Context, in ProductInput, actor Actor) (*model.Product, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	product := &model.Product{}
	in.apply(product)
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := s.ensureUniqueName(tx, product.Name, uuid.Nil); err != nil {
			return err
		}
		if err := s.productRepo.Create(tx, product); err != nil {
			return err
		}
		return repository.ReplaceSizes(tx, product.ID, in.Sizes)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	s.publish("product_created", created, actor)
	return created, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput, actor Actor) (*model.Product, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	product := &model.Product{}
	in.apply(product)
	product.ID = id
	product.UpdatedBy = actor.ID

	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := s.ensureUniqueName(tx, product.Name, id); err != nil {
			return err
		}
		if err := s.productRepo.Update(tx, product); err != nil {
			return err
		}
		if in.Sizes != nil {
			return repository.ReplaceSizes(tx, id, in.Sizes)
		}
		_, err := repository.RecomputeTotalStock(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish("product_updated", updated, actor)
	return updated, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	err := s.uow.Do(ctx, func(tx *gorm.DB) error {
		return s.productRepo.Delete(tx, id)
	})
	if err != nil {
		return err
	}

	s.events.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "product_deleted",
		Data:    map[string]interface{}{"id": id},
		User:    actor.event(),
		Message: fmt.Sprintf("%s deleted a product", actor.Name),
	})
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) (*ProductPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	return &ProductPage{
		Data: products,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	}, nil
}

func (s *productService) LowStock(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindLowStock(ctx)
}

func (s *productService) publish(action string, p *model.Product, actor Actor) {
	s.events.Publish(ws.Event{
		Type:   "stock_update",
		Action: action,
		Data: map[string]interface{}{
			"id":        p.ID,
			"name":      p.Name,
			"stock":     p.Stock,
			"min_stock": p.MinStock,
		},
		User:    actor.event(),
		Message: fmt.Sprintf("%s saved product '%s'", actor.Name, p.Name),
	})
}
