package handler

import (
	"fmt"

	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the lookup lists product forms are built from.
type CatalogHandler struct {
	repo repository.CatalogRepository
}

func NewCatalogHandler(repo repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// GET /api/v1/sizes
func (h *CatalogHandler) GetSizes(c *fiber.Ctx) error {
	sizes, err := h.repo.Sizes(c.UserContext())
	if err != nil {
		return fmt.Errorf("fetch sizes: %w", err)
	}
	return response.OK(c, "Sizes fetched", sizes)
}

// GET /api/v1/brands
func (h *CatalogHandler) GetBrands(c *fiber.Ctx) error {
	brands, err := h.repo.Brands(c.UserContext())
	if err != nil {
		return fmt.Errorf("fetch brands: %w", err)
	}
	return response.OK(c, "Brands fetched", brands)
}

// GET /api/v1/categories
func (h *CatalogHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.repo.Categories(c.UserContext())
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}
	return response.OK(c, "Categories fetched", categories)
}

// GET /api/v1/product-types
func (h *CatalogHandler) GetProductTypes(c *fiber.Ctx) error {
	types, err := h.repo.ProductTypes(c.UserContext())
	if err != nil {
		return fmt.Errorf("fetch product types: %w", err)
	}
	return response.OK(c, "Product types fetched", types)
}
