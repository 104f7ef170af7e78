package handler

import (
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// CreateProduct creates a product with its size quantities
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in service.ProductInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	product, err := h.service.Create(c.UserContext(), in, actor(c))
	if err != nil {
		return err
	}
	return response.Created(c, "Product created", product)
}

// UpdateProduct replaces the product fields; sizes are replaced only when sent
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}

	var in service.ProductInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	product, err := h.service.Update(c.UserContext(), id, in, actor(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Product updated", product)
}

// DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	return response.OK(c, "Product deleted", nil)
}

// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Product fetched", product)
}

// GetProducts lists products
// Query params: search, brand_id, category_id, product_type_id, page, limit
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{
		Search:        c.Query("search"),
		BrandID:       uint(c.QueryInt("brand_id")),
		CategoryID:    uint(c.QueryInt("category_id")),
		ProductTypeID: uint(c.QueryInt("product_type_id")),
		Page:          c.QueryInt("page", 1),
		Limit:         c.QueryInt("limit", 10),
	}

	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(response.Body{
		Status:  response.StatusSuccess,
		Message: "Products fetched",
		Data: fiber.Map{
			"products":   page.Data,
			"pagination": page.Pagination,
		},
	})
}

// GET /api/v1/products/low-stock
func (h *ProductHandler) GetLowStockProducts(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Low stock products fetched", products)
}
