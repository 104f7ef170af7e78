package handler

import (
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CreateTransaction records a sale and takes its quantities out of stock
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var in service.TransactionInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	tx, err := h.service.Create(c.UserContext(), in, actor(c))
	if err != nil {
		return err
	}
	return response.Created(c, "Transaction recorded", tx)
}

// UpdateTransaction replaces the items of a sale, restoring the old quantities first
// PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "transaction")
	if err != nil {
		return err
	}

	var in service.TransactionInput
	if err := parseBody(c, &in); err != nil {
		return err
	}

	tx, err := h.service.Update(c.UserContext(), id, in, actor(c))
	if err != nil {
		return err
	}
	return response.OK(c, "Transaction updated", tx)
}

// DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "transaction")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id, actor(c)); err != nil {
		return err
	}
	return response.OK(c, "Transaction deleted and stock restored", nil)
}

// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "transaction")
	if err != nil {
		return err
	}
	tx, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Transaction fetched", tx)
}

// GetTransactions lists sales, newest first
// Query params: start_date, end_date (YYYY-MM-DD)
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	period, err := dateRange(c)
	if err != nil {
		return err
	}
	transactions, err := h.service.List(c.UserContext(), period)
	if err != nil {
		return err
	}
	return response.OK(c, "Transactions fetched", transactions)
}
