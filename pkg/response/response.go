// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"github.com/gofiber/fiber/v2"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Body is the envelope of all API responses.
type Body struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Body{Status: StatusSuccess, Message: message, Data: data})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Body{Status: StatusSuccess, Message: message, Data: data})
}

// Fail writes an error envelope. detail is omitted when nil.
func Fail(c *fiber.Ctx, status int, message string, detail interface{}) error {
	return c.Status(status).JSON(Body{Status: StatusError, Message: message, Error: detail})
}
