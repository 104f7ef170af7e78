package middleware

import (
	"errors"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const internalErrorMessage = "something went wrong"

// ErrorHandler turns errors returned by handlers and middleware into the
// error envelope. Unclassified errors are logged and hidden from callers.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return response.Fail(c, fiberErr.Code, fiberErr.Message, nil)
		}

		kind := apperror.KindOf(err)
		status := kind.StatusCode()
		if kind == apperror.KindInternal {
			requestID, _ := c.Locals("requestid").(string)
			log.Error("request failed",
				zap.String("request_id", requestID),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			return response.Fail(c, status, internalErrorMessage, nil)
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		}
		return response.Fail(c, status, apperror.PublicMessage(err, internalErrorMessage), kind.String())
	}
}
