package serverutils

import (
	"errors"

	"medichain-be/internal/pkg/logger"
	"medichain-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an application error onto an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperror.TypeOf(err) {
	case apperror.TypeValidation:
		return fiber.StatusBadRequest
	case apperror.TypeNotFound:
		return fiber.StatusNotFound
	case apperror.TypeUpstream, apperror.TypeTimeout:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

const internalErrorMessage = "An unexpected error occurred. Please try again later."

// ClientMessage returns the status for err and the text safe to show the
// caller. Internal errors are masked.
func ClientMessage(err error) (int, string) {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		return status, internalErrorMessage
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return status, appErr.Message
	}
	return status, err.Error()
}

// ErrorHandler is the fiber error handler. Internal error details never reach
// the client; upstream failures are flagged retryable.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status, message := ClientMessage(err)

		details := map[string]interface{}{
			"method": ctx.Method(),
			"path":   ctx.Path(),
			"status": status,
			"error":  err.Error(),
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", details)
		} else {
			log.Warn("HTTP", "Request rejected", details)
		}

		res := ErrorResponse(status, message)
		res.Retryable = apperror.IsRetryable(err)
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Details != nil {
			res.Data = appErr.Details
		}
		return ctx.Status(status).JSON(res)
	}
}
