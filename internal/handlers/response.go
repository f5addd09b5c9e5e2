package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"querystack/internal/apperror"
)

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Response is the envelope every /api endpoint answers with. Exactly one
// of Data and Error is set, selected by Success.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Status  int        `json:"status,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Success: true, Data: data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Data: data})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperror.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders any error returned by a handler as a failed envelope.
// Errors without a kind become a 500 with a generic message.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Response{
				Error:  &ErrorBody{Message: fe.Message},
				Status: fe.Code,
			})
		}

		status := StatusFor(err)
		body := &ErrorBody{Message: "An unexpected error occurred"}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && status != fiber.StatusInternalServerError {
			body.Message = appErr.Message
			body.Details = appErr.Details
		} else {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		return c.Status(status).JSON(Response{Error: body, Status: status})
	}
}

func badBody() error {
	return apperror.ValidationFailed("body", "Invalid request body")
}
