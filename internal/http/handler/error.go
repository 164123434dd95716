package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"schooldocs/internal/http/middleware"
	"schooldocs/internal/logger"
	"schooldocs/internal/mergefield"
	"schooldocs/internal/service"
	"schooldocs/internal/validate"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeValidationError reports per-field validation failures.
func writeValidationError(c *fiber.Ctx, err error) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_ERROR",
			Message: "invalid request",
			Fields:  validate.Fields(err),
		},
	}
	return c.Status(fiber.StatusBadRequest).JSON(res)
}

// serviceError maps domain errors to status codes. Unknown errors are logged
// and reported as INTERNAL_ERROR.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTemplateRequired):
		return writeError(c, fiber.StatusBadRequest, "TEMPLATE_REQUIRED", err.Error())
	case errors.Is(err, service.ErrNoRecipients):
		return writeError(c, fiber.StatusBadRequest, "RECIPIENTS_REQUIRED", err.Error())
	case errors.Is(err, service.ErrGuardianRequired):
		return writeError(c, fiber.StatusBadRequest, "GUARDIAN_REQUIRED", err.Error())
	case errors.Is(err, service.ErrSingleRecipient):
		return writeError(c, fiber.StatusBadRequest, "SINGLE_RECIPIENT", err.Error())
	case errors.Is(err, service.ErrClassRequired):
		return writeError(c, fiber.StatusBadRequest, "CLASS_REQUIRED", err.Error())
	case errors.Is(err, mergefield.ErrTemplateNotFound):
		return writeError(c, fiber.StatusNotFound, "TEMPLATE_NOT_FOUND", "template not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return writeError(c, fiber.StatusNotFound, "STUDENT_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrDispatchNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "dispatch not found")
	case errors.Is(err, service.ErrNotArchived):
		return writeError(c, fiber.StatusNotFound, "NOT_ARCHIVED", err.Error())
	case errors.Is(err, service.ErrWebhookDisabled):
		return writeError(c, fiber.StatusServiceUnavailable, "WEBHOOK_DISABLED", err.Error())
	}

	logger.L().ErrorContext(c.UserContext(), "request_failed",
		"request_id", middleware.GetRequestID(c),
		"path", c.Path(),
		"error", err.Error(),
	)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
