package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Machine-readable error codes carried in ErrorResponse.Error.
const (
	CodeAlreadyCompleted = "already_completed"
	CodeValidation       = "validation_error"
	CodeDateMismatch     = "date_mismatch"
	CodeNotFound         = "not_found"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeBadRequest       = "bad_request"
	CodeInternal         = "internal_error"
)

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// ErrorResponse wraps every failure. Error is one of the Code* constants.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Success writes a JSON success envelope.
func Success(c *fiber.Ctx, status int, data any, meta ...any) error {
	resp := SuccessResponse{
		Success: true,
		Data:    data,
	}
	if len(meta) > 0 {
		resp.Meta = meta[0]
	}
	return c.Status(status).JSON(resp)
}

// Error writes a JSON error envelope.
func Error(c *fiber.Ctx, status int, code, message string, details ...any) error {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Success: false,
		Error:   code,
		Message: message,
	}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	return c.Status(status).JSON(resp)
}

// ValidationError writes a 422 with per-field messages.
func ValidationError(c *fiber.Ctx, fields map[string]string) error {
	return Error(c, fiber.StatusUnprocessableEntity, CodeValidation, "validation failed", fields)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, CodeBadRequest, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, CodeForbidden, message)
}
