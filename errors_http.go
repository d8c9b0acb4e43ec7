package blog

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Error struct {
		Message  string         `json:"message"`
		Code     string         `json:"code,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
	} `json:"error"`
}

// HTTPStatusFromError maps a rich error to the response status. Dead
// activation and reset links get 410: the resource the link pointed at is
// gone for good, retrying the same URL will never succeed.
func HTTPStatusFromError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	if richErr.TextCode == TextCodeInvalidLink {
		return fiber.StatusGone
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// NewErrorHandler builds the app-level fiber error handler. Internal detail
// stays in the logs; the client sees the category message and text code.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		body := ErrorResponse{}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			status = HTTPStatusFromError(richErr)
			body.Error.Message = richErr.Message
			body.Error.Code = richErr.TextCode
			body.Error.Metadata = richErr.Metadata
		} else if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
			body.Error.Message = fiberErr.Message
		} else {
			body.Error.Message = "internal server error"
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("%s %s failed: %v", c.Method(), c.Path(), err)
			body.Error.Message = "internal server error"
			body.Error.Metadata = nil
		}

		return c.Status(status).JSON(body)
	}
}
