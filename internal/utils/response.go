package utils

import "github.com/gofiber/fiber/v2"

const (
	defaultSuccessMessage = "success"
	defaultErrorMessage   = "error"
)

// APIResponse is the envelope every handler answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data any) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendCreated answers 201 for freshly stored records.
func SendCreated(c *fiber.Ctx, message string, data any) error {
	return SendSuccessWithStatus(c, fiber.StatusCreated, message, data)
}

// SendSuccessWithStatus answers a success envelope with an explicit status; zero means 200.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data any) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return send(c, status, true, orDefault(message, defaultSuccessMessage), data)
}

// SendError answers a failure envelope without data.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendErrorWithData(c, status, message, nil)
}

// SendErrorWithData answers a failure envelope that still carries a payload, such as
// the per-probe health report or the rejected rows of an import.
func SendErrorWithData(c *fiber.Ctx, status int, message string, data any) error {
	if status < fiber.StatusBadRequest {
		status = fiber.StatusInternalServerError
	}
	return send(c, status, false, orDefault(message, defaultErrorMessage), data)
}

func send(c *fiber.Ctx, status int, success bool, message string, data any) error {
	return c.Status(status).JSON(APIResponse{
		Success: success,
		Data:    data,
		Message: message,
	})
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
