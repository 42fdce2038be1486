package handlers

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// respond writes the success envelope with the payload keys merged in.
func respond(c *fiber.Ctx, status int, message string, payload fiber.Map) error {
	body := fiber.Map{
		"response": "success",
		"message":  message,
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}
