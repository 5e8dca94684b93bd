package handlers

import "github.com/gofiber/fiber/v2"

// errorResponse writes the API's JSON error shape.
func errorResponse(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
