package TaskAI

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

type SuggestRequest struct {
	Prompt string `json:"prompt"`
}

// SuggestTasksHandler turns a free-text prompt into task suggestions.
// Nothing is persisted; the frontend lets the user review and create.
func SuggestTasksHandler(c *fiber.Ctx) error {
	var req SuggestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Prompt is required"})
	}

	client, err := NewClient()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "AI helper is not configured"})
	}

	suggestions, err := client.SuggestTasks(req.Prompt)
	if err != nil {
		log.Printf("Error getting task suggestions: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to generate task suggestions"})
	}

	return c.JSON(fiber.Map{"suggestions": suggestions})
}
