package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// AssistantController handles assistant-related API endpoints
type AssistantController struct {
	DB *gorm.DB
}

// NewAssistantController creates a new AssistantController
func NewAssistantController(db *gorm.DB) *AssistantController {
	return &AssistantController{DB: db}
}

// GetAssistants retrieves all assistants
func (c *AssistantController) GetAssistants(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Assistant{})
	if ctx.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var assistants []Models.Assistant
	if err := query.Order("name").Find(&assistants).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve assistants"})
	}
	return ctx.JSON(assistants)
}

// GetAssistant retrieves a single assistant by ID
func (c *AssistantController) GetAssistant(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assistant ID"})
	}

	var assistant Models.Assistant
	if err := c.DB.First(&assistant, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
	}
	return ctx.JSON(assistant)
}

// CreateAssistant creates a new assistant profile
func (c *AssistantController) CreateAssistant(ctx *fiber.Ctx) error {
	var input struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"omitempty,email"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	assistant := Models.Assistant{
		Name:     input.Name,
		Email:    input.Email,
		IsActive: true,
	}
	if err := c.DB.Create(&assistant).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create assistant"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(assistant)
}

// UpdateAssistant updates name, email or active flag
func (c *AssistantController) UpdateAssistant(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assistant ID"})
	}

	var assistant Models.Assistant
	if err := c.DB.First(&assistant, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
	}

	var input struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		IsActive *bool   `json:"is_active"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Name != nil {
		assistant.Name = *input.Name
	}
	if input.Email != nil {
		assistant.Email = *input.Email
	}
	if input.IsActive != nil {
		assistant.IsActive = *input.IsActive
	}

	if err := c.DB.Save(&assistant).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update assistant"})
	}
	return ctx.JSON(assistant)
}

// DeleteAssistant removes an assistant. Their tasks become unassigned,
// never deleted.
func (c *AssistantController) DeleteAssistant(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assistant ID"})
	}

	var assistant Models.Assistant
	if err := c.DB.First(&assistant, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
	}

	if err := c.DB.Model(&Models.Task{}).Where("assigned_to_id = ?", assistant.ID).
		Update("assigned_to_id", nil).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to unassign tasks"})
	}

	c.DB.Delete(&assistant)
	return ctx.JSON(fiber.Map{"message": "Assistant deleted successfully"})
}
