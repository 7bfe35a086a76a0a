package Controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// FeedbackController handles team feedback endpoints
type FeedbackController struct {
	DB *gorm.DB
}

// NewFeedbackController creates a new FeedbackController
func NewFeedbackController(db *gorm.DB) *FeedbackController {
	return &FeedbackController{DB: db}
}

type FeedbackRequest struct {
	AssistantID *uint  `json:"assistant_id"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Comment     string `json:"comment"`
}

// CreateFeedback records a feedback entry from the signed-in user
func (c *FeedbackController) CreateFeedback(ctx *fiber.Ctx) error {
	var input FeedbackRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, _ := ctx.Locals("user").(Models.User)

	if input.AssistantID != nil {
		var assistant Models.Assistant
		if err := c.DB.First(&assistant, *input.AssistantID).Error; err != nil {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
		}
	}

	feedback := Models.Feedback{
		AuthorUserID: user.ID,
		AssistantID:  input.AssistantID,
		Rating:       input.Rating,
		Comment:      input.Comment,
	}
	if err := c.DB.Create(&feedback).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create feedback"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(feedback)
}

// GetFeedback lists feedback, optionally filtered to one assistant
func (c *FeedbackController) GetFeedback(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Feedback{})
	if assistantID := ctx.Query("assistant_id"); assistantID != "" {
		query = query.Where("assistant_id = ?", assistantID)
	}

	var feedback []Models.Feedback
	if err := query.Order("created_at desc").Find(&feedback).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve feedback"})
	}
	return ctx.JSON(feedback)
}

// GetFeedbackSummary returns the average rating and count per assistant
func (c *FeedbackController) GetFeedbackSummary(ctx *fiber.Ctx) error {
	type AssistantRating struct {
		AssistantID uint    `json:"assistant_id"`
		Name        string  `json:"name"`
		AvgRating   float64 `json:"avg_rating"`
		Count       int     `json:"count"`
	}

	var results []AssistantRating
	c.DB.Raw(`
		SELECT
			a.id as assistant_id,
			a.name,
			AVG(f.rating) as avg_rating,
			COUNT(f.id) as count
		FROM assistants a
		JOIN feedbacks f ON f.assistant_id = a.id
		WHERE a.deleted_at IS NULL
		AND f.deleted_at IS NULL
		GROUP BY a.id, a.name
		ORDER BY avg_rating DESC
	`).Scan(&results)

	return ctx.JSON(results)
}

// DeleteFeedback removes an entry. Authors may delete their own, admins
// anyone's.
func (c *FeedbackController) DeleteFeedback(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid feedback ID"})
	}

	var feedback Models.Feedback
	if err := c.DB.First(&feedback, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Feedback not found"})
	}

	user, _ := ctx.Locals("user").(Models.User)
	if feedback.AuthorUserID != user.ID && user.Permission < Models.PermissionAdmin {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Cannot delete another user's feedback"})
	}

	c.DB.Delete(&feedback)
	return ctx.JSON(fiber.Map{"message": "Feedback deleted successfully"})
}
