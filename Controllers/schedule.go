package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// ScheduleController handles team shift scheduling endpoints
type ScheduleController struct {
	DB *gorm.DB
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(db *gorm.DB) *ScheduleController {
	return &ScheduleController{DB: db}
}

type ShiftRequest struct {
	AssistantID uint   `json:"assistant_id" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
	Role        string `json:"role"`
	Notes       string `json:"notes"`
}

// GetShifts lists shifts in a date range (defaults to the current week)
func (c *ScheduleController) GetShifts(ctx *fiber.Ctx) error {
	from := ctx.Query("from")
	to := ctx.Query("to")
	if from == "" || to == "" {
		now := time.Now()
		// Monday-anchored week.
		offset := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -offset)
		from = monday.Format(Models.DateLayout)
		to = monday.AddDate(0, 0, 6).Format(Models.DateLayout)
	}

	query := c.DB.Where("date >= ? AND date <= ?", from, to)
	if assistantID := ctx.Query("assistant_id"); assistantID != "" {
		query = query.Where("assistant_id = ?", assistantID)
	}

	var shifts []Models.Shift
	if err := query.Order("date, start_time").Find(&shifts).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve shifts"})
	}

	return ctx.JSON(fiber.Map{
		"from":   from,
		"to":     to,
		"shifts": shifts,
	})
}

// CreateShift schedules an assistant for a block on a day
func (c *ScheduleController) CreateShift(ctx *fiber.Ctx) error {
	var input ShiftRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.EndTime <= input.StartTime {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Shift must end after it starts"})
	}

	var assistant Models.Assistant
	if err := c.DB.First(&assistant, input.AssistantID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
	}

	// Reject overlapping shifts for the same assistant on the same day.
	var overlapping int64
	c.DB.Model(&Models.Shift{}).
		Where("assistant_id = ? AND date = ? AND start_time < ? AND end_time > ?",
			input.AssistantID, input.Date, input.EndTime, input.StartTime).
		Count(&overlapping)
	if overlapping > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Assistant already has a shift in this time range"})
	}

	shift := Models.Shift{
		AssistantID: input.AssistantID,
		Date:        input.Date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Role:        input.Role,
		Notes:       input.Notes,
	}
	if err := c.DB.Create(&shift).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create shift"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(shift)
}

// UpdateShift edits an existing shift
func (c *ScheduleController) UpdateShift(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	var shift Models.Shift
	if err := c.DB.First(&shift, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Shift not found"})
	}

	var input ShiftRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Date != "" {
		shift.Date = input.Date
	}
	if input.StartTime != "" {
		shift.StartTime = input.StartTime
	}
	if input.EndTime != "" {
		shift.EndTime = input.EndTime
	}
	if input.Role != "" {
		shift.Role = input.Role
	}
	if input.Notes != "" {
		shift.Notes = input.Notes
	}
	if shift.EndTime <= shift.StartTime {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Shift must end after it starts"})
	}

	if err := c.DB.Save(&shift).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update shift"})
	}
	return ctx.JSON(shift)
}

// DeleteShift removes a scheduled shift
func (c *ScheduleController) DeleteShift(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	var shift Models.Shift
	if err := c.DB.First(&shift, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Shift not found"})
	}

	c.DB.Delete(&shift)
	return ctx.JSON(fiber.Map{"message": "Shift deleted successfully"})
}
