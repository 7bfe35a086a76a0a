package Controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// SettingsController handles clinic-wide settings
type SettingsController struct {
	DB *gorm.DB
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{DB: db}
}

// GetSettings returns the clinic settings row
func (c *SettingsController) GetSettings(ctx *fiber.Ctx) error {
	settings, err := Models.GetSettings(c.DB)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return ctx.JSON(settings)
}

// UpdateSettings edits clinic settings, including the recurrence policy
// used by the agenda resolver.
func (c *SettingsController) UpdateSettings(ctx *fiber.Ctx) error {
	settings, err := Models.GetSettings(c.DB)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}

	var input struct {
		ClinicName   *string `json:"clinic_name"`
		OpeningTime  *string `json:"opening_time" validate:"omitempty,datetime=15:04"`
		ClosingTime  *string `json:"closing_time" validate:"omitempty,datetime=15:04"`
		WeekendDays  *string `json:"weekend_days"`
		EndOfWeekDay *int    `json:"end_of_week_day" validate:"omitempty,min=0,max=6"`
		MidMonthDay  *int    `json:"mid_month_day" validate:"omitempty,min=1,max=31"`
	}
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.ClinicName != nil {
		settings.ClinicName = *input.ClinicName
	}
	if input.OpeningTime != nil {
		settings.OpeningTime = *input.OpeningTime
	}
	if input.ClosingTime != nil {
		settings.ClosingTime = *input.ClosingTime
	}
	if input.WeekendDays != nil {
		settings.WeekendDays = *input.WeekendDays
	}
	if input.EndOfWeekDay != nil {
		settings.EndOfWeekDay = *input.EndOfWeekDay
	}
	if input.MidMonthDay != nil {
		settings.MidMonthDay = *input.MidMonthDay
	}

	if err := c.DB.Save(&settings).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update settings"})
	}
	return ctx.JSON(settings)
}
