package Models

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DeviceToken is an FCM registration token for one signed-in device.
type DeviceToken struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index"`
	Value  string `json:"value" gorm:"uniqueIndex"`
}

type UpdateTokenRequest struct {
	Value string `json:"value" validate:"required"`
}

// UpdateToken upserts the calling user's device token.
func UpdateToken(c *fiber.Ctx) error {
	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token value is required",
		})
	}

	user, ok := c.Locals("user").(User)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not logged in",
		})
	}

	var token DeviceToken
	err := DB.Where("value = ?", req.Value).FirstOrCreate(&token, DeviceToken{
		UserID: user.ID,
		Value:  req.Value,
	}).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store token",
		})
	}

	// Token may have been registered by a previous account on this device.
	if token.UserID != user.ID {
		token.UserID = user.ID
		if err := DB.Save(&token).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to store token",
			})
		}
	}

	return c.JSON(fiber.Map{"message": "Token updated"})
}
