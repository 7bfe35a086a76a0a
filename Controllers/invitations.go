package Controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Denta/Models"
	"Denta/email"
)

// InvitationController handles team onboarding by email
type InvitationController struct {
	DB *gorm.DB
}

// NewInvitationController creates a new InvitationController
func NewInvitationController(db *gorm.DB) *InvitationController {
	return &InvitationController{DB: db}
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=assistant front-desk admin"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateInvitation issues a token and emails the onboarding link
func (c *InvitationController) CreateInvitation(ctx *fiber.Ctx) error {
	var input InviteRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing Models.User
	if err := c.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A user with this email already exists"})
	}

	invitation := Models.Invitation{
		Email:     input.Email,
		Role:      input.Role,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().AddDate(0, 0, 7),
	}
	if err := c.DB.Create(&invitation).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create invitation"})
	}

	if config, ok := email.ConfigFromEnv(); ok {
		if err := email.SendInvitation(config, invitation.Email, invitation.Role, invitation.Token); err != nil {
			log.Printf("Error sending invitation email to %s: %v", invitation.Email, err)
		}
	} else {
		log.Println("SMTP not configured, invitation created without email")
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         invitation.ID,
		"email":      invitation.Email,
		"role":       invitation.Role,
		"expires_at": invitation.ExpiresAt,
	})
}

// GetInvitations lists pending invitations
func (c *InvitationController) GetInvitations(ctx *fiber.Ctx) error {
	var invitations []Models.Invitation
	if err := c.DB.Where("accepted_at IS NULL").Order("created_at desc").Find(&invitations).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve invitations"})
	}
	return ctx.JSON(invitations)
}

// AcceptInvitation redeems a token, creating the user account (and an
// assistant profile for assistant roles). Unauthenticated by design.
func (c *InvitationController) AcceptInvitation(ctx *fiber.Ctx) error {
	var input AcceptInviteRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var invitation Models.Invitation
	if err := c.DB.Where("token = ?", input.Token).First(&invitation).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invalid invitation token"})
	}

	now := time.Now()
	if invitation.AcceptedAt != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Invitation has already been used"})
	}
	if invitation.Expired(now) {
		return ctx.Status(fiber.StatusGone).JSON(fiber.Map{"error": "Invitation has expired"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	user := Models.User{
		Name:       input.Name,
		Email:      invitation.Email,
		Password:   hash,
		Permission: Models.PermissionForRole(invitation.Role),
		IsActive:   true,
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if user.Permission == Models.PermissionAssistant {
			userID := user.ID
			if err := tx.Create(&Models.Assistant{
				UserID:   &userID,
				Name:     user.Name,
				Email:    user.Email,
				IsActive: true,
			}).Error; err != nil {
				return err
			}
		}
		invitation.AcceptedAt = &now
		return tx.Save(&invitation).Error
	})
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to accept invitation"})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  Models.RoleName(user.Permission),
	})
}

// DeleteInvitation revokes a pending invitation
func (c *InvitationController) DeleteInvitation(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invitation ID"})
	}

	var invitation Models.Invitation
	if err := c.DB.First(&invitation, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invitation not found"})
	}

	c.DB.Delete(&invitation)
	return ctx.JSON(fiber.Map{"message": "Invitation revoked"})
}
