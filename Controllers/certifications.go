package Controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"Denta/Models"
)

// CertificationController handles certification tracking endpoints
type CertificationController struct {
	DB *gorm.DB
}

// NewCertificationController creates a new CertificationController
func NewCertificationController(db *gorm.DB) *CertificationController {
	return &CertificationController{DB: db}
}

type CertificationRequest struct {
	AssistantID uint   `json:"assistant_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Issuer      string `json:"issuer"`
	IssuedDate  string `json:"issued_date" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate  string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes       string `json:"notes"`
}

// GetCertifications lists certifications, optionally for one assistant
func (c *CertificationController) GetCertifications(ctx *fiber.Ctx) error {
	query := c.DB.Model(&Models.Certification{})
	if assistantID := ctx.Query("assistant_id"); assistantID != "" {
		query = query.Where("assistant_id = ?", assistantID)
	}

	var certs []Models.Certification
	if err := query.Order("expiry_date").Find(&certs).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve certifications"})
	}
	return ctx.JSON(certs)
}

// GetExpiring lists certifications expiring within ?days= (default 30)
func (c *CertificationController) GetExpiring(ctx *fiber.Ctx) error {
	days, err := strconv.Atoi(ctx.Query("days", "30"))
	if err != nil || days < 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid days parameter"})
	}

	certs, err := Models.ExpiringCertifications(c.DB, time.Now(), days)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve certifications"})
	}
	return ctx.JSON(certs)
}

// CreateCertification records a new certification
func (c *CertificationController) CreateCertification(ctx *fiber.Ctx) error {
	var input CertificationRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var assistant Models.Assistant
	if err := c.DB.First(&assistant, input.AssistantID).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Assistant not found"})
	}

	cert := Models.Certification{
		AssistantID: input.AssistantID,
		Name:        input.Name,
		Issuer:      input.Issuer,
		IssuedDate:  input.IssuedDate,
		ExpiryDate:  input.ExpiryDate,
		Notes:       input.Notes,
	}
	if err := c.DB.Create(&cert).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create certification"})
	}
	return ctx.Status(fiber.StatusCreated).JSON(cert)
}

// UpdateCertification edits an existing certification
func (c *CertificationController) UpdateCertification(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid certification ID"})
	}

	var cert Models.Certification
	if err := c.DB.First(&cert, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certification not found"})
	}

	var input CertificationRequest
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if input.Name != "" {
		cert.Name = input.Name
	}
	if input.Issuer != "" {
		cert.Issuer = input.Issuer
	}
	if input.IssuedDate != "" {
		cert.IssuedDate = input.IssuedDate
	}
	if input.ExpiryDate != "" {
		cert.ExpiryDate = input.ExpiryDate
	}
	if input.Notes != "" {
		cert.Notes = input.Notes
	}

	if err := c.DB.Save(&cert).Error; err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update certification"})
	}
	return ctx.JSON(cert)
}

// DeleteCertification removes a certification record
func (c *CertificationController) DeleteCertification(ctx *fiber.Ctx) error {
	id, err := strconv.Atoi(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid certification ID"})
	}

	var cert Models.Certification
	if err := c.DB.First(&cert, id).Error; err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certification not found"})
	}

	c.DB.Delete(&cert)
	return ctx.JSON(fiber.Map{"message": "Certification deleted successfully"})
}
