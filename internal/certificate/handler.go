package certificate

import (
	"errors"

	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/response"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// verifyFailedMessage is deliberately uniform: the public page must not be
// able to tell a malformed serial from one that was never issued.
const verifyFailedMessage = "Certificate not found or invalid"

// VerifyCertificateHandler is the public, unauthenticated lookup. A miss
// is an expected outcome, not a fault.
func VerifyCertificateHandler(c *fiber.Ctx) error {
	serial := c.Params("serialNumber")

	view, err := Verify(database.DB, serial)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			zap.S().Debugw("certificate verification miss", "serial", serial)
			return response.Error(c, fiber.StatusNotFound, "NOT_FOUND", verifyFailedMessage, nil)
		}
		return response.InternalError(c, "Verification failed")
	}

	return response.Success(c, view, "Certificate verified")
}

func GetSettingsHandler(c *fiber.Ctx) error {
	settings, err := GetSettings(database.DB)
	if err != nil {
		return response.InternalError(c, "Failed to load certificate settings")
	}

	return response.Success(c, settings, "Certificate settings retrieved")
}

func SaveSettingsHandler(c *fiber.Ctx) error {
	var body struct {
		Category string           `json:"category" validate:"required,eq=certificate"`
		Settings TemplateSettings `json:"settings" validate:"required"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if err := validate.Struct(body); err != nil {
		return response.ValidationError(c, err.Error())
	}

	settings, err := SaveSettings(database.DB, body.Settings)
	if err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			return response.ValidationError(c, map[string]string{"settings": err.Error()})
		}
		return response.InternalError(c, "Failed to save certificate settings")
	}

	return response.Success(c, settings, "Certificate settings saved")
}

func GenerateCertificateHandler(c *fiber.Ctx) error {
	var body struct {
		StudentName    string `json:"studentName" validate:"required"`
		CourseName     string `json:"courseName" validate:"required"`
		CompletionDate string `json:"completionDate" validate:"required"`
		SerialNumber   string `json:"serialNumber"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if err := validate.Struct(body); err != nil {
		return response.ValidationError(c, err.Error())
	}

	cert, err := Issue(database.DB, body.StudentName, body.CourseName, body.CompletionDate, body.SerialNumber)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			return response.ValidationError(c, map[string]string{
				"studentName":    "student name is required",
				"courseName":     "course name is required",
				"completionDate": "completion date is required",
			})
		case errors.Is(err, ErrMissingSerial):
			return response.ValidationError(c, map[string]string{"serialNumber": "serial number is required in manual mode"})
		case errors.Is(err, ErrDuplicateSerial):
			return response.Conflict(c, "Certificate with this serial number already exists")
		default:
			zap.S().Errorw("certificate issuance failed", "error", err)
			return response.InternalError(c, "Failed to issue certificate")
		}
	}

	return response.Created(c, cert, "Certificate issued successfully")
}

func ListCertificatesHandler(c *fiber.Ctx) error {
	certs, err := List(database.DB)
	if err != nil {
		return response.InternalError(c, "Failed to fetch certificates")
	}

	return response.Success(c, certs, "Certificates retrieved successfully")
}

func RevokeCertificateHandler(c *fiber.Ctx) error {
	serial := c.Params("serialNumber")

	cert, err := Revoke(database.DB, serial)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.NotFound(c, "Certificate")
		}
		return response.InternalError(c, "Failed to revoke certificate")
	}

	return response.Success(c, cert, "Certificate revoked")
}
