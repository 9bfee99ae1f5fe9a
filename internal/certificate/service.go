package certificate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gaugyan/admin-api/internal/models"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var (
	ErrInvalidSettings = errors.New("invalid certificate template settings")
	ErrDuplicateSerial = errors.New("serial number already issued")
	ErrMissingSerial   = errors.New("serial number is required in manual mode")
	ErrMissingFields   = errors.New("student name, course name and completion date are required")
	ErrNotFound        = errors.New("certificate not found")
)

// errCursorConflict signals a lost race on the serial counter; Issue
// retries the transaction.
var errCursorConflict = errors.New("serial cursor changed concurrently")

const (
	SettingsCategory = "certificate"

	FormatAuto   = "auto"
	FormatManual = "manual"

	maxIssueRetries = 5
)

// sanitizer strips any markup from free-text fields before they can reach
// the public verification page.
var sanitizer = bluemonday.StrictPolicy()

// TemplateSettings is the typed projection of the "certificate" settings
// row. SerialNumberStart is the next number handed out in auto mode.
type TemplateSettings struct {
	SerialNumberPrefix  string `json:"serialNumberPrefix"`
	SerialNumberFormat  string `json:"serialNumberFormat" validate:"omitempty,oneof=auto manual"`
	SerialNumberStart   int64  `json:"serialNumberStart"`
	SerialNumberPadding int    `json:"serialNumberPadding"`
}

func DefaultSettings() TemplateSettings {
	return TemplateSettings{
		SerialNumberPrefix:  "GG",
		SerialNumberFormat:  FormatAuto,
		SerialNumberStart:   1,
		SerialNumberPadding: 4,
	}
}

func (s TemplateSettings) validate() error {
	if s.SerialNumberFormat != FormatAuto && s.SerialNumberFormat != FormatManual {
		return fmt.Errorf("%w: format must be auto or manual", ErrInvalidSettings)
	}
	if s.SerialNumberPadding < 1 || s.SerialNumberPadding > 10 {
		return fmt.Errorf("%w: padding must be between 1 and 10", ErrInvalidSettings)
	}
	if s.SerialNumberStart < 0 {
		return fmt.Errorf("%w: start must not be negative", ErrInvalidSettings)
	}
	return nil
}

// FormatSerial renders prefix + zero-padded number, e.g. ("GG", 7, 4) ->
// "GG0007". Numbers wider than the padding are never truncated.
func FormatSerial(prefix string, n int64, padding int) string {
	return fmt.Sprintf("%s%0*d", prefix, padding, n)
}

// settingsFromRow merges the stored JSON over the documented defaults, so
// fields missing from an older row fall back instead of surfacing as zero
// values. The authoritative counter lives in the SerialCursor column.
func settingsFromRow(row *models.SiteSetting) TemplateSettings {
	s := DefaultSettings()
	if len(row.Settings) > 0 {
		_ = json.Unmarshal(row.Settings, &s)
	}
	if s.SerialNumberFormat == "" {
		s.SerialNumberFormat = FormatAuto
	}
	if s.SerialNumberPadding == 0 {
		s.SerialNumberPadding = DefaultSettings().SerialNumberPadding
	}
	s.SerialNumberStart = row.SerialCursor
	return s
}

// ensureSettingsRow creates the singleton settings row with defaults if it
// does not exist yet, and returns it.
func ensureSettingsRow(db *gorm.DB) (*models.SiteSetting, error) {
	var row models.SiteSetting
	err := db.Where("category = ?", SettingsCategory).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := DefaultSettings()
	raw, _ := json.Marshal(defaults)
	row = models.SiteSetting{
		Category:     SettingsCategory,
		Settings:     raw,
		SerialCursor: defaults.SerialNumberStart,
	}
	if err := db.Create(&row).Error; err != nil {
		// Lost a create race; re-read the winner's row.
		if rerr := db.Where("category = ?", SettingsCategory).First(&row).Error; rerr != nil {
			return nil, err
		}
	}
	return &row, nil
}

func GetSettings(db *gorm.DB) (TemplateSettings, error) {
	row, err := ensureSettingsRow(db)
	if err != nil {
		return TemplateSettings{}, err
	}
	return settingsFromRow(row), nil
}

// SaveSettings validates and upserts the singleton "certificate" row.
// The serial counter column is reset to the submitted start value.
func SaveSettings(db *gorm.DB, s TemplateSettings) (TemplateSettings, error) {
	if s.SerialNumberPrefix == "" {
		s.SerialNumberPrefix = DefaultSettings().SerialNumberPrefix
	}
	if s.SerialNumberFormat == "" {
		s.SerialNumberFormat = DefaultSettings().SerialNumberFormat
	}
	if s.SerialNumberPadding == 0 {
		s.SerialNumberPadding = DefaultSettings().SerialNumberPadding
	}
	if err := s.validate(); err != nil {
		return TemplateSettings{}, err
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return TemplateSettings{}, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		row, err := ensureSettingsRow(tx)
		if err != nil {
			return err
		}
		row.Settings = raw
		row.SerialCursor = s.SerialNumberStart
		return tx.Save(row).Error
	})
	if err != nil {
		return TemplateSettings{}, err
	}

	return GetSettings(db)
}

// Issue creates a certificate. In auto mode the serial comes from the
// persisted counter: the guarded single-row update and the certificate
// insert commit in the same transaction, so concurrent callers get
// distinct sequential serials with no gaps and the counter is never
// reused. In manual mode the caller's serial is validated for uniqueness
// by exact, case-sensitive match.
func Issue(db *gorm.DB, studentName, courseName, completionDate, manualSerial string) (*models.Certificate, error) {
	studentName = strings.TrimSpace(sanitizer.Sanitize(studentName))
	courseName = strings.TrimSpace(sanitizer.Sanitize(courseName))
	completionDate = strings.TrimSpace(completionDate)

	if studentName == "" || courseName == "" || completionDate == "" {
		return nil, ErrMissingFields
	}

	settings, err := GetSettings(db)
	if err != nil {
		return nil, err
	}

	if settings.SerialNumberFormat == FormatManual {
		return issueManual(db, studentName, courseName, completionDate, manualSerial)
	}
	return issueAuto(db, studentName, courseName, completionDate, settings)
}

func issueManual(db *gorm.DB, studentName, courseName, completionDate, serial string) (*models.Certificate, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, ErrMissingSerial
	}

	var existing models.Certificate
	if err := db.Where("serial_number = ?", serial).First(&existing).Error; err == nil {
		return nil, ErrDuplicateSerial
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cert := models.Certificate{
		PublicID:       uuid.NewString(),
		SerialNumber:   serial,
		StudentName:    studentName,
		CourseName:     courseName,
		CompletionDate: completionDate,
	}
	if err := db.Create(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func issueAuto(db *gorm.DB, studentName, courseName, completionDate string, settings TemplateSettings) (*models.Certificate, error) {
	for attempt := 0; attempt < maxIssueRetries; attempt++ {
		var cert models.Certificate

		err := db.Transaction(func(tx *gorm.DB) error {
			row, err := ensureSettingsRow(tx)
			if err != nil {
				return err
			}

			serial := FormatSerial(settings.SerialNumberPrefix, row.SerialCursor, settings.SerialNumberPadding)

			// Guarded update: only advances if nobody else has since we
			// read the cursor. A zero-row update means we lost the race.
			res := tx.Model(&models.SiteSetting{}).
				Where("id = ? AND serial_cursor = ?", row.ID, row.SerialCursor).
				Update("serial_cursor", row.SerialCursor+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errCursorConflict
			}

			cert = models.Certificate{
				PublicID:       uuid.NewString(),
				SerialNumber:   serial,
				StudentName:    studentName,
				CourseName:     courseName,
				CompletionDate: completionDate,
			}
			return tx.Create(&cert).Error
		})
		if err == nil {
			return &cert, nil
		}
		if !errors.Is(err, errCursorConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("serial allocation kept conflicting after %d attempts", maxIssueRetries)
}

// View is the public projection returned by verification. Internal fields
// never leave the registry.
type View struct {
	SerialNumber   string `json:"serialNumber"`
	StudentName    string `json:"studentName"`
	CourseName     string `json:"courseName"`
	CompletionDate string `json:"completionDate"`
}

// Verify is the exact-match public lookup. Misses and revoked
// certificates both collapse to ErrNotFound so the public page cannot be
// used to probe which serials exist.
func Verify(db *gorm.DB, serialNumber string) (*View, error) {
	var cert models.Certificate
	if err := db.Where("serial_number = ?", serialNumber).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if cert.Revoked {
		return nil, ErrNotFound
	}

	return &View{
		SerialNumber:   cert.SerialNumber,
		StudentName:    cert.StudentName,
		CourseName:     cert.CourseName,
		CompletionDate: cert.CompletionDate,
	}, nil
}

// Revoke marks a certificate invalid without deleting it; verification of
// a revoked serial keeps returning the uniform not-found outcome instead
// of an ambiguous hole.
func Revoke(db *gorm.DB, serialNumber string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := db.Where("serial_number = ?", serialNumber).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !cert.Revoked {
		now := time.Now()
		cert.Revoked = true
		cert.RevokedAt = &now
		if err := db.Save(&cert).Error; err != nil {
			return nil, err
		}
	}
	return &cert, nil
}

func List(db *gorm.DB) ([]models.Certificate, error) {
	var certs []models.Certificate
	if err := db.Order("created_at DESC").Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}
