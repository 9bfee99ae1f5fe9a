package models

import (
	"time"

	"gorm.io/datatypes"
)

// SiteSetting is a per-category settings row. Settings holds the raw
// configured JSON; SerialCursor is the next number handed out under auto
// serial allocation. The cursor lives in its own column so issuance can do
// a guarded single-row update instead of rewriting the JSON blob.
type SiteSetting struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Category     string         `gorm:"size:50;uniqueIndex" json:"category"`
	Settings     datatypes.JSON `json:"settings"`
	SerialCursor int64          `gorm:"default:0" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
