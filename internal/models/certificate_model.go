package models

import (
	"time"
)

// Certificate is immutable once issued. Revocation marks the record; it is
// never deleted, so a revoked serial still resolves to a defined answer.
type Certificate struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	PublicID       string     `gorm:"size:36;uniqueIndex" json:"public_id"`
	SerialNumber   string     `gorm:"size:64;uniqueIndex" json:"serial_number"`
	StudentName    string     `gorm:"size:200" json:"student_name"`
	CourseName     string     `gorm:"size:200" json:"course_name"`
	CompletionDate string     `gorm:"size:20" json:"completion_date"`
	Revoked        bool       `gorm:"default:false" json:"revoked"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
