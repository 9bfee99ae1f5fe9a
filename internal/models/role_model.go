package models

import (
	"time"
)

// Permission actions. The set is closed: the admin UI renders one checkbox
// per action and no action implies another.
const (
	ActionView    = "view"
	ActionViewOwn = "view_own"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
)

var Actions = []string{ActionView, ActionViewOwn, ActionCreate, ActionEdit, ActionDelete}

func IsValidAction(action string) bool {
	for _, a := range Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Admin modules permissions are granted against. The module key is an open
// string column; this list is the seed/UI vocabulary.
var Modules = []string{
	"Users",
	"Roles",
	"Courses",
	"Products",
	"Vendors",
	"Payouts",
	"Coupons",
	"Advertisements",
	"Certificates",
	"Wallets",
	"Feedback",
	"Settings",
}

// Role names are stored lowercase and compared case-insensitively.
// IsSystem roles are seeded at bootstrap and can be neither renamed nor
// deleted.
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:100;uniqueIndex" json:"name"`
	Description string       `json:"description"`
	Color       string       `gorm:"size:20" json:"color"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"`
	Permissions []Permission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is one granted (module, action) cell of a role's matrix.
// A missing row means denied; there is no inheritance between actions.
type Permission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoleID    uint      `gorm:"uniqueIndex:idx_role_module_action" json:"role_id"`
	Module    string    `gorm:"size:50;uniqueIndex:idx_role_module_action" json:"module"`
	Action    string    `gorm:"size:20;uniqueIndex:idx_role_module_action" json:"action"`
	CreatedAt time.Time `json:"created_at"`
}
