package role

import (
	"github.com/gaugyan/admin-api/internal/models"
	"gorm.io/gorm"
)

// SeedDefaultRoles bootstraps the fixed system roles. Safe to run on every
// start: existing roles are left alone.
func SeedDefaultRoles(db *gorm.DB) error {
	if err := seedSystemRole(db, "admin", "Full access to all admin modules", "#d32f2f", adminGrants()); err != nil {
		return err
	}
	return seedSystemRole(db, "user", "Standard member account", "#1976d2", userGrants())
}

func adminGrants() []Grant {
	var grants []Grant
	for _, module := range models.Modules {
		for _, action := range models.Actions {
			grants = append(grants, Grant{Module: module, Action: action, Granted: true})
		}
	}
	return grants
}

func userGrants() []Grant {
	// Members only see their own courses, certificates, and wallet.
	return []Grant{
		{Module: "Courses", Action: models.ActionViewOwn, Granted: true},
		{Module: "Certificates", Action: models.ActionViewOwn, Granted: true},
		{Module: "Wallets", Action: models.ActionViewOwn, Granted: true},
	}
}

func seedSystemRole(db *gorm.DB, name, description, color string, grants []Grant) error {
	var existing models.Role
	err := db.Where("LOWER(name) = ?", name).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		r := models.Role{Name: name, Description: description, Color: color, IsSystem: true}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		for _, g := range grants {
			if !g.Granted {
				continue
			}
			perm := models.Permission{RoleID: r.ID, Module: g.Module, Action: g.Action}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
