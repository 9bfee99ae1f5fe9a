package role

import (
	"errors"
	"strings"

	"github.com/gaugyan/admin-api/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEmptyName     = errors.New("role name is required")
	ErrDuplicateRole = errors.New("role with this name already exists")
	ErrImmutableRole = errors.New("system roles cannot be renamed or deleted")
	ErrInvalidAction = errors.New("invalid permission action")
	ErrRoleInUse     = errors.New("role is still assigned to users")
	ErrRoleNotFound  = errors.New("role not found")
)

// Grant is one cell of the permission matrix as submitted by the admin UI.
// Granted=false removes the cell; absence of a cell always means denied.
type Grant struct {
	Module  string `json:"module"`
	Action  string `json:"action"`
	Granted bool   `json:"granted"`
}

// NormalizeName is the canonical form: trimmed, lowercase. All name
// comparisons in this package are case-insensitive.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validateGrants(grants []Grant) error {
	for _, g := range grants {
		if !models.IsValidAction(g.Action) {
			return ErrInvalidAction
		}
	}
	return nil
}

func findByName(db *gorm.DB, name string) (*models.Role, error) {
	var r models.Role
	err := db.Where("LOWER(name) = ?", NormalizeName(name)).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create makes a new non-system role. The permission matrix defaults to
// empty (everything denied) unless grants are supplied; any invalid action
// rejects the whole call before anything is written.
func Create(db *gorm.DB, name, description, color string, grants []Grant) (*models.Role, error) {
	canonical := NormalizeName(name)
	if canonical == "" {
		return nil, ErrEmptyName
	}
	if err := validateGrants(grants); err != nil {
		return nil, err
	}

	if _, err := findByName(db, canonical); err == nil {
		return nil, ErrDuplicateRole
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r := models.Role{
		Name:        canonical,
		Description: description,
		Color:       color,
		IsSystem:    false,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
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
	if err != nil {
		return nil, err
	}

	if err := db.Preload("Permissions").First(&r, r.ID).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// Rename rejects system roles and case-insensitive collisions with any
// other role. Renaming a role to a different casing of itself is allowed
// and collapses to the canonical form.
func Rename(db *gorm.DB, roleID uint, newName string) (*models.Role, error) {
	var r models.Role
	if err := db.First(&r, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	if r.IsSystem {
		return nil, ErrImmutableRole
	}

	canonical := NormalizeName(newName)
	if canonical == "" {
		return nil, ErrEmptyName
	}

	if existing, err := findByName(db, canonical); err == nil {
		if existing.ID != r.ID {
			return nil, ErrDuplicateRole
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r.Name = canonical
	if err := db.Save(&r).Error; err != nil {
		return nil, err
	}

	if err := db.Preload("Permissions").First(&r, r.ID).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// SetPermissions applies a batch of matrix edits atomically. If any grant
// names an unknown action the whole batch is rejected and nothing is
// persisted. Setting a cell to its current value is a no-op that still
// succeeds.
func SetPermissions(db *gorm.DB, roleID uint, grants []Grant) (*models.Role, error) {
	var r models.Role
	if err := db.First(&r, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	if err := validateGrants(grants); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, g := range grants {
			if g.Granted {
				perm := models.Permission{RoleID: r.ID, Module: g.Module, Action: g.Action}
				err := tx.Where(models.Permission{RoleID: r.ID, Module: g.Module, Action: g.Action}).
					FirstOrCreate(&perm).Error
				if err != nil {
					return err
				}
			} else {
				err := tx.Where("role_id = ? AND module = ? AND action = ?", r.ID, g.Module, g.Action).
					Delete(&models.Permission{}).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := db.Preload("Permissions").First(&r, r.ID).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete refuses system roles and roles still referenced by users; the
// caller must reassign those users first.
func Delete(db *gorm.DB, roleID uint) error {
	var r models.Role
	if err := db.First(&r, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	if r.IsSystem {
		return ErrImmutableRole
	}

	var userCount int64
	if err := db.Model(&models.User{}).Where("role_id = ?", r.ID).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return ErrRoleInUse
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", r.ID).Delete(&models.Permission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&r).Error
	})
}

// Authorize answers "may role R perform action A on module M". It fails
// closed: unknown role, unknown module, unset action, and malformed action
// names all deny. It never returns an error; this is the hot path behind
// every gated request and always reads current persisted state.
func Authorize(db *gorm.DB, roleName, module, action string) bool {
	if !models.IsValidAction(action) {
		return false
	}
	canonical := NormalizeName(roleName)
	if canonical == "" || module == "" {
		return false
	}

	var count int64
	err := db.Model(&models.Permission{}).
		Joins("JOIN roles ON roles.id = permissions.role_id").
		Where("LOWER(roles.name) = ? AND permissions.module = ? AND permissions.action = ?",
			canonical, module, action).
		Count(&count).Error
	if err != nil {
		return false
	}
	return count > 0
}

func List(db *gorm.DB) ([]models.Role, error) {
	var roles []models.Role
	if err := db.Preload("Permissions").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func Get(db *gorm.DB, roleID uint) (*models.Role, error) {
	var r models.Role
	if err := db.Preload("Permissions").First(&r, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &r, nil
}
