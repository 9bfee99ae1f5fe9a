package role

import (
	"errors"

	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/response"
	"github.com/gofiber/fiber/v2"
)

// PermissionMatrix is the wire shape the admin screens submit:
// module -> action -> granted. Absent cells are left as they are, matching
// a batch of individual toggles.
type PermissionMatrix map[string]map[string]bool

func (m PermissionMatrix) grants() []Grant {
	var grants []Grant
	for module, actions := range m {
		for action, granted := range actions {
			grants = append(grants, Grant{Module: module, Action: action, Granted: granted})
		}
	}
	return grants
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrEmptyName):
		return response.ValidationError(c, map[string]string{"name": "role name is required"})
	case errors.Is(err, ErrDuplicateRole):
		return response.Conflict(c, "Role with this name already exists")
	case errors.Is(err, ErrImmutableRole):
		return response.Forbidden(c, "System roles cannot be modified")
	case errors.Is(err, ErrInvalidAction):
		return response.ValidationError(c, map[string]string{"action": "action must be one of view, view_own, create, edit, delete"})
	case errors.Is(err, ErrRoleInUse):
		return response.Conflict(c, "Cannot delete role that is assigned to users")
	case errors.Is(err, ErrRoleNotFound):
		return response.NotFound(c, "Role")
	default:
		return response.InternalError(c, "Role operation failed")
	}
}

func CreateRoleHandler(c *fiber.Ctx) error {
	var body struct {
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Color       string           `json:"color"`
		Permissions PermissionMatrix `json:"permissions"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	r, err := Create(database.DB, body.Name, body.Description, body.Color, body.Permissions.grants())
	if err != nil {
		return serviceError(c, err)
	}

	return response.Created(c, r, "Role created successfully")
}

func ListRolesHandler(c *fiber.Ctx) error {
	roles, err := List(database.DB)
	if err != nil {
		return response.InternalError(c, "Failed to fetch roles")
	}

	return response.Success(c, roles, "Roles retrieved successfully")
}

func GetRoleHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	r, err := Get(database.DB, uint(id))
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, r, "Role retrieved successfully")
}

// UpdateRoleHandler handles the admin screen's partial save: a rename, a
// color change, a matrix edit, or any combination. Each supplied part goes
// through the corresponding service primitive.
func UpdateRoleHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	var body struct {
		Name        *string          `json:"name"`
		Color       *string          `json:"color"`
		Permissions PermissionMatrix `json:"permissions"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	r, err := Get(database.DB, uint(id))
	if err != nil {
		return serviceError(c, err)
	}

	if body.Name != nil && NormalizeName(*body.Name) != r.Name {
		if r, err = Rename(database.DB, r.ID, *body.Name); err != nil {
			return serviceError(c, err)
		}
	}

	if body.Color != nil {
		if err := database.DB.Model(&models.Role{}).Where("id = ?", r.ID).
			Update("color", *body.Color).Error; err != nil {
			return response.InternalError(c, "Failed to update role")
		}
	}

	if len(body.Permissions) > 0 {
		if r, err = SetPermissions(database.DB, r.ID, body.Permissions.grants()); err != nil {
			return serviceError(c, err)
		}
	}

	r, err = Get(database.DB, r.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, r, "Role updated successfully")
}

// SetPermissionsHandler is the atomic matrix save: all toggles apply or
// none do.
func SetPermissionsHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	var body struct {
		Permissions PermissionMatrix `json:"permissions"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	r, err := SetPermissions(database.DB, uint(id), body.Permissions.grants())
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, r, "Permissions updated successfully")
}

func DeleteRoleHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid role ID", nil)
	}

	if err := Delete(database.DB, uint(id)); err != nil {
		return serviceError(c, err)
	}

	return response.NoContent(c)
}

func AssignRoleToUserHandler(c *fiber.Ctx) error {
	var body struct {
		UserID uint `json:"user_id"`
		RoleID uint `json:"role_id"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.UserID == 0 || body.RoleID == 0 {
		return response.ValidationError(c, map[string]string{
			"user_id": "user_id is required",
			"role_id": "role_id is required",
		})
	}

	var r models.Role
	if err := database.DB.First(&r, body.RoleID).Error; err != nil {
		return response.NotFound(c, "Role")
	}

	var user models.User
	if err := database.DB.First(&user, body.UserID).Error; err != nil {
		return response.NotFound(c, "User")
	}

	user.RoleID = body.RoleID
	if err := database.DB.Save(&user).Error; err != nil {
		return response.InternalError(c, "Failed to assign role")
	}

	database.DB.Preload("Role.Permissions").First(&user, user.ID)
	user.Password = ""

	return response.Success(c, user, "Role assigned successfully")
}
