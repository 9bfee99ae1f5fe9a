package user

import (
	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/response"
	"github.com/gofiber/fiber/v2"
)

func CreateUserHandler(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		RoleID   uint   `json:"role_id"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Email == "" || body.Password == "" || body.Name == "" {
		return response.ValidationError(c, map[string]string{
			"email":    "email is required",
			"password": "password is required",
			"name":     "name is required",
		})
	}

	if body.RoleID != 0 {
		var r models.Role
		if err := database.DB.First(&r, body.RoleID).Error; err != nil {
			return response.NotFound(c, "Role")
		}
	}

	var existing models.User
	if err := database.DB.Where("email = ?", body.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "User with this email already exists")
	}

	u := models.User{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Provider: "local",
		RoleID:   body.RoleID,
	}

	created, err := CreateUser(database.DB, &u)
	if err != nil {
		return response.InternalError(c, "Failed to create user")
	}

	database.DB.Preload("Role.Permissions").First(created, created.ID)
	created.Password = ""

	return response.Created(c, created, "User created successfully")
}

func ListUsersHandler(c *fiber.Ctx) error {
	users, err := ListUsers()
	if err != nil {
		return response.InternalError(c, "Failed to fetch users")
	}

	for i := range users {
		users[i].Password = ""
	}

	return response.Success(c, users, "Users retrieved successfully")
}

func GetUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var u models.User
	if err := database.DB.Preload("Role.Permissions").First(&u, id).Error; err != nil {
		return response.NotFound(c, "User")
	}

	u.Password = ""

	return response.Success(c, u, "User retrieved successfully")
}

func UpdateUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Status string `json:"status"`
		RoleID uint   `json:"role_id"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	var u models.User
	if err := database.DB.First(&u, id).Error; err != nil {
		return response.NotFound(c, "User")
	}

	if body.Email != "" && body.Email != u.Email {
		var existing models.User
		if err := database.DB.Where("email = ? AND id != ?", body.Email, id).First(&existing).Error; err == nil {
			return response.Conflict(c, "Email already taken")
		}
		u.Email = body.Email
	}

	if body.Name != "" {
		u.Name = body.Name
	}
	if body.Status != "" {
		u.Status = body.Status
	}
	if body.RoleID != 0 {
		var r models.Role
		if err := database.DB.First(&r, body.RoleID).Error; err != nil {
			return response.NotFound(c, "Role")
		}
		u.RoleID = body.RoleID
	}

	if err := database.DB.Save(&u).Error; err != nil {
		return response.InternalError(c, "Failed to update user")
	}

	database.DB.Preload("Role").First(&u, u.ID)
	u.Password = ""

	return response.Success(c, u, "User updated successfully")
}

func DeleteUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var u models.User
	if err := database.DB.First(&u, id).Error; err != nil {
		return response.NotFound(c, "User")
	}

	if err := database.DB.Where("user_id = ?", u.ID).Delete(&models.RefreshToken{}).Error; err != nil {
		return response.InternalError(c, "Failed to clear user sessions")
	}

	if err := database.DB.Delete(&u).Error; err != nil {
		return response.InternalError(c, "Failed to delete user")
	}

	return response.NoContent(c)
}
