package auth

import (
	"fmt"

	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/utils"
)

// DefaultRoleID resolves the seeded "user" role new registrations are
// attached to.
func DefaultRoleID() (uint, error) {
	var r models.Role
	if err := database.DB.Where("LOWER(name) = ?", "user").First(&r).Error; err != nil {
		return 0, err
	}
	return r.ID, nil
}

func RegisterUser(name, email, password string) (*models.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	roleID, err := DefaultRoleID()
	if err != nil {
		return nil, fmt.Errorf("default role missing: %w", err)
	}

	u := models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Provider: "local",
		Status:   "active",
		RoleID:   roleID,
	}

	if err := database.DB.Create(&u).Error; err != nil {
		return nil, err
	}

	return &u, nil
}

func LoginUser(email, password string) (string, string, error) {
	var user models.User
	if err := database.DB.Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return "", "", err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return "", "", fmt.Errorf("invalid credentials")
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	accessToken, err := utils.GenerateJWT(user.ID, roleName)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
