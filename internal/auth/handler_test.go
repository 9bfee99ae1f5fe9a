package auth_test

import (
	"testing"

	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsDefaultRole(t *testing.T) {
	app := testutils.SetupTestApp(t)

	resp, err := testutils.MakeRequest(app, "POST", "/auth/register", map[string]interface{}{
		"name":     "Asha Rao",
		"email":    "asha@gaugyan.test",
		"password": "password123",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Code)

	var u models.User
	require.NoError(t, database.DB.Preload("Role").Where("email = ?", "asha@gaugyan.test").First(&u).Error)
	require.NotNil(t, u.Role)
	assert.Equal(t, "user", u.Role.Name)
	assert.True(t, u.Role.IsSystem)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := testutils.SetupTestApp(t)
	testutils.CreateTestUser(t, database.DB, "asha@gaugyan.test", "password123", "user")

	resp, err := testutils.MakeRequest(app, "POST", "/auth/register", map[string]interface{}{
		"name":     "Asha Again",
		"email":    "asha@gaugyan.test",
		"password": "password123",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 409, resp.Code)
}

func TestLoginAndRefresh(t *testing.T) {
	app := testutils.SetupTestApp(t)
	u := testutils.CreateTestUser(t, database.DB, "asha@gaugyan.test", "password123", "user")

	resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
		"email":    "asha@gaugyan.test",
		"password": "password123",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var login struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	testutils.ParseResponse(t, resp, &login)
	require.NotEmpty(t, login.Data.AccessToken)
	require.NotEmpty(t, login.Data.RefreshToken)

	resp, err = testutils.MakeRequest(app, "POST", "/auth/refresh", map[string]interface{}{
		"user_id":       u.ID,
		"refresh_token": login.Data.RefreshToken,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	// The old refresh token is single-use.
	resp, err = testutils.MakeRequest(app, "POST", "/auth/refresh", map[string]interface{}{
		"user_id":       u.ID,
		"refresh_token": login.Data.RefreshToken,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 401, resp.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	app := testutils.SetupTestApp(t)
	testutils.CreateTestUser(t, database.DB, "asha@gaugyan.test", "password123", "user")

	resp, err := testutils.MakeRequest(app, "POST", "/auth/login", map[string]interface{}{
		"email":    "asha@gaugyan.test",
		"password": "wrong-password",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 401, resp.Code)
}
