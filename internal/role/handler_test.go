package role_test

import (
	"fmt"
	"testing"

	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCRUDOverHTTP(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@gaugyan.test", "password123", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")

	// Create with an initial matrix.
	resp, err := testutils.MakeRequest(app, "POST", "/roles/", map[string]interface{}{
		"name":  "Vendor Manager",
		"color": "#ff9800",
		"permissions": map[string]map[string]bool{
			"Vendors": {"view": true, "edit": true},
		},
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Code)

	var created struct {
		Success bool        `json:"success"`
		Data    models.Role `json:"data"`
	}
	testutils.ParseResponse(t, resp, &created)
	assert.Equal(t, "vendor manager", created.Data.Name)
	assert.Len(t, created.Data.Permissions, 2)

	// Duplicate name, different casing.
	resp, err = testutils.MakeRequest(app, "POST", "/roles/", map[string]interface{}{
		"name": "VENDOR MANAGER",
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.Code)
	testutils.AssertError(t, resp, "CONFLICT")

	// List includes seeded system roles plus the new one.
	resp, err = testutils.MakeRequest(app, "GET", "/roles/", nil, token)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	// Rename via PUT.
	url := fmt.Sprintf("/roles/%d", created.Data.ID)
	resp, err = testutils.MakeRequest(app, "PUT", url, map[string]interface{}{
		"name": "Partner Manager",
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var renamed struct {
		Data models.Role `json:"data"`
	}
	testutils.ParseResponse(t, resp, &renamed)
	assert.Equal(t, "partner manager", renamed.Data.Name)

	// Delete.
	resp, err = testutils.MakeRequest(app, "DELETE", url, nil, token)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Code)
}

func TestSavePermissionsAtomicOverHTTP(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@gaugyan.test", "password123", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")

	resp, err := testutils.MakeRequest(app, "POST", "/roles/", map[string]interface{}{
		"name": "auditor",
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Code)

	var created struct {
		Data models.Role `json:"data"`
	}
	testutils.ParseResponse(t, resp, &created)

	url := fmt.Sprintf("/roles/%d/permissions", created.Data.ID)

	// One bad action rejects the whole batch.
	resp, err = testutils.MakeRequest(app, "PUT", url, map[string]interface{}{
		"permissions": map[string]map[string]bool{
			"Payouts": {"view": true, "approve": true},
		},
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.Code)
	testutils.AssertError(t, resp, "VALIDATION_ERROR")

	resp, err = testutils.MakeRequest(app, "GET", fmt.Sprintf("/roles/%d", created.Data.ID), nil, token)
	require.NoError(t, err)
	var after struct {
		Data models.Role `json:"data"`
	}
	testutils.ParseResponse(t, resp, &after)
	assert.Empty(t, after.Data.Permissions, "rejected batch must not persist anything")

	// A clean batch applies.
	resp, err = testutils.MakeRequest(app, "PUT", url, map[string]interface{}{
		"permissions": map[string]map[string]bool{
			"Payouts": {"view": true, "edit": true},
		},
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	testutils.ParseResponse(t, resp, &after)
	assert.Len(t, after.Data.Permissions, 2)
}

func TestDeleteSystemRoleForbidden(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@gaugyan.test", "password123", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")

	var adminRole models.Role
	require.NoError(t, database.DB.Where("name = ?", "admin").First(&adminRole).Error)

	resp, err := testutils.MakeRequest(app, "DELETE", fmt.Sprintf("/roles/%d", adminRole.ID), nil, token)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.Code)
	testutils.AssertError(t, resp, "FORBIDDEN")
}

func TestDeleteRoleInUseOverHTTP(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, database.DB, "admin@gaugyan.test", "password123", "admin")
	token := testutils.GetAuthToken(t, admin.ID, "admin")

	// "support" is seeded by the harness; attach a user to it.
	testutils.CreateTestUser(t, database.DB, "support@gaugyan.test", "password123", "support")

	var supportRole models.Role
	require.NoError(t, database.DB.Where("name = ?", "support").First(&supportRole).Error)

	resp, err := testutils.MakeRequest(app, "DELETE", fmt.Sprintf("/roles/%d", supportRole.ID), nil, token)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.Code)
	testutils.AssertError(t, resp, "CONFLICT")
}

func TestRoleRoutesRequirePermission(t *testing.T) {
	app := testutils.SetupTestApp(t)
	support := testutils.CreateTestUser(t, database.DB, "support@gaugyan.test", "password123", "support")
	token := testutils.GetAuthToken(t, support.ID, "support")

	// Support can view users but not touch roles.
	resp, err := testutils.MakeRequest(app, "GET", "/roles/", nil, token)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.Code)

	resp, err = testutils.MakeRequest(app, "POST", "/roles/", map[string]interface{}{
		"name": "sneaky",
	}, token)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.Code)

	// And no token at all is unauthorized.
	resp, err = testutils.MakeRequest(app, "GET", "/roles/", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 401, resp.Code)
}
